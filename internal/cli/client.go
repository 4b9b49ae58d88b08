package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
)

// --- Response types (дублируются из api/dto.go, CLI не импортирует internal/api) ---

// FlowRunResponse — результат выполнения потока из API.
type FlowRunResponse struct {
	RunID           string         `json:"run_id"`
	Flow            string         `json:"flow"`
	Design          string         `json:"design"`
	Tech            string         `json:"tech"`
	State           string         `json:"state"`
	Stages          []StageOutcome `json:"stages"`
	Halt            *HaltInfo      `json:"halt,omitempty"`
	Advisories      []string       `json:"advisories,omitempty"`
	FinalCheckpoint string         `json:"final_checkpoint,omitempty"`
	StartedAt       string         `json:"started_at"`
	FinishedAt      string         `json:"finished_at"`
}

// StageOutcome — результат одного этапа.
type StageOutcome struct {
	Stage  string         `json:"stage"`
	Params map[string]any `json:"params,omitempty"`
	Result *StageResult   `json:"result"`
}

// StageResult — нормализованный ответ сервиса этапа.
type StageResult struct {
	Status     string            `json:"status"`
	Checkpoint string            `json:"restore_enc,omitempty"`
	SynVer     string            `json:"syn_ver,omitempty"`
	LogPath    string            `json:"log_path,omitempty"`
	TclPath    string            `json:"tcl_path,omitempty"`
	Reports    map[string]string `json:"reports,omitempty"`
	Detail     string            `json:"detail,omitempty"`
}

// HaltInfo — причина остановки потока.
type HaltInfo struct {
	Stage  string `json:"stage"`
	Kind   string `json:"kind"`
	Reason string `json:"reason"`
}

// HistoryEntry — запись истории сессии из API.
type HistoryEntry struct {
	Time       string         `json:"time"`
	Flow       string         `json:"flow"`
	Stage      string         `json:"stage"`
	Design     string         `json:"design"`
	Params     map[string]any `json:"params,omitempty"`
	Status     string         `json:"status"`
	Checkpoint string         `json:"checkpoint,omitempty"`
	Detail     string         `json:"detail,omitempty"`
}

// VersionInfo — одна версия артефактов.
type VersionInfo struct {
	Name    string `json:"name"`
	ModTime string `json:"mod_time"`
}

// DesignVersionsResponse — версии артефактов дизайна из API.
type DesignVersionsResponse struct {
	Design         string        `json:"design"`
	Tech           string        `json:"tech"`
	Synthesis      []VersionInfo `json:"synthesis"`
	Implementation []VersionInfo `json:"implementation"`
}

// RunSummary — строка журнала запусков из API.
type RunSummary struct {
	RunID      string `json:"run_id"`
	Flow       string `json:"flow"`
	Design     string `json:"design"`
	Tech       string `json:"tech"`
	SessionID  string `json:"session_id,omitempty"`
	State      string `json:"state"`
	HaltStage  string `json:"halt_stage,omitempty"`
	HaltReason string `json:"halt_reason,omitempty"`
	StartedAt  string `json:"started_at"`
	FinishedAt string `json:"finished_at,omitempty"`
}

// StageInfo — описание этапа из API.
type StageInfo struct {
	Name               string   `json:"name"`
	Predecessor        string   `json:"predecessor,omitempty"`
	Required           []string `json:"required_params"`
	CheckpointRequired bool     `json:"checkpoint_required"`
	ProducesCheckpoint bool     `json:"produces_checkpoint"`
}

// --- Request types ---

// RunFlowRequest — тело запроса POST /api/v1/flows/run.
type RunFlowRequest struct {
	Flow              string                    `json:"flow"`
	Design            string                    `json:"design"`
	Tech              string                    `json:"tech,omitempty"`
	TopModule         string                    `json:"top_module,omitempty"`
	Strategy          string                    `json:"strategy,omitempty"`
	Parameters        map[string]any            `json:"parameters,omitempty"`
	StageRequirements map[string]map[string]any `json:"stage_requirements,omitempty"`
	SessionID         string                    `json:"session_id,omitempty"`
	Force             bool                      `json:"force,omitempty"`
}

// --- API response wrappers ---

type dataResponse struct {
	Data json.RawMessage `json:"data"`
}

type listResponse struct {
	Data  json.RawMessage `json:"data"`
	Total int             `json:"total"`
}

type errorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// --- Client ---

// Client — HTTP-клиент для AutoEDA API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient создаёт клиент для API.
// Потоки выполняются синхронно и могут идти десятки минут,
// поэтому таймаута на запрос нет.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 0,
		},
	}
}

// RunFlow запускает поток и блокируется до его завершения.
func (c *Client) RunFlow(req RunFlowRequest) (*FlowRunResponse, error) {
	var result FlowRunResponse
	err := c.post("/api/v1/flows/run", req, &result)
	return &result, err
}

// ListStages возвращает этапы потока.
func (c *Client) ListStages() ([]StageInfo, error) {
	var stages []StageInfo
	err := c.list("/api/v1/stages", nil, &stages)
	return stages, err
}

// SessionHistory возвращает историю сессии.
func (c *Client) SessionHistory(id string) ([]HistoryEntry, error) {
	var history []HistoryEntry
	err := c.list("/api/v1/sessions/"+id+"/history", nil, &history)
	return history, err
}

// ClearSession удаляет сессию.
func (c *Client) ClearSession(id string) error {
	return c.delete("/api/v1/sessions/" + id)
}

// DesignVersions возвращает версии артефактов дизайна.
func (c *Client) DesignVersions(design, tech string) (*DesignVersionsResponse, error) {
	path := "/api/v1/designs/" + design + "/versions"
	if tech != "" {
		path += "?tech=" + url.QueryEscape(tech)
	}
	var versions DesignVersionsResponse
	err := c.get(path, &versions)
	return &versions, err
}

// DesignRuns возвращает последние запуски дизайна из журнала.
func (c *Client) DesignRuns(design string, limit int) ([]RunSummary, error) {
	params := url.Values{}
	if limit > 0 {
		params.Set("limit", fmt.Sprintf("%d", limit))
	}
	var runs []RunSummary
	err := c.list("/api/v1/designs/"+design+"/runs", params, &runs)
	return runs, err
}

// --- HTTP helpers ---

func (c *Client) get(path string, result any) error {
	return c.doData(http.MethodGet, path, nil, result)
}

func (c *Client) post(path string, body any, result any) error {
	return c.doData(http.MethodPost, path, body, result)
}

func (c *Client) delete(path string) error {
	resp, err := c.do(http.MethodDelete, path, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return c.checkError(resp)
}

func (c *Client) list(path string, params url.Values, result any) error {
	if len(params) > 0 {
		path = path + "?" + params.Encode()
	}

	resp, err := c.do(http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := c.checkError(resp); err != nil {
		return err
	}

	var lr listResponse
	if err := json.NewDecoder(resp.Body).Decode(&lr); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return json.Unmarshal(lr.Data, result)
}

func (c *Client) doData(method, path string, body any, result any) error {
	resp, err := c.do(method, path, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := c.checkError(resp); err != nil {
		return err
	}

	// 204 No Content
	if resp.StatusCode == http.StatusNoContent {
		return nil
	}

	var dr dataResponse
	if err := json.NewDecoder(resp.Body).Decode(&dr); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	if result != nil {
		return json.Unmarshal(dr.Data, result)
	}
	return nil
}

func (c *Client) do(method, path string, body any) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return c.httpClient.Do(req)
}

func (c *Client) checkError(resp *http.Response) error {
	if resp.StatusCode < 400 {
		return nil
	}

	var er errorResponse
	if err := json.NewDecoder(resp.Body).Decode(&er); err != nil {
		return fmt.Errorf("API error: HTTP %d", resp.StatusCode)
	}

	return fmt.Errorf("%s: %s", er.Error.Code, er.Error.Message)
}
