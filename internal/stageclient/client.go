package stageclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/Duke-CEI-Center/AutoEDA/internal/domain"
	"github.com/Duke-CEI-Center/AutoEDA/internal/telemetry"
)

// defaultTimeout — таймаут одного вызова этапа.
// EDA-инструменты работают минутами; значение переопределяется
// через EDA_STAGE_TIMEOUT_SEC.
const defaultTimeout = 300 * time.Second

// Client выполняет один блокирующий вызов сервиса этапа.
//
// Ровно один исходящий запрос на Invoke, без повторов: политика retry,
// если нужна, принадлежит вызывающему. Любой сбой — транспортный,
// таймаут или ошибка самого инструмента — возвращается как данные
// в StageResult, никогда как error.
type Client struct {
	endpoints map[domain.Stage]string
	http      *http.Client
	timeout   time.Duration
	logger    *slog.Logger
}

// Config — конфигурация Client.
type Config struct {
	// Endpoints — URL /run-эндпоинта каждого сервиса этапа.
	Endpoints map[domain.Stage]string

	// Timeout — таймаут одного вызова (default: 300s).
	Timeout time.Duration

	// Logger — логгер.
	Logger *slog.Logger
}

// New создаёт Client.
func New(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = TimeoutFromEnv()
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	endpoints := cfg.Endpoints
	if endpoints == nil {
		endpoints = EndpointsFromEnv()
	}

	return &Client{
		endpoints: endpoints,
		http:      &http.Client{},
		timeout:   timeout,
		logger:    logger,
	}
}

// EndpointsFromEnv возвращает эндпоинты сервисов этапов из окружения.
// Порты по умолчанию соответствуют 4-серверной архитектуре.
func EndpointsFromEnv() map[domain.Stage]string {
	get := func(env, def string) string {
		if v := os.Getenv(env); v != "" {
			return v
		}
		return def
	}

	return map[domain.Stage]string{
		domain.StageSynth:     get("SYNTH_URL", "http://localhost:13333/run"),
		domain.StagePlacement: get("UNIFIED_PLACEMENT_URL", "http://localhost:13340/run"),
		domain.StageCTS:       get("CTS_URL", "http://localhost:13338/run"),
		domain.StageRouteSave: get("UNIFIED_ROUTE_SAVE_URL", "http://localhost:13341/run"),
	}
}

// TimeoutFromEnv возвращает таймаут вызова этапа из EDA_STAGE_TIMEOUT_SEC.
func TimeoutFromEnv() time.Duration {
	if v := os.Getenv("EDA_STAGE_TIMEOUT_SEC"); v != "" {
		if sec, err := strconv.Atoi(v); err == nil && sec > 0 {
			return time.Duration(sec) * time.Second
		}
	}
	return defaultTimeout
}

// stageResponse — сырой ответ сервиса этапа.
//
// Контракт: status — "ok" или строка с текстом ошибки; detail дублирует
// текст ошибки у части сервисов.
type stageResponse struct {
	Status     string            `json:"status"`
	Detail     string            `json:"detail"`
	RestoreEnc string            `json:"restore_enc"`
	SynVer     string            `json:"syn_ver"`
	LogPath    string            `json:"log_path"`
	TclPath    string            `json:"tcl_path"`
	Reports    map[string]string `json:"reports"`
}

// Invoke отправляет params сервису этапа и блокируется до ответа
// или таймаута.
func (c *Client) Invoke(ctx context.Context, stage domain.Stage, params map[string]any) *domain.StageResult {
	start := time.Now()
	res := c.invoke(ctx, stage, params)

	telemetry.StageInvocations.WithLabelValues(string(stage), string(res.Status)).Inc()
	telemetry.StageDuration.WithLabelValues(string(stage)).Observe(time.Since(start).Seconds())

	return res
}

func (c *Client) invoke(ctx context.Context, stage domain.Stage, params map[string]any) *domain.StageResult {
	url, ok := c.endpoints[stage]
	if !ok {
		return failure(fmt.Sprintf("%s unreachable: no endpoint configured", stage))
	}

	body, err := json.Marshal(params)
	if err != nil {
		return failure(fmt.Sprintf("%s payload: %v", stage, err))
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return failure(fmt.Sprintf("%s unreachable: %v", stage, err))
	}
	req.Header.Set("Content-Type", "application/json")

	c.logger.Info("dispatching stage", "stage", stage, "url", url)

	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			c.logger.Warn("stage timed out", "stage", stage, "timeout", c.timeout)
			return failure(fmt.Sprintf("%s timed out", stage))
		}
		c.logger.Warn("stage unreachable", "stage", stage, "error", err)
		return failure(fmt.Sprintf("%s unreachable", stage))
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return failure(fmt.Sprintf("%s unreachable: read response: %v", stage, err))
	}

	if resp.StatusCode >= 400 {
		return failure(fmt.Sprintf("%s returned HTTP %d", stage, resp.StatusCode))
	}

	var sr stageResponse
	if err := json.Unmarshal(raw, &sr); err != nil {
		return failure(fmt.Sprintf("%s returned invalid JSON: %v", stage, err))
	}

	return normalize(&sr)
}

// normalize переводит сырой ответ сервиса в единый StageResult.
func normalize(sr *stageResponse) *domain.StageResult {
	if sr.Status != string(domain.StageStatusOK) {
		// Удалённая ошибка передаётся дословно.
		detail := sr.Detail
		if detail == "" {
			detail = sr.Status
		}
		return &domain.StageResult{
			Status:  domain.StageStatusError,
			LogPath: sr.LogPath,
			Detail:  detail,
		}
	}

	return &domain.StageResult{
		Status:     domain.StageStatusOK,
		Checkpoint: sr.RestoreEnc,
		SynVer:     sr.SynVer,
		LogPath:    sr.LogPath,
		TclPath:    sr.TclPath,
		Reports:    sr.Reports,
	}
}

func failure(detail string) *domain.StageResult {
	return &domain.StageResult{
		Status: domain.StageStatusError,
		Detail: detail,
	}
}
