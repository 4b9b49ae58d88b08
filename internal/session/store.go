package session

import (
	"log/slog"
	"sync"
	"time"

	"github.com/Duke-CEI-Center/AutoEDA/internal/domain"
)

// Store — процессное хранилище сессий.
//
// Ключ — идентификатор сессии вызывающего. Запись создаётся при первом
// обращении (единственная точка неявного создания в системе) и живёт
// до конца процесса; автоматического вытеснения нет.
//
// Дисциплина конкурентности: мутации одной сессии сериализуются её
// собственным мьютексом, несвязанные сессии не мешают друг другу.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*Record
	logger   *slog.Logger
}

// NewStore создаёт пустой Store.
func NewStore(logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		sessions: make(map[string]*Record),
		logger:   logger,
	}
}

// Get возвращает запись сессии, создавая пустую при первом обращении.
func (s *Store) Get(id string) *Record {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.sessions[id]
	if !ok {
		rec = newRecord(id)
		s.sessions[id] = rec
		s.logger.Debug("session created", "session_id", id)
	}
	return rec
}

// Clear удаляет сессию. Административная операция, не горячий путь.
func (s *Store) Clear(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[id]; !ok {
		return false
	}
	delete(s.sessions, id)
	s.logger.Info("session cleared", "session_id", id)
	return true
}

// Len возвращает количество сессий.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// snapshotKey — ключ снимка last-known-good: (design, stage).
type snapshotKey struct {
	design string
	stage  domain.Stage
}

// HistoryEntry — одна запись истории сессии.
type HistoryEntry struct {
	// Time — момент записи.
	Time time.Time `json:"time"`

	// Flow — поток, в рамках которого выполнялся этап.
	Flow domain.FlowID `json:"flow"`

	// Stage — выполненный этап.
	Stage domain.Stage `json:"stage"`

	// Design — дизайн.
	Design string `json:"design"`

	// Params — payload, с которым этап был вызван.
	Params map[string]any `json:"params,omitempty"`

	// Status — результат этапа.
	Status domain.StageStatus `json:"status"`

	// Checkpoint — созданный чекпоинт (при успехе).
	Checkpoint string `json:"checkpoint,omitempty"`

	// Detail — текст ошибки (при сбое).
	Detail string `json:"detail,omitempty"`
}

// Record — накопленный контекст одной сессии.
//
// Принадлежит исключительно Store; оркестратор держит ссылку только
// на время обработки одного запроса. Снимки изменяются лишь успешными
// завершениями этапов.
type Record struct {
	id string

	mu          sync.RWMutex
	history     []HistoryEntry
	snapshots   map[snapshotKey]map[string]any
	checkpoints map[snapshotKey]string
	lastParams  map[string]any
	strategy    string
}

func newRecord(id string) *Record {
	return &Record{
		id:          id,
		snapshots:   make(map[snapshotKey]map[string]any),
		checkpoints: make(map[snapshotKey]string),
		lastParams:  make(map[string]any),
	}
}

// ID возвращает идентификатор сессии.
func (r *Record) ID() string {
	return r.id
}

// Базовые параметры, наследуемые между запросами одной сессии.
var inheritedParams = []string{
	domain.ParamDesign,
	domain.ParamTopModule,
	domain.ParamSynVer,
	domain.ParamImplVer,
}

// RecordStageSuccess добавляет запись в историю и перезаписывает снимок
// last-known-good для (design, stage).
//
// force действует только на тот запрос, в котором пришёл; в снимок он
// не попадает, иначе сессия навязывала бы пересборку всем последующим
// запросам.
//
// Повторная запись идентичного успеха идемпотентна для снимка
// (перезапись теми же значениями), хотя история продолжает расти.
func (r *Record) RecordStageSuccess(flow domain.FlowID, design string, stage domain.Stage, params map[string]any, res *domain.StageResult) {
	r.mu.Lock()
	defer r.mu.Unlock()

	snap := copyParams(params)
	delete(snap, domain.ParamForce)

	key := snapshotKey{design: design, stage: stage}
	r.snapshots[key] = snap
	if res.Checkpoint != "" {
		r.checkpoints[key] = res.Checkpoint
	}

	for _, p := range inheritedParams {
		if v, ok := params[p]; ok {
			r.lastParams[p] = v
		}
	}
	if s, ok := params[domain.ParamStrategy].(string); ok && s != "" {
		r.strategy = s
	}

	r.history = append(r.history, HistoryEntry{
		Time:       time.Now(),
		Flow:       flow,
		Stage:      stage,
		Design:     design,
		Params:     copyParams(params),
		Status:     domain.StageStatusOK,
		Checkpoint: res.Checkpoint,
	})
}

// RecordStageFailure добавляет сбой в историю.
// Снимок last-known-good не трогается: он остаётся на последнем успехе,
// поэтому повтор потока естественно продолжится с того же чекпоинта.
func (r *Record) RecordStageFailure(flow domain.FlowID, design string, stage domain.Stage, params map[string]any, res *domain.StageResult) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.history = append(r.history, HistoryEntry{
		Time:   time.Now(),
		Flow:   flow,
		Stage:  stage,
		Design: design,
		Params: copyParams(params),
		Status: domain.StageStatusError,
		Detail: res.Detail,
	})
}

// Snapshot возвращает копию снимка last-known-good для (design, stage).
func (r *Record) Snapshot(design string, stage domain.Stage) map[string]any {
	r.mu.RLock()
	defer r.mu.RUnlock()

	snap, ok := r.snapshots[snapshotKey{design: design, stage: stage}]
	if !ok {
		return nil
	}
	return copyParams(snap)
}

// LastCheckpoint возвращает чекпоинт последнего успешного выполнения
// (design, stage), если он был.
func (r *Record) LastCheckpoint(design string, stage domain.Stage) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	cp, ok := r.checkpoints[snapshotKey{design: design, stage: stage}]
	return cp, ok
}

// LastParams возвращает копию наследуемых базовых параметров сессии.
func (r *Record) LastParams() map[string]any {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return copyParams(r.lastParams)
}

// PreferredStrategy возвращает последнюю использованную стратегию.
func (r *Record) PreferredStrategy() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.strategy
}

// History возвращает копию истории сессии в порядке записи.
func (r *Record) History() []HistoryEntry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]HistoryEntry, len(r.history))
	copy(out, r.history)
	return out
}

func copyParams(src map[string]any) map[string]any {
	if src == nil {
		return nil
	}
	dst := make(map[string]any, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}
