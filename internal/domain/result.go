package domain

import (
	"time"

	"github.com/google/uuid"
)

// StageStatus — статус выполнения одного этапа.
type StageStatus string

const (
	// StageStatusOK — этап завершился успешно.
	StageStatusOK StageStatus = "ok"

	// StageStatusError — этап завершился с ошибкой (транспортной или от сервиса).
	StageStatusError StageStatus = "error"
)

// StageResult — нормализованный результат одного вызова этапа.
//
// Создаётся Stage Client сразу после ответа или таймаута.
// Любой сбой представлен данными: за границу клиента ошибки не выходят.
type StageResult struct {
	// Status — ok или error.
	Status StageStatus `json:"status"`

	// Checkpoint — путь к созданному .enc.dat (только при успехе,
	// и только для этапов, которые его создают).
	Checkpoint string `json:"restore_enc,omitempty"`

	// SynVer — версия синтеза, если сервис её сообщил (этап synth).
	SynVer string `json:"syn_ver,omitempty"`

	// LogPath — путь к логу инструмента.
	LogPath string `json:"log_path,omitempty"`

	// TclPath — путь к сгенерированному TCL-скрипту.
	TclPath string `json:"tcl_path,omitempty"`

	// Reports — именованные отчёты (имя → путь или содержимое).
	Reports map[string]string `json:"reports,omitempty"`

	// Detail — текст ошибки (только при Status == error).
	// Удалённая ошибка передаётся дословно.
	Detail string `json:"detail,omitempty"`
}

// OK возвращает true при успешном статусе.
func (r *StageResult) OK() bool {
	return r.Status == StageStatusOK
}

// ResolvedStageParams — конкретный набор параметров ровно одного этапа.
//
// Инвариант: к моменту диспетчеризации каждый обязательный параметр
// этапа присутствует и не конфликтует; иначе этап не вызывается вовсе.
type ResolvedStageParams struct {
	// Stage — этап, для которого разрешены параметры.
	Stage Stage

	// Params — готовый payload для сервиса этапа.
	Params map[string]any

	// Checkpoint — разрешённый входной чекпоинт ("" для первого этапа).
	Checkpoint string

	// SynVer — версия синтеза, использованная при разрешении.
	SynVer string

	// ImplVer — версия имплементации (для этапов, которым она нужна,
	// и производная для unified_placement).
	ImplVer string
}

// FlowState — состояние конечного автомата выполнения потока.
type FlowState string

const (
	// FlowStatePending — поток принят, выполнение не началось.
	FlowStatePending FlowState = "PENDING"

	// FlowStateResolving — идёт разрешение параметров очередного этапа.
	FlowStateResolving FlowState = "RESOLVING"

	// FlowStateDispatching — очередной этап выполняется удалённым сервисом.
	FlowStateDispatching FlowState = "DISPATCHING"

	// FlowStateCompleted — все этапы завершились успешно.
	FlowStateCompleted FlowState = "COMPLETED"

	// FlowStateHalted — поток остановлен на первом сбое;
	// оставшиеся этапы не вызывались.
	FlowStateHalted FlowState = "HALTED"
)

// HaltKind — категория причины остановки потока.
type HaltKind string

const (
	// HaltConflict — конфликт значений параметра на одном уровне приоритета.
	HaltConflict HaltKind = "CONFLICT"

	// HaltMissingCheckpoint — нет входного чекпоинта и нет фолбэка в Registry.
	HaltMissingCheckpoint HaltKind = "MISSING_CHECKPOINT"

	// HaltNoVersion — версия не задана, в сессии её нет и Registry пуст.
	HaltNoVersion HaltKind = "NO_VERSION"

	// HaltMissingParameter — не удалось получить обязательный параметр этапа.
	HaltMissingParameter HaltKind = "MISSING_PARAMETER"

	// HaltStageError — сбой удалённого этапа (транспортный или от инструмента).
	HaltStageError HaltKind = "STAGE_ERROR"
)

// HaltInfo — где и почему остановился поток.
type HaltInfo struct {
	// Stage — этап, на котором произошла остановка.
	Stage Stage `json:"stage"`

	// Kind — категория причины.
	Kind HaltKind `json:"kind"`

	// Reason — человекочитаемая причина.
	Reason string `json:"reason"`
}

// StageOutcome — один этап в итоговом отчёте потока.
type StageOutcome struct {
	// Stage — этап.
	Stage Stage `json:"stage"`

	// Params — payload, с которым этап был вызван.
	Params map[string]any `json:"params,omitempty"`

	// Result — нормализованный результат вызова.
	Result *StageResult `json:"result"`
}

// FlowResult — агрегированный результат выполнения потока.
//
// Возвращается вызывающему всегда, независимо от того, дошёл поток
// до COMPLETED или остановился: по нему видно, докуда поток добрался.
type FlowResult struct {
	// RunID — уникальный идентификатор этого выполнения.
	RunID uuid.UUID `json:"run_id"`

	// Flow — запрошенный поток.
	Flow FlowID `json:"flow"`

	// Design — имя дизайна.
	Design string `json:"design"`

	// Tech — технологическая библиотека.
	Tech string `json:"tech"`

	// State — терминальное состояние: COMPLETED или HALTED.
	State FlowState `json:"state"`

	// Stages — результаты этапов в порядке выполнения.
	// При остановке содержит ровно выполненные (и сорвавшийся) этапы.
	Stages []StageOutcome `json:"stages"`

	// Halt — причина остановки (nil при COMPLETED).
	Halt *HaltInfo `json:"halt,omitempty"`

	// Advisories — нефатальные предупреждения о противоречивых требованиях.
	Advisories []string `json:"advisories,omitempty"`

	// FinalCheckpoint — чекпоинт последнего успешного этапа.
	FinalCheckpoint string `json:"final_checkpoint,omitempty"`

	// StartedAt — время начала выполнения.
	StartedAt time.Time `json:"started_at"`

	// FinishedAt — время завершения.
	FinishedAt time.Time `json:"finished_at"`
}
