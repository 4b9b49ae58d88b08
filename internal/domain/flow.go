package domain

import (
	"errors"
	"fmt"
)

// FlowID — идентификатор запрошенного потока: имя одного этапа,
// "pnr" или "full_flow".
type FlowID string

// Составные потоки.
const (
	// FlowPNR — place & route: синтез уже выполнен, нужен только physical design.
	FlowPNR FlowID = "pnr"

	// FlowFull — полный поток RTL → GDSII.
	FlowFull FlowID = "full_flow"
)

// ErrUnknownFlow — запрошен неизвестный поток или этап.
var ErrUnknownFlow = errors.New("unknown flow")

// ExpandFlow разворачивает идентификатор потока в упорядоченный список
// дескрипторов этапов. Одиночный этап даёт список из одного элемента
// (легаси-имена приводятся к действующим сервисам).
func ExpandFlow(id FlowID) ([]StageDescriptor, error) {
	switch id {
	case FlowFull:
		return descriptorList(StageSynth, StagePlacement, StageCTS, StageRouteSave), nil
	case FlowPNR:
		return descriptorList(StagePlacement, StageCTS, StageRouteSave), nil
	}

	desc, ok := Descriptor(Stage(id))
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownFlow, id)
	}
	return []StageDescriptor{desc}, nil
}

func descriptorList(stages ...Stage) []StageDescriptor {
	list := make([]StageDescriptor, len(stages))
	for i, s := range stages {
		list[i] = descriptors[s]
	}
	return list
}

// FlowRequest — один входящий запрос на выполнение потока.
//
// Запрос не переживает свою обработку: всё, что должно быть запомнено,
// уходит в Session Store после успешных этапов.
type FlowRequest struct {
	// Flow — запрошенный поток (этап, "pnr" или "full_flow").
	Flow FlowID `json:"flow"`

	// Design — имя дизайна (например, "b14", "leon2", "des").
	Design string `json:"design"`

	// Tech — технологическая библиотека. Default: FreePDK45.
	Tech string `json:"tech,omitempty"`

	// TopModule — имя top-модуля RTL.
	TopModule string `json:"top_module,omitempty"`

	// Strategy — стратегия оптимизации: fast, performance, power, area.
	Strategy string `json:"strategy,omitempty"`

	// Overrides — явные переопределения параметров для всех этапов потока.
	Overrides map[string]any `json:"parameters,omitempty"`

	// StageRequirements — переопределения, действующие только для одного этапа.
	// Тот же приоритет, что и Overrides: расхождение значений — конфликт.
	StageRequirements map[Stage]map[string]any `json:"stage_requirements,omitempty"`

	// SessionID — идентификатор сессии для наследования параметров.
	SessionID string `json:"session_id,omitempty"`

	// Force — перезапустить этап, даже если результат уже существует.
	Force bool `json:"force,omitempty"`
}

// Validate проверяет минимальную корректность запроса.
func (r *FlowRequest) Validate() error {
	if r.Flow == "" {
		return errors.New("flow is required")
	}
	if r.Design == "" {
		return errors.New("design is required")
	}
	return nil
}
