package resolver

import (
	"errors"
	"fmt"

	"github.com/Duke-CEI-Center/AutoEDA/internal/domain"
)

// Ошибки разрешения параметров. Все они обнаруживаются до какого-либо
// удалённого вызова, восстановимы уточнением запроса и никогда
// не повторяются автоматически.
var (
	// ErrConflict — два источника одного уровня приоритета дают
	// разные значения параметра.
	ErrConflict = errors.New("parameter conflict")

	// ErrMissingCheckpoint — этапу нужен входной чекпоинт, а его нет
	// ни от предыдущего этапа, ни в сессии, ни в Registry.
	ErrMissingCheckpoint = errors.New("missing checkpoint")

	// ErrNoVersion — версия не задана, и автоопределение не нашло
	// ни одной существующей.
	ErrNoVersion = errors.New("no version available")

	// ErrMissingParameter — обязательный параметр этапа не удалось
	// получить ни из одного источника.
	ErrMissingParameter = errors.New("missing required parameter")
)

// ConflictError — конфликт значений одного параметра на одном уровне
// приоритета. Разрешение не выбирает значение молча: конфликт
// возвращается вызывающему с именем параметра и кандидатами.
type ConflictError struct {
	Stage      domain.Stage
	Parameter  string
	Candidates []any
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("parameter conflict at %s: %q has candidates %v", e.Stage, e.Parameter, e.Candidates)
}

func (e *ConflictError) Unwrap() error { return ErrConflict }

// MissingCheckpointError — отсутствует входной чекпоинт этапа.
type MissingCheckpointError struct {
	Stage domain.Stage
	Field string
}

func (e *MissingCheckpointError) Error() string {
	return fmt.Sprintf("missing checkpoint for %s: no value for %q and no fallback on disk", e.Stage, e.Field)
}

func (e *MissingCheckpointError) Unwrap() error { return ErrMissingCheckpoint }

// NoVersionError — не удалось определить версию артефактов.
type NoVersionError struct {
	Stage  domain.Stage
	Design string
	Kind   domain.VersionKind
}

func (e *NoVersionError) Error() string {
	which := "syn_ver"
	if e.Kind == domain.VersionImplementation {
		which = "impl_ver"
	}
	return fmt.Sprintf("no version available for %s: %s of design %q is not given and cannot be detected", e.Stage, which, e.Design)
}

func (e *NoVersionError) Unwrap() error { return ErrNoVersion }

// MissingParameterError — обязательный параметр этапа отсутствует.
type MissingParameterError struct {
	Stage     domain.Stage
	Parameter string
}

func (e *MissingParameterError) Error() string {
	return fmt.Sprintf("missing required parameter for %s: %q", e.Stage, e.Parameter)
}

func (e *MissingParameterError) Unwrap() error { return ErrMissingParameter }

// HaltKind переводит ошибку разрешения в категорию остановки потока.
func HaltKind(err error) domain.HaltKind {
	switch {
	case errors.Is(err, ErrConflict):
		return domain.HaltConflict
	case errors.Is(err, ErrMissingCheckpoint):
		return domain.HaltMissingCheckpoint
	case errors.Is(err, ErrNoVersion):
		return domain.HaltNoVersion
	default:
		return domain.HaltMissingParameter
	}
}
