package resolver

import (
	"log/slog"
	"reflect"

	"github.com/Duke-CEI-Center/AutoEDA/internal/domain"
	"github.com/Duke-CEI-Center/AutoEDA/internal/registry"
	"github.com/Duke-CEI-Center/AutoEDA/internal/session"
	"github.com/Duke-CEI-Center/AutoEDA/internal/telemetry"
)

// Resolver собирает конкретный набор параметров одного этапа.
//
// Приоритет источников (выше — сильнее):
//  1. явные переопределения запроса (Overrides + StageRequirements этапа);
//  2. снимок last-known-good сессии для (design, stage) и наследуемые
//     базовые параметры сессии;
//  3. пресет стратегии оптимизации;
//  4. собственные значения по умолчанию этапа.
//
// Расхождение значений внутри уровня 1 — конфликт, а не молчаливый выбор.
type Resolver struct {
	registry *registry.Registry
	logger   *slog.Logger
}

// New создаёт Resolver.
func New(reg *registry.Registry, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{registry: reg, logger: logger}
}

// Upstream — то, что предыдущий этап потока передаёт следующему.
type Upstream struct {
	// Checkpoint — чекпоинт, созданный предыдущим этапом.
	Checkpoint string

	// SynVer — версия синтеза, известная из предыдущих этапов.
	SynVer string

	// ImplVer — версия имплементации, известная из предыдущих этапов.
	ImplVer string
}

// Resolve возвращает готовый payload этапа либо ошибку разрешения.
// При любой ошибке этап не диспетчеризуется.
func (r *Resolver) Resolve(desc domain.StageDescriptor, req *domain.FlowRequest, sess *session.Record, up Upstream) (*domain.ResolvedStageParams, error) {
	rp, err := r.resolve(desc, req, sess, up)
	if err != nil {
		telemetry.ResolutionFailures.WithLabelValues(string(HaltKind(err))).Inc()
	}
	return rp, err
}

func (r *Resolver) resolve(desc domain.StageDescriptor, req *domain.FlowRequest, sess *session.Record, up Upstream) (*domain.ResolvedStageParams, error) {
	params := make(map[string]any)

	// Уровень 4: значения по умолчанию этапа.
	for k, v := range desc.Defaults {
		params[k] = v
	}

	// Уровень 3: пресет стратегии (явной или запомненной сессией).
	strategy := req.Strategy
	if strategy == "" && sess != nil {
		strategy = sess.PreferredStrategy()
	}
	if preset, ok := StrategyPreset(strategy); ok {
		for k, v := range preset {
			params[k] = v
		}
		params[domain.ParamStrategy] = strategy
	}

	// Уровень 2: сессия — наследуемые базовые параметры и снимок
	// last-known-good этого (design, stage).
	if sess != nil {
		for k, v := range sess.LastParams() {
			params[k] = v
		}
		for k, v := range sess.Snapshot(req.Design, desc.Name) {
			params[k] = v
		}
	}

	// Поля самого запроса сильнее сессии и слабее свободных Overrides.
	params[domain.ParamDesign] = req.Design
	if req.Tech != "" {
		params[domain.ParamTech] = req.Tech
	}
	if req.TopModule != "" {
		params[domain.ParamTopModule] = req.TopModule
	}
	if req.Force {
		params[domain.ParamForce] = true
	}

	// Уровень 1: явные переопределения. Overrides и StageRequirements
	// этапа равноправны — расхождение значений есть конфликт.
	stageOv := req.StageRequirements[desc.Name]
	for k, v := range req.Overrides {
		if sv, ok := stageOv[k]; ok && !reflect.DeepEqual(sv, v) {
			return nil, &ConflictError{Stage: desc.Name, Parameter: k, Candidates: []any{v, sv}}
		}
		params[k] = v
	}
	for k, v := range stageOv {
		params[k] = v
	}

	// Версии артефактов. Недоступность версии здесь ещё не ошибка:
	// MissingCheckpoint обязательного чекпоинта важнее NoVersion.
	rp := &domain.ResolvedStageParams{Stage: desc.Name, Params: params}
	r.resolveVersion(desc, req, params, up, rp)

	// Входной чекпоинт.
	if err := r.resolveCheckpoint(desc, req, sess, params, up, rp); err != nil {
		return nil, err
	}

	if desc.Version == domain.VersionSynthesis && rp.SynVer == "" {
		return nil, &NoVersionError{Stage: desc.Name, Design: req.Design, Kind: desc.Version}
	}
	if desc.Version == domain.VersionImplementation && rp.ImplVer == "" {
		return nil, &NoVersionError{Stage: desc.Name, Design: req.Design, Kind: desc.Version}
	}

	// Каждый обязательный параметр должен присутствовать к этому моменту.
	for _, name := range desc.Required {
		if v, ok := params[name]; !ok || v == "" {
			return nil, &MissingParameterError{Stage: desc.Name, Parameter: name}
		}
	}

	return rp, nil
}

// resolveVersion определяет syn_ver/impl_ver этапа.
//
// Порядок: явное переопределение запроса → известное из предыдущих
// этапов этого же потока → запомненное сессией → автоопределение
// последней версии через Registry. Версии из Upstream сильнее
// сессионных: synth этого потока мог создать более новую версию,
// чем та, что осталась в снимке от прошлого запуска.
// Неразрешённая версия остаётся пустой; ошибку поднимает вызывающий
// после проверки чекпоинта.
func (r *Resolver) resolveVersion(desc domain.StageDescriptor, req *domain.FlowRequest, params map[string]any, up Upstream, rp *domain.ResolvedStageParams) {
	tech := stringParam(params, domain.ParamTech, domain.DefaultTech)

	switch desc.Version {
	case domain.VersionSynthesis:
		synVer := explicitString(req, desc.Name, domain.ParamSynVer)
		if synVer == "" {
			synVer = up.SynVer
		}
		if synVer == "" {
			synVer = stringParam(params, domain.ParamSynVer, "")
		}
		if synVer == "" {
			if latest, err := r.registry.LatestVersion(req.Design, tech, registry.CategorySynthesis); err == nil {
				synVer = latest
				r.logger.Debug("auto-detected synthesis version",
					"design", req.Design, "syn_ver", synVer)
			}
		}
		if synVer == "" {
			return
		}
		params[domain.ParamSynVer] = synVer
		rp.SynVer = synVer
		// Производная версия имплементации, которую создаст этот этап.
		rp.ImplVer = registry.ImplementationVersion(synVer, intParam(params, domain.ParamGIdx, 0), intParam(params, domain.ParamPIdx, 0))
		params[domain.ParamImplVer] = rp.ImplVer

	case domain.VersionImplementation:
		synVer := explicitString(req, desc.Name, domain.ParamSynVer)
		if synVer == "" {
			synVer = up.SynVer
		}
		if synVer == "" {
			synVer = stringParam(params, domain.ParamSynVer, "")
		}

		implVer := explicitString(req, desc.Name, domain.ParamImplVer)
		if implVer == "" {
			implVer = up.ImplVer
		}
		if implVer == "" {
			implVer = stringParam(params, domain.ParamImplVer, "")
		}
		if implVer == "" {
			// Выводим из известной версии синтеза и индексов конфигурации.
			if synVer == "" {
				if latest, err := r.registry.LatestVersion(req.Design, tech, registry.CategorySynthesis); err == nil {
					synVer = latest
				}
			}
			if synVer != "" {
				implVer = registry.ImplementationVersion(synVer, intParam(params, domain.ParamGIdx, 0), intParam(params, domain.ParamPIdx, 0))
			}
		}
		if implVer == "" {
			// Последний шанс: существующая версия имплементации на диске.
			if latest, err := r.registry.LatestVersion(req.Design, tech, registry.CategoryImplementation); err == nil {
				implVer = latest
			}
		}
		if implVer == "" {
			return
		}
		params[domain.ParamImplVer] = implVer
		rp.ImplVer = implVer
		rp.SynVer = synVer
	}
}

// resolveCheckpoint подключает входной чекпоинт этапа.
//
// Порядок: чекпоинт предыдущего этапа потока → явный restore_enc →
// чекпоинт из сессии → фолбэк с диска через Registry (вход в поток
// с середины). Для этапов с обязательным чекпоинтом отсутствие всех
// источников — MissingCheckpoint, отличная от конфликта ошибка.
func (r *Resolver) resolveCheckpoint(desc domain.StageDescriptor, req *domain.FlowRequest, sess *session.Record, params map[string]any, up Upstream, rp *domain.ResolvedStageParams) error {
	if desc.CheckpointField == "" {
		return nil
	}

	checkpoint := up.Checkpoint
	if checkpoint == "" {
		checkpoint = stringParam(params, desc.CheckpointField, "")
	}
	if checkpoint == "" && sess != nil {
		if cp, ok := sess.LastCheckpoint(req.Design, desc.Predecessor); ok {
			checkpoint = cp
			r.logger.Debug("checkpoint resumed from session",
				"stage", desc.Name, "checkpoint", cp)
		}
	}
	if checkpoint == "" && rp.ImplVer != "" {
		tech := stringParam(params, domain.ParamTech, domain.DefaultTech)
		if cp, ok := r.registry.FindCheckpoint(req.Design, tech, rp.ImplVer, desc.Predecessor); ok {
			checkpoint = cp
			r.logger.Debug("checkpoint found on disk",
				"stage", desc.Name, "checkpoint", cp)
		}
	}

	if checkpoint == "" {
		if desc.CheckpointRequired {
			return &MissingCheckpointError{Stage: desc.Name, Field: desc.CheckpointField}
		}
		return nil
	}

	params[desc.CheckpointField] = checkpoint
	rp.Checkpoint = checkpoint
	return nil
}

// explicitString возвращает строковое переопределение из самого запроса:
// StageRequirements этапа, затем Overrides. Только такие значения
// сильнее версий, пришедших из предыдущих этапов потока.
func explicitString(req *domain.FlowRequest, stage domain.Stage, key string) string {
	if v, ok := req.StageRequirements[stage][key]; ok {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	if v, ok := req.Overrides[key]; ok {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	return ""
}

func stringParam(params map[string]any, key, def string) string {
	if v, ok := params[key]; ok {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	return def
}

func intParam(params map[string]any, key string, def int) int {
	switch v := params[key].(type) {
	case int:
		return v
	case float64:
		return int(v)
	}
	return def
}
