package domain

// Stage — этап physical-design потока.
type Stage string

// Этапы, реализованные отдельными сервисами (4-серверная архитектура).
const (
	// StageSynth — RTL-синтез (Design Compiler).
	StageSynth Stage = "synth"

	// StagePlacement — объединённый этап floorplan + powerplan + placement (Innovus).
	StagePlacement Stage = "unified_placement"

	// StageCTS — синтез дерева тактирования.
	StageCTS Stage = "cts"

	// StageRouteSave — объединённый этап трассировки и сохранения результатов.
	StageRouteSave Stage = "unified_route_save"
)

// Легаси-имена этапов из старой 8-серверной архитектуры.
// Принимаются на входе и отображаются на объединённые сервисы.
const (
	StageSynthSetup    Stage = "synth_setup"
	StageSynthCompile  Stage = "synth_compile"
	StageFloorplan     Stage = "floorplan"
	StagePowerplan     Stage = "powerplan"
	StageCellPlacement Stage = "placement"
	StageRoute         Stage = "route"
	StageSave          Stage = "save"
)

// legacyStages — отображение легаси-имён на действующие сервисы.
var legacyStages = map[Stage]Stage{
	StageSynthSetup:    StageSynth,
	StageSynthCompile:  StageSynth,
	StageFloorplan:     StagePlacement,
	StagePowerplan:     StagePlacement,
	StageCellPlacement: StagePlacement,
	StageRoute:         StageRouteSave,
	StageSave:          StageRouteSave,
}

// CanonicalStage приводит имя этапа к каноническому (действующему) сервису.
// Возвращает false, если имя этапа неизвестно.
func CanonicalStage(s Stage) (Stage, bool) {
	if mapped, ok := legacyStages[s]; ok {
		return mapped, true
	}
	if _, ok := descriptors[s]; ok {
		return s, true
	}
	return "", false
}

// VersionKind — какой идентификатор версии требуется этапу.
type VersionKind int

const (
	// VersionNone — этап не привязан к версии артефактов (synth создаёт новую).
	VersionNone VersionKind = iota

	// VersionSynthesis — этапу нужен syn_ver (например, "cpV1_clkP1_drcV1").
	VersionSynthesis

	// VersionImplementation — этапу нужен impl_ver ("<syn_ver>__g<g>_p<p>").
	VersionImplementation
)

// Имена параметров, которые понимает оркестратор.
const (
	ParamDesign     = "design"
	ParamTech       = "tech"
	ParamTopModule  = "top_module"
	ParamSynVer     = "syn_ver"
	ParamImplVer    = "impl_ver"
	ParamRestoreEnc = "restore_enc"
	ParamForce      = "force"
	ParamVersionIdx = "version_idx"
	ParamGIdx       = "g_idx"
	ParamPIdx       = "p_idx"
	ParamCIdx       = "c_idx"
	ParamRIdx       = "r_idx"
	ParamArchive    = "archive"
	ParamStrategy   = "strategy"
)

// DefaultTech — технологическая библиотека по умолчанию.
const DefaultTech = "FreePDK45"

// StageDescriptor — статическое описание этапа.
//
// Дескрипторы определяются при старте процесса и не изменяются.
// Они фиксируют порядок этапов, имена полей чекпоинтов и
// обязательные параметры каждого сервиса.
type StageDescriptor struct {
	// Name — каноническое имя этапа.
	Name Stage

	// Predecessor — предыдущий этап потока ("" для первого).
	Predecessor Stage

	// CheckpointField — имя поля входного чекпоинта в payload ("" если не нужен).
	CheckpointField string

	// CheckpointRequired — без входного чекпоинта этап не запускается.
	// У unified_placement поле опционально (restore из синтеза не требуется).
	CheckpointRequired bool

	// ProducesCheckpoint — этап возвращает restore_enc для следующего этапа.
	ProducesCheckpoint bool

	// EncName — базовое имя сохраняемого .enc.dat файла в pnr_save.
	EncName string

	// Version — вид идентификатора версии, который нужен этапу.
	Version VersionKind

	// Required — параметры, без которых этап не диспетчеризуется.
	Required []string

	// Defaults — собственные значения по умолчанию этапа (низший приоритет).
	Defaults map[string]any
}

// descriptors — таблица дескрипторов действующих этапов.
var descriptors = map[Stage]StageDescriptor{
	StageSynth: {
		Name:     StageSynth,
		Version:  VersionNone,
		Required: []string{ParamDesign},
		Defaults: map[string]any{
			ParamTech:       DefaultTech,
			ParamVersionIdx: 0,
		},
	},
	StagePlacement: {
		Name:               StagePlacement,
		Predecessor:        StageSynth,
		CheckpointField:    ParamRestoreEnc,
		CheckpointRequired: false,
		ProducesCheckpoint: true,
		EncName:            "placement",
		Version:            VersionSynthesis,
		Required:           []string{ParamDesign, ParamTopModule, ParamSynVer},
		Defaults: map[string]any{
			ParamTech: DefaultTech,
			ParamGIdx: 0,
			ParamPIdx: 0,
		},
	},
	StageCTS: {
		Name:               StageCTS,
		Predecessor:        StagePlacement,
		CheckpointField:    ParamRestoreEnc,
		CheckpointRequired: true,
		ProducesCheckpoint: true,
		EncName:            "cts",
		Version:            VersionImplementation,
		Required:           []string{ParamDesign, ParamTopModule, ParamImplVer, ParamRestoreEnc},
		Defaults: map[string]any{
			ParamTech: DefaultTech,
			ParamGIdx: 0,
			ParamCIdx: 0,
		},
	},
	StageRouteSave: {
		Name:               StageRouteSave,
		Predecessor:        StageCTS,
		CheckpointField:    ParamRestoreEnc,
		CheckpointRequired: true,
		ProducesCheckpoint: true,
		EncName:            "route",
		Version:            VersionImplementation,
		Required:           []string{ParamDesign, ParamTopModule, ParamImplVer, ParamRestoreEnc},
		Defaults: map[string]any{
			ParamTech:    DefaultTech,
			ParamGIdx:    0,
			ParamPIdx:    0,
			ParamRIdx:    0,
			ParamArchive: true,
		},
	},
}

// Descriptor возвращает дескриптор этапа (после приведения легаси-имени).
func Descriptor(s Stage) (StageDescriptor, bool) {
	canonical, ok := CanonicalStage(s)
	if !ok {
		return StageDescriptor{}, false
	}
	return descriptors[canonical], true
}

// Stages возвращает канонические этапы в порядке потока.
func Stages() []Stage {
	return []Stage{StageSynth, StagePlacement, StageCTS, StageRouteSave}
}
