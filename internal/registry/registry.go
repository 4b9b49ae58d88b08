package registry

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/Duke-CEI-Center/AutoEDA/internal/domain"
)

// Категории артефактов внутри designs/<design>/<tech>/.
const (
	CategorySynthesis      = "synthesis"
	CategoryImplementation = "implementation"
)

// ErrNoVersions — для дизайна нет ни одной версии в этой категории.
// Нормальная, восстановимая ситуация: вызывающий должен либо передать
// версию явно, либо остановить поток.
var ErrNoVersions = errors.New("no versions found")

// Registry разрешает версии артефактов по содержимому каталога designs/.
//
// Registry только читает файловую систему и ничего не изменяет.
// Имя версии — имя подкаталога; "последняя" определяется временем
// модификации. Это приближённый порядок: при равных временах берётся
// лексикографически большее имя, чтобы результат был детерминированным.
type Registry struct {
	root string
}

// New создаёт Registry с корнем каталога designs/.
func New(root string) *Registry {
	return &Registry{root: root}
}

// DefaultRoot возвращает корень каталога дизайнов из окружения.
func DefaultRoot() string {
	if v := os.Getenv("DESIGNS_ROOT"); v != "" {
		return v
	}
	return "designs"
}

// VersionInfo — одна версия артефактов.
type VersionInfo struct {
	// Name — имя каталога версии.
	Name string `json:"name"`

	// ModTime — время последней модификации каталога.
	ModTime time.Time `json:"mod_time"`
}

// ListVersions возвращает версии дизайна в категории,
// отсортированные от новых к старым.
func (r *Registry) ListVersions(design, tech, category string) ([]VersionInfo, error) {
	dir := filepath.Join(r.root, design, tech, category)

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s/%s/%s", ErrNoVersions, design, tech, category)
		}
		return nil, fmt.Errorf("read %s: %w", dir, err)
	}

	var versions []VersionInfo
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		versions = append(versions, VersionInfo{Name: e.Name(), ModTime: info.ModTime()})
	}

	if len(versions) == 0 {
		return nil, fmt.Errorf("%w: %s/%s/%s", ErrNoVersions, design, tech, category)
	}

	sort.Slice(versions, func(i, j int) bool {
		if !versions[i].ModTime.Equal(versions[j].ModTime) {
			return versions[i].ModTime.After(versions[j].ModTime)
		}
		// Тай-брейк при равных временах: лексикографически большее имя.
		return versions[i].Name > versions[j].Name
	})

	return versions, nil
}

// LatestVersion возвращает имя последней версии дизайна в категории.
func (r *Registry) LatestVersion(design, tech, category string) (string, error) {
	versions, err := r.ListVersions(design, tech, category)
	if err != nil {
		return "", err
	}
	return versions[0].Name, nil
}

// ImplementationVersion — детерминированное имя версии имплементации.
// Чистая функция: одинаковые аргументы всегда дают одинаковую строку.
func ImplementationVersion(synVer string, gIdx, pIdx int) string {
	return fmt.Sprintf("%s__g%d_p%d", synVer, gIdx, pIdx)
}

// CheckpointPath — ожидаемый путь .enc.dat файла этапа внутри версии
// имплементации. Файл может не существовать.
func (r *Registry) CheckpointPath(design, tech, implVer string, stage domain.Stage) string {
	desc, ok := domain.Descriptor(stage)
	if !ok || desc.EncName == "" {
		return ""
	}
	return filepath.Join(r.root, design, tech, CategoryImplementation, implVer, "pnr_save", desc.EncName+".enc.dat")
}

// FindCheckpoint возвращает путь к существующему .enc.dat файлу этапа.
// Используется для входа в поток с середины: "запусти CTS от готового
// placement-чекпоинта".
func (r *Registry) FindCheckpoint(design, tech, implVer string, stage domain.Stage) (string, bool) {
	path := r.CheckpointPath(design, tech, implVer, stage)
	if path == "" {
		return "", false
	}
	if _, err := os.Stat(path); err != nil {
		return "", false
	}
	return path, true
}
