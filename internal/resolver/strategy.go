package resolver

import (
	"fmt"

	"github.com/Duke-CEI-Center/AutoEDA/internal/domain"
)

// Пресеты стратегий оптимизации. Значения задают усилия инструментов
// и базовые физические параметры; действуют ниже сессии и явных
// переопределений.
var strategyPresets = map[string]map[string]any{
	"fast": {
		"design_flow_effort":  "express",
		"design_power_effort": "none",
		"target_util":         0.5,
		"ASPECT_RATIO":        1.0,
		"clk_period":          15.0,
	},
	"performance": {
		"design_flow_effort":  "standard",
		"design_power_effort": "medium",
		"target_util":         0.85,
		"ASPECT_RATIO":        1.0,
		"clk_period":          5.0,
	},
	"power": {
		"design_flow_effort":  "standard",
		"design_power_effort": "high",
		"target_util":         0.7,
		"ASPECT_RATIO":        1.2,
		"clk_period":          10.0,
	},
	"area": {
		"design_flow_effort":  "standard",
		"design_power_effort": "medium",
		"target_util":         0.9,
		"ASPECT_RATIO":        1.2,
		"clk_period":          8.0,
	},
}

// StrategyPreset возвращает копию пресета стратегии.
func StrategyPreset(name string) (map[string]any, bool) {
	preset, ok := strategyPresets[name]
	if !ok {
		return nil, false
	}
	out := make(map[string]any, len(preset))
	for k, v := range preset {
		out[k] = v
	}
	return out, true
}

// KnownStrategy проверяет, что имя стратегии известно.
func KnownStrategy(name string) bool {
	_, ok := strategyPresets[name]
	return ok
}

// Advisories находит противоречия между выбранной стратегией и явными
// переопределениями. Нефатально: поток выполняется, предупреждения
// возвращаются вызывающему.
func Advisories(req *domain.FlowRequest) []string {
	var out []string

	if !KnownStrategy(req.Strategy) {
		return nil
	}

	if req.Strategy == "power" || req.Strategy == "area" {
		if p, ok := floatOverride(req, "clk_period"); ok {
			if perf := strategyPresets["performance"]["clk_period"].(float64); p <= perf {
				out = append(out, fmt.Sprintf(
					"%s strategy with clk_period=%.1f pulls toward performance: power and performance requirements may conflict",
					req.Strategy, p))
			}
		}
	}

	if req.Strategy == "fast" {
		if effort, ok := stringOverride(req, "design_flow_effort"); ok && effort != "express" {
			out = append(out, "fast strategy with non-express flow effort: speed and quality requirements may conflict")
		}
	}

	if req.Strategy == "performance" {
		if u, ok := floatOverride(req, "target_util"); ok {
			if areaUtil := strategyPresets["area"]["target_util"].(float64); u >= areaUtil {
				out = append(out, fmt.Sprintf(
					"performance strategy with target_util=%.2f packs like an area run: area and performance requirements may conflict", u))
			}
		}
	}

	return out
}

func floatOverride(req *domain.FlowRequest, key string) (float64, bool) {
	v, ok := req.Overrides[key]
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	}
	return 0, false
}

func stringOverride(req *domain.FlowRequest, key string) (string, bool) {
	v, ok := req.Overrides[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}
