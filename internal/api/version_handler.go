package api

import (
	"errors"
	"net/http"

	"github.com/Duke-CEI-Center/AutoEDA/internal/domain"
	"github.com/Duke-CEI-Center/AutoEDA/internal/registry"
)

// ListDesignVersions возвращает версии артефактов дизайна.
// GET /api/v1/designs/{design}/versions?tech=FreePDK45
func (h *Handler) ListDesignVersions(w http.ResponseWriter, r *http.Request) {
	design := r.PathValue("design")

	tech := r.URL.Query().Get("tech")
	if tech == "" {
		tech = domain.DefaultTech
	}

	synth, err := h.registry.ListVersions(design, tech, registry.CategorySynthesis)
	if err != nil && !errors.Is(err, registry.ErrNoVersions) {
		InternalError(w, h.logger, err)
		return
	}

	impl, err := h.registry.ListVersions(design, tech, registry.CategoryImplementation)
	if err != nil && !errors.Is(err, registry.ErrNoVersions) {
		InternalError(w, h.logger, err)
		return
	}

	if len(synth) == 0 && len(impl) == 0 {
		NotFound(w, "no versions for design "+design)
		return
	}

	Success(w, DesignVersionsResponse{
		Design:         design,
		Tech:           tech,
		Synthesis:      synth,
		Implementation: impl,
	})
}
