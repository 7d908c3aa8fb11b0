package authz

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/wasteops/wasteops/internal/platform/httpx"
)

// Handler exposes the authorization decisions to the console frontend.
type Handler struct {
	logger    *slog.Logger
	resolver  *Resolver
	guard     *Guard
	principal func(r *http.Request) Principal
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, resolver *Resolver, guard *Guard, principal func(r *http.Request) Principal) *Handler {
	return &Handler{logger: logger, resolver: resolver, guard: guard, principal: principal}
}

// MountRoutes registers authorization routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/permissions", h.effectivePermissions)
	r.Get("/check", h.check)
	r.Get("/catalog", h.listCatalog)
}

func (h *Handler) effectivePermissions(w http.ResponseWriter, r *http.Request) {
	p := h.principal(r)
	if p == nil {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	set := h.resolver.Resolve(p)
	httpx.JSON(w, http.StatusOK, map[string]any{
		"role":        p.GetRole(),
		"role_name":   p.GetRole().DisplayName(),
		"permissions": set.Keys(),
	})
}

// check evaluates an ad hoc requirement so the frontend can pre-compute
// visibility of protected regions without a dedicated endpoint per region.
func (h *Handler) check(w http.ResponseWriter, r *http.Request) {
	p := h.principal(r)
	if p == nil {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	req := Requirement{
		Role:       Role(r.URL.Query().Get("role")),
		Permission: Permission(r.URL.Query().Get("permission")),
		Fallback:   r.URL.Query().Get("fallback"),
	}
	decision, denial := h.guard.Evaluate(p, req)
	body := map[string]any{"status": decision.String()}
	if denial != nil {
		body["denial"] = denial
	}
	httpx.JSON(w, http.StatusOK, body)
}

func (h *Handler) listCatalog(w http.ResponseWriter, r *http.Request) {
	httpx.JSON(w, http.StatusOK, map[string]any{"permissions": AllPermissions()})
}
