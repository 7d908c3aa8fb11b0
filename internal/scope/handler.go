package scope

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/wasteops/wasteops/internal/directory"
	"github.com/wasteops/wasteops/internal/identity"
	"github.com/wasteops/wasteops/internal/platform/httpx"
)

// Handler exposes the scope selection to the console frontend.
type Handler struct {
	logger    *slog.Logger
	manager   *Manager
	validator *validator.Validate
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, manager *Manager) *Handler {
	return &Handler{logger: logger, manager: manager, validator: validator.New()}
}

// MountRoutes registers scope routes. All of them require a principal.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.getScope)
	r.Put("/company", h.selectCompany)
	r.Put("/district", h.selectDistrict)
}

type scopeResponse struct {
	Selection     Selection            `json:"selection"`
	Companies     []directory.Company  `json:"companies"`
	Districts     []directory.District `json:"districts"`
	CompanyLocked bool                 `json:"company_locked"`
}

func (h *Handler) getScope(w http.ResponseWriter, r *http.Request) {
	principal := identity.PrincipalFromContext(r.Context())
	if principal == nil {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	store := h.manager.ForUser(r.Context(), principal.UserID)
	if err := store.LoadCompanies(r.Context(), principal); err != nil {
		h.logger.Error("load companies", slog.Any("error", err))
		httpx.RespondError(w, httpx.ErrUnavailable)
		return
	}
	if err := store.LoadDistricts(r.Context(), principal); err != nil {
		h.logger.Error("load districts", slog.Any("error", err))
		httpx.RespondError(w, httpx.ErrUnavailable)
		return
	}
	h.respondState(w, store, principal)
}

type selectCompanyRequest struct {
	CompanyID int64 `json:"company_id" validate:"required,gt=0"`
}

func (h *Handler) selectCompany(w http.ResponseWriter, r *http.Request) {
	principal := identity.PrincipalFromContext(r.Context())
	if principal == nil {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	var req selectCompanyRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}

	store := h.manager.ForUser(r.Context(), principal.UserID)
	if err := store.LoadCompanies(r.Context(), principal); err != nil {
		h.logger.Error("load companies", slog.Any("error", err))
		httpx.RespondError(w, httpx.ErrUnavailable)
		return
	}
	if err := store.SelectCompany(r.Context(), req.CompanyID); err != nil {
		if errors.Is(err, ErrCompanyNotAvailable) {
			httpx.Problem(w, http.StatusUnprocessableEntity, "Company Not Available", err.Error())
			return
		}
		h.logger.Error("select company", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if err := store.LoadDistricts(r.Context(), principal); err != nil {
		// The selection already switched and persisted; report the district
		// fetch as transient without rolling anything back.
		h.logger.Warn("load districts after company switch", slog.Any("error", err))
	}
	h.respondState(w, store, principal)
}

type selectDistrictRequest struct {
	DistrictID *int64 `json:"district_id" validate:"omitempty,gt=0"`
}

func (h *Handler) selectDistrict(w http.ResponseWriter, r *http.Request) {
	principal := identity.PrincipalFromContext(r.Context())
	if principal == nil {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	var req selectDistrictRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}

	store := h.manager.ForUser(r.Context(), principal.UserID)
	if err := store.SelectDistrict(r.Context(), req.DistrictID); err != nil {
		switch {
		case errors.Is(err, ErrDistrictNotAvailable), errors.Is(err, ErrNoCompanySelected):
			httpx.Problem(w, http.StatusUnprocessableEntity, "District Not Available", err.Error())
		default:
			h.logger.Error("select district", slog.Any("error", err))
			httpx.RespondError(w, err)
		}
		return
	}
	h.respondState(w, store, principal)
}

func (h *Handler) respondState(w http.ResponseWriter, store *Store, principal *identity.Principal) {
	httpx.JSON(w, http.StatusOK, scopeResponse{
		Selection:     store.Selected(),
		Companies:     store.Companies(),
		Districts:     store.Districts(),
		CompanyLocked: store.CompanyLocked(principal),
	})
}
