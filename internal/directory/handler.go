package directory

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/wasteops/wasteops/internal/platform/httpx"
)

// Handler exposes read-only directory lists for the scope picker.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers directory routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/companies", h.listCompanies)
	r.Get("/companies/{companyID}/districts", h.listDistricts)
	r.Get("/districts/{districtID}/neighborhoods", h.listNeighborhoods)
}

func (h *Handler) listCompanies(w http.ResponseWriter, r *http.Request) {
	companies, err := h.service.ListCompanies(r.Context(), queryLimit(r))
	if err != nil {
		h.logger.Error("list companies", slog.Any("error", err))
		httpx.RespondError(w, httpx.ErrUnavailable)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"companies": companies})
}

func (h *Handler) listDistricts(w http.ResponseWriter, r *http.Request) {
	companyID, err := strconv.ParseInt(chi.URLParam(r, "companyID"), 10, 64)
	if err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	districts, err := h.service.ListDistricts(r.Context(), companyID, queryLimit(r))
	if err != nil {
		h.logger.Error("list districts", slog.Int64("company_id", companyID), slog.Any("error", err))
		httpx.RespondError(w, httpx.ErrUnavailable)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"districts": districts})
}

func (h *Handler) listNeighborhoods(w http.ResponseWriter, r *http.Request) {
	districtID, err := strconv.ParseInt(chi.URLParam(r, "districtID"), 10, 64)
	if err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	neighborhoods, err := h.service.ListNeighborhoods(r.Context(), districtID, queryLimit(r))
	if err != nil {
		h.logger.Error("list neighborhoods", slog.Int64("district_id", districtID), slog.Any("error", err))
		httpx.RespondError(w, httpx.ErrUnavailable)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"neighborhoods": neighborhoods})
}

func queryLimit(r *http.Request) int {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	return limit
}
