package stats_api

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"ms-marketplace/internal/auth"
	"ms-marketplace/internal/errs"
	"ms-marketplace/internal/logger"
	"ms-marketplace/internal/stats"
	"ms-marketplace/internal/utils"
)

type Handler struct {
	StatsService *stats.Service
	Logger       *logger.Logger
}

func NewHandler(service *stats.Service, log *logger.Logger) *Handler {
	return &Handler{StatsService: service, Logger: log}
}

func (h *Handler) PublicStats(w http.ResponseWriter, r *http.Request) {
	s, err := h.StatsService.GetPublicStats(r.Context())
	if err != nil {
		h.logFailure("public stats", err)
		utils.Fail(w, err)
		return
	}
	utils.Respond(w, http.StatusOK, "public stats", s)
}

func (h *Handler) AdminStats(w http.ResponseWriter, r *http.Request) {
	s, err := h.StatsService.GetAdminStats(r.Context())
	if err != nil {
		h.logFailure("admin stats", err)
		utils.Fail(w, err)
		return
	}
	utils.Respond(w, http.StatusOK, "admin stats", s)
}

func (h *Handler) VendorStats(w http.ResponseWriter, r *http.Request) {
	email := chi.URLParam(r, "email")
	if auth.CallerEmail(r.Context()) != email {
		utils.Fail(w, errs.New(errs.Forbidden, "forbidden"))
		return
	}

	s, err := h.StatsService.GetVendorStats(r.Context(), email)
	if err != nil {
		h.logFailure("vendor stats", err)
		utils.Fail(w, err)
		return
	}
	utils.Respond(w, http.StatusOK, "vendor stats", s)
}

func (h *Handler) UserStats(w http.ResponseWriter, r *http.Request) {
	email := chi.URLParam(r, "email")
	if auth.CallerEmail(r.Context()) != email {
		utils.Fail(w, errs.New(errs.Forbidden, "forbidden"))
		return
	}

	s, err := h.StatsService.GetUserStats(r.Context(), email)
	if err != nil {
		h.logFailure("user stats", err)
		utils.Fail(w, err)
		return
	}
	utils.Respond(w, http.StatusOK, "user stats", s)
}

func (h *Handler) Locations(w http.ResponseWriter, r *http.Request) {
	locations, err := h.StatsService.GetLocations(r.Context())
	if err != nil {
		h.logFailure("locations", err)
		utils.Fail(w, err)
		return
	}
	utils.Respond(w, http.StatusOK, "locations", locations)
}

func (h *Handler) logFailure(op string, err error) {
	e := errs.AsError(err)
	if e.Kind == errs.Internal {
		h.Logger.Error("STATS", fmt.Sprintf("%s: %s", op, e.Internal))
	}
}
