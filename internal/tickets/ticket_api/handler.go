package ticket_api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"ms-marketplace/internal/auth"
	"ms-marketplace/internal/errs"
	"ms-marketplace/internal/logger"
	"ms-marketplace/internal/models"
	"ms-marketplace/internal/tickets"
	"ms-marketplace/internal/utils"
)

type Handler struct {
	TicketService *tickets.TicketService
	Logger        *logger.Logger
}

func NewHandler(service *tickets.TicketService, log *logger.Logger) *Handler {
	return &Handler{TicketService: service, Logger: log}
}

func (h *Handler) CreateTicket(w http.ResponseWriter, r *http.Request) {
	var ticket models.Ticket
	if err := json.NewDecoder(r.Body).Decode(&ticket); err != nil {
		utils.Fail(w, errs.New(errs.InvalidState, "invalid request body"))
		return
	}

	created, err := h.TicketService.Create(r.Context(), auth.CallerEmail(r.Context()), ticket)
	if err != nil {
		h.logFailure("create ticket", err)
		utils.Fail(w, err)
		return
	}
	utils.Respond(w, http.StatusCreated, "ticket created", created)
}

// SearchTickets is the public catalog endpoint.
func (h *Handler) SearchTickets(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	search := models.TicketSearch{
		From:          q.Get("from"),
		To:            q.Get("to"),
		Search:        q.Get("search"),
		TransportType: q.Get("type"),
		Sort:          q.Get("sort"),
		Page:          intParam(q.Get("page"), 0),
		Limit:         intParam(q.Get("limit"), 0),
	}

	page, err := h.TicketService.Search(r.Context(), search)
	if err != nil {
		h.logFailure("search tickets", err)
		utils.Fail(w, err)
		return
	}
	utils.Respond(w, http.StatusOK, "tickets", page)
}

func (h *Handler) AdvertisedTickets(w http.ResponseWriter, r *http.Request) {
	list, err := h.TicketService.Advertised(r.Context())
	if err != nil {
		h.logFailure("advertised tickets", err)
		utils.Fail(w, err)
		return
	}
	utils.Respond(w, http.StatusOK, "advertised tickets", list)
}

func (h *Handler) LatestTickets(w http.ResponseWriter, r *http.Request) {
	limit := intParam(r.URL.Query().Get("limit"), 0)
	list, err := h.TicketService.Latest(r.Context(), limit)
	if err != nil {
		h.logFailure("latest tickets", err)
		utils.Fail(w, err)
		return
	}
	utils.Respond(w, http.StatusOK, "latest tickets", list)
}

func (h *Handler) GetTicket(w http.ResponseWriter, r *http.Request) {
	ticket, err := h.TicketService.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.logFailure("get ticket", err)
		utils.Fail(w, err)
		return
	}
	utils.Respond(w, http.StatusOK, "ticket", ticket)
}

func (h *Handler) VendorTickets(w http.ResponseWriter, r *http.Request) {
	email := chi.URLParam(r, "email")
	list, err := h.TicketService.VendorCatalog(r.Context(), auth.CallerEmail(r.Context()), email)
	if err != nil {
		h.logFailure("vendor tickets", err)
		utils.Fail(w, err)
		return
	}
	utils.Respond(w, http.StatusOK, "vendor tickets", list)
}

func (h *Handler) UpdateTicket(w http.ResponseWriter, r *http.Request) {
	var update models.TicketUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		utils.Fail(w, errs.New(errs.InvalidState, "invalid request body"))
		return
	}

	ticket, err := h.TicketService.Update(r.Context(), auth.CallerEmail(r.Context()), chi.URLParam(r, "id"), update)
	if err != nil {
		h.logFailure("update ticket", err)
		utils.Fail(w, err)
		return
	}
	utils.Respond(w, http.StatusOK, "ticket updated", ticket)
}

func (h *Handler) DeleteTicket(w http.ResponseWriter, r *http.Request) {
	err := h.TicketService.Delete(r.Context(), auth.CallerEmail(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		h.logFailure("delete ticket", err)
		utils.Fail(w, err)
		return
	}
	utils.Respond(w, http.StatusOK, "ticket deleted", nil)
}

// --- admin moderation ---

func (h *Handler) AdminListTickets(w http.ResponseWriter, r *http.Request) {
	list, err := h.TicketService.ListAll(r.Context())
	if err != nil {
		h.logFailure("admin list tickets", err)
		utils.Fail(w, err)
		return
	}
	utils.Respond(w, http.StatusOK, "tickets", list)
}

func (h *Handler) SetStatus(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.Fail(w, errs.New(errs.InvalidState, "invalid request body"))
		return
	}

	ticket, err := h.TicketService.Moderate(r.Context(), chi.URLParam(r, "id"), req.Status)
	if err != nil {
		h.logFailure("moderate ticket", err)
		utils.Fail(w, err)
		return
	}
	utils.Respond(w, http.StatusOK, "status updated", ticket)
}

func (h *Handler) SetAdvertised(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Advertised bool `json:"advertised"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.Fail(w, errs.New(errs.InvalidState, "invalid request body"))
		return
	}

	if err := h.TicketService.SetAdvertised(r.Context(), chi.URLParam(r, "id"), req.Advertised); err != nil {
		h.logFailure("advertise ticket", err)
		utils.Fail(w, err)
		return
	}
	utils.Respond(w, http.StatusOK, "advertise flag updated", nil)
}

func (h *Handler) AdminDeleteTicket(w http.ResponseWriter, r *http.Request) {
	if err := h.TicketService.AdminDelete(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.logFailure("admin delete ticket", err)
		utils.Fail(w, err)
		return
	}
	utils.Respond(w, http.StatusOK, "ticket deleted", nil)
}

func (h *Handler) logFailure(op string, err error) {
	e := errs.AsError(err)
	if e.Kind == errs.Internal {
		h.Logger.Error("TICKET", fmt.Sprintf("%s: %s", op, e.Internal))
	}
}

func intParam(raw string, fallback int) int {
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}
