package payment_api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"ms-marketplace/internal/auth"
	"ms-marketplace/internal/errs"
	"ms-marketplace/internal/logger"
	"ms-marketplace/internal/models"
	"ms-marketplace/internal/payments"
	"ms-marketplace/internal/utils"
)

type Handler struct {
	PaymentService *payments.PaymentService
	Logger         *logger.Logger
}

func NewHandler(service *payments.PaymentService, log *logger.Logger) *Handler {
	return &Handler{PaymentService: service, Logger: log}
}

func (h *Handler) CreatePaymentIntent(w http.ResponseWriter, r *http.Request) {
	var req models.PaymentIntentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.Fail(w, errs.New(errs.InvalidState, "invalid request body"))
		return
	}

	resp, err := h.PaymentService.CreateIntent(r.Context(), req)
	if err != nil {
		h.logFailure("create payment intent", err)
		utils.Fail(w, err)
		return
	}
	utils.Respond(w, http.StatusOK, "payment intent created", resp)
}

func (h *Handler) RecordPayment(w http.ResponseWriter, r *http.Request) {
	var req models.PaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.Fail(w, errs.New(errs.InvalidState, "invalid request body"))
		return
	}

	payment, err := h.PaymentService.Record(r.Context(), auth.CallerEmail(r.Context()), req)
	if err != nil {
		h.logFailure("record payment", err)
		utils.Fail(w, err)
		return
	}
	utils.Respond(w, http.StatusCreated, "payment recorded", payment)
}

func (h *Handler) UserPayments(w http.ResponseWriter, r *http.Request) {
	email := chi.URLParam(r, "email")
	list, err := h.PaymentService.ListForUser(r.Context(), auth.CallerEmail(r.Context()), email)
	if err != nil {
		h.logFailure("user payments", err)
		utils.Fail(w, err)
		return
	}
	utils.Respond(w, http.StatusOK, "payments", list)
}

func (h *Handler) AdminPayments(w http.ResponseWriter, r *http.Request) {
	list, err := h.PaymentService.ListAll(r.Context())
	if err != nil {
		h.logFailure("admin payments", err)
		utils.Fail(w, err)
		return
	}
	utils.Respond(w, http.StatusOK, "payments", list)
}

func (h *Handler) logFailure(op string, err error) {
	e := errs.AsError(err)
	if e.Kind == errs.Internal {
		h.Logger.Error("PAYMENT", fmt.Sprintf("%s: %s", op, e.Internal))
	}
}
