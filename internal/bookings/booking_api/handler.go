package booking_api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"ms-marketplace/internal/auth"
	"ms-marketplace/internal/bookings"
	"ms-marketplace/internal/errs"
	"ms-marketplace/internal/logger"
	"ms-marketplace/internal/models"
	"ms-marketplace/internal/utils"
)

type Handler struct {
	BookingService *bookings.BookingService
	Logger         *logger.Logger
}

func NewHandler(service *bookings.BookingService, log *logger.Logger) *Handler {
	return &Handler{BookingService: service, Logger: log}
}

func (h *Handler) CreateBooking(w http.ResponseWriter, r *http.Request) {
	var req models.BookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.Fail(w, errs.New(errs.InvalidState, "invalid request body"))
		return
	}

	booking, err := h.BookingService.Create(r.Context(), auth.CallerEmail(r.Context()), req)
	if err != nil {
		h.logFailure("create booking", err)
		utils.Fail(w, err)
		return
	}
	utils.Respond(w, http.StatusCreated, "booking created", booking)
}

func (h *Handler) UserBookings(w http.ResponseWriter, r *http.Request) {
	email := chi.URLParam(r, "email")
	list, err := h.BookingService.ListForUser(r.Context(), auth.CallerEmail(r.Context()), email)
	if err != nil {
		h.logFailure("user bookings", err)
		utils.Fail(w, err)
		return
	}
	utils.Respond(w, http.StatusOK, "bookings", list)
}

func (h *Handler) VendorBookings(w http.ResponseWriter, r *http.Request) {
	email := chi.URLParam(r, "email")
	list, err := h.BookingService.ListForVendor(r.Context(), auth.CallerEmail(r.Context()), email)
	if err != nil {
		h.logFailure("vendor bookings", err)
		utils.Fail(w, err)
		return
	}
	utils.Respond(w, http.StatusOK, "bookings", list)
}

func (h *Handler) AcceptBooking(w http.ResponseWriter, r *http.Request) {
	booking, err := h.BookingService.Accept(r.Context(), auth.CallerEmail(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		h.logFailure("accept booking", err)
		utils.Fail(w, err)
		return
	}
	utils.Respond(w, http.StatusOK, "booking accepted", booking)
}

func (h *Handler) RejectBooking(w http.ResponseWriter, r *http.Request) {
	booking, err := h.BookingService.Reject(r.Context(), auth.CallerEmail(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		h.logFailure("reject booking", err)
		utils.Fail(w, err)
		return
	}
	utils.Respond(w, http.StatusOK, "booking rejected", booking)
}

func (h *Handler) CancelBooking(w http.ResponseWriter, r *http.Request) {
	booking, err := h.BookingService.Cancel(r.Context(), auth.CallerEmail(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		h.logFailure("cancel booking", err)
		utils.Fail(w, err)
		return
	}
	utils.Respond(w, http.StatusOK, "booking cancelled", booking)
}

// BookingQR streams the PNG QR code for a paid booking.
func (h *Handler) BookingQR(w http.ResponseWriter, r *http.Request) {
	png, err := h.BookingService.QRCode(r.Context(), auth.CallerEmail(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		h.logFailure("booking qr", err)
		utils.Fail(w, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	w.Write(png)
}

func (h *Handler) logFailure(op string, err error) {
	e := errs.AsError(err)
	if e.Kind == errs.Internal {
		h.Logger.Error("BOOKING", fmt.Sprintf("%s: %s", op, e.Internal))
	}
}
