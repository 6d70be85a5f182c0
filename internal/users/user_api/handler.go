package user_api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"ms-marketplace/internal/auth"
	"ms-marketplace/internal/errs"
	"ms-marketplace/internal/logger"
	"ms-marketplace/internal/models"
	"ms-marketplace/internal/users"
	"ms-marketplace/internal/utils"
)

type Handler struct {
	UserService *users.UserService
	Tokens      *auth.TokenService
	Logger      *logger.Logger
}

func NewHandler(service *users.UserService, tokens *auth.TokenService, log *logger.Logger) *Handler {
	return &Handler{UserService: service, Tokens: tokens, Logger: log}
}

// IssueToken mints a signed token for the given identity payload.
func (h *Handler) IssueToken(w http.ResponseWriter, r *http.Request) {
	var req models.TokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.Fail(w, errs.New(errs.InvalidState, "invalid request body"))
		return
	}
	if req.Email == "" {
		utils.Fail(w, errs.New(errs.InvalidState, "email is required"))
		return
	}

	token, err := h.Tokens.Issue(req.Email)
	if err != nil {
		h.Logger.Error("AUTH", fmt.Sprintf("Failed to issue token for %s: %v", req.Email, err))
		utils.Fail(w, errs.Wrap(errs.Internal, "failed to issue token", err))
		return
	}
	utils.Respond(w, http.StatusOK, "token issued", models.TokenResponse{Token: token})
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var user models.User
	if err := json.NewDecoder(r.Body).Decode(&user); err != nil {
		utils.Fail(w, errs.New(errs.InvalidState, "invalid request body"))
		return
	}

	created, err := h.UserService.Register(r.Context(), user)
	if err != nil {
		h.logFailure("register", err)
		utils.Fail(w, err)
		return
	}
	utils.Respond(w, http.StatusOK, "user registered", created)
}

func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	list, err := h.UserService.ListUsers(r.Context())
	if err != nil {
		h.logFailure("list users", err)
		utils.Fail(w, err)
		return
	}
	utils.Respond(w, http.StatusOK, "users", list)
}

func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	email := chi.URLParam(r, "email")
	user, err := h.UserService.GetUser(r.Context(), auth.CallerEmail(r.Context()), email)
	if err != nil {
		h.logFailure("get user", err)
		utils.Fail(w, err)
		return
	}
	utils.Respond(w, http.StatusOK, "user", user)
}

func (h *Handler) GetRole(w http.ResponseWriter, r *http.Request) {
	email := chi.URLParam(r, "email")
	role, err := h.UserService.GetRole(r.Context(), auth.CallerEmail(r.Context()), email)
	if err != nil {
		h.logFailure("get role", err)
		utils.Fail(w, err)
		return
	}
	utils.Respond(w, http.StatusOK, "role", map[string]string{"role": role})
}

func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	email := chi.URLParam(r, "email")
	var update models.UserProfileUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		utils.Fail(w, errs.New(errs.InvalidState, "invalid request body"))
		return
	}

	if err := h.UserService.UpdateProfile(r.Context(), auth.CallerEmail(r.Context()), email, update); err != nil {
		h.logFailure("update profile", err)
		utils.Fail(w, err)
		return
	}
	utils.Respond(w, http.StatusOK, "profile updated", nil)
}

func (h *Handler) SetRole(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req struct {
		Role string `json:"role"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.Fail(w, errs.New(errs.InvalidState, "invalid request body"))
		return
	}

	if err := h.UserService.SetRole(r.Context(), id, req.Role); err != nil {
		h.logFailure("set role", err)
		utils.Fail(w, err)
		return
	}
	utils.Respond(w, http.StatusOK, "role updated", nil)
}

func (h *Handler) FlagFraud(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	user, err := h.UserService.FlagFraud(r.Context(), id)
	if err != nil {
		h.logFailure("flag fraud", err)
		utils.Fail(w, err)
		return
	}
	utils.Respond(w, http.StatusOK, "vendor flagged", user)
}

func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.UserService.DeleteUser(r.Context(), id); err != nil {
		h.logFailure("delete user", err)
		utils.Fail(w, err)
		return
	}
	utils.Respond(w, http.StatusOK, "user deleted", nil)
}

func (h *Handler) logFailure(op string, err error) {
	e := errs.AsError(err)
	if e.Kind == errs.Internal {
		h.Logger.Error("USER", fmt.Sprintf("%s: %s", op, e.Internal))
	}
}
