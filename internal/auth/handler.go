package auth

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/clubops/clubcore/internal/shared"
)

// Handler wires HTTP endpoints for authentication flows.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		logger:    logger,
		service:   service,
		validator: validator.New(),
	}
}

// MountRoutes registers auth routes on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/login", h.handleOperatorLogin)
	r.Post("/member-login", h.handleMemberLogin)
}

type loginRequest struct {
	Login    string `json:"login" validate:"required,min=3"`
	Password string `json:"password" validate:"required,min=8"`
}

type loginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	Principal principal `json:"principal"`
}

type principal struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Role string `json:"role"`
}

func (h *Handler) handleOperatorLogin(w http.ResponseWriter, r *http.Request) {
	h.handleLogin(w, r, RealmOperator)
}

func (h *Handler) handleMemberLogin(w http.ResponseWriter, r *http.Request) {
	h.handleLogin(w, r, RealmMember)
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request, realm Realm) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.RespondJSON(w, http.StatusBadRequest, shared.ErrorBody{Code: "BAD_REQUEST", Message: "malformed body"})
		return
	}
	if err := h.validator.Struct(req); err != nil {
		shared.RespondJSON(w, http.StatusBadRequest, shared.ErrorBody{Code: "BAD_REQUEST", Message: "login and password required"})
		return
	}

	result, err := h.service.Login(r.Context(), realm, req.Login, req.Password)
	if err != nil {
		shared.RespondError(w, err)
		return
	}

	shared.RespondJSON(w, http.StatusOK, loginResponse{
		Token:     result.Token,
		ExpiresAt: result.ExpiresAt,
		Principal: principal{
			ID:   result.Account.ID,
			Name: result.Account.DisplayName,
			Role: string(result.Account.Role),
		},
	})
}
