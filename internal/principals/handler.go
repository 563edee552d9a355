package principals

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/clubops/clubcore/internal/auth"
	"github.com/clubops/clubcore/internal/authz"
	"github.com/clubops/clubcore/internal/shared"
)

// Handler wires HTTP endpoints for principal management.
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
	return &Handler{logger: logger, service: service, validator: validator.New()}
}

// MountRoutes registers principal routes on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.handleList)
	r.Post("/operators", h.handleCreateOperator)
	r.Post("/members", h.handleCreateMember)
	r.Get("/{id}", h.handleGet)
	r.Post("/{id}/deactivate", h.handleDeactivate)
	r.Post("/{id}/role", h.handleChangeRole)
}

type principalResponse struct {
	ID          int64     `json:"id"`
	Realm       string    `json:"realm"`
	Login       string    `json:"login"`
	DisplayName string    `json:"display_name"`
	Role        string    `json:"role"`
	MemberKind  string    `json:"member_kind,omitempty"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
}

func toResponse(p Principal) principalResponse {
	return principalResponse{
		ID:          p.ID,
		Realm:       string(p.Realm),
		Login:       p.Login,
		DisplayName: p.DisplayName,
		Role:        string(p.Role),
		MemberKind:  string(p.MemberKind),
		IsActive:    p.IsActive,
		CreatedAt:   p.CreatedAt,
	}
}

type createOperatorRequest struct {
	Login       string `json:"login" validate:"required,min=3"`
	DisplayName string `json:"display_name" validate:"required"`
	Password    string `json:"password" validate:"required,min=8"`
	Role        string `json:"role" validate:"required,oneof=super_admin admin chef"`
}

func (h *Handler) handleCreateOperator(w http.ResponseWriter, r *http.Request) {
	var req createOperatorRequest
	if !h.decode(w, r, &req) {
		return
	}
	p, err := h.service.CreateOperator(r.Context(), auth.ActorFromContext(r.Context()), CreateOperatorInput{
		Login:       req.Login,
		DisplayName: req.DisplayName,
		Password:    req.Password,
		Role:        authz.Role(req.Role),
	})
	if err != nil {
		h.respondError(w, err)
		return
	}
	shared.RespondJSON(w, http.StatusCreated, toResponse(p))
}

type createMemberRequest struct {
	Login       string `json:"login" validate:"required,min=3"`
	DisplayName string `json:"display_name" validate:"required"`
	Password    string `json:"password" validate:"required,min=8"`
	Kind        string `json:"kind" validate:"required,oneof=athlete coach"`
}

func (h *Handler) handleCreateMember(w http.ResponseWriter, r *http.Request) {
	var req createMemberRequest
	if !h.decode(w, r, &req) {
		return
	}
	p, err := h.service.CreateMember(r.Context(), auth.ActorFromContext(r.Context()), CreateMemberInput{
		Login:       req.Login,
		DisplayName: req.DisplayName,
		Password:    req.Password,
		Kind:        MemberKind(req.Kind),
	})
	if err != nil {
		h.respondError(w, err)
		return
	}
	shared.RespondJSON(w, http.StatusCreated, toResponse(p))
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.List(r.Context(), auth.ActorFromContext(r.Context()))
	if err != nil {
		h.respondError(w, err)
		return
	}
	out := make([]principalResponse, 0, len(list))
	for _, p := range list {
		out = append(out, toResponse(p))
	}
	shared.RespondJSON(w, http.StatusOK, out)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	p, err := h.service.Get(r.Context(), auth.ActorFromContext(r.Context()), id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	shared.RespondJSON(w, http.StatusOK, toResponse(p))
}

func (h *Handler) handleDeactivate(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	if err := h.service.Deactivate(r.Context(), auth.ActorFromContext(r.Context()), id); err != nil {
		h.respondError(w, err)
		return
	}
	shared.RespondJSON(w, http.StatusNoContent, nil)
}

type changeRoleRequest struct {
	Role string `json:"role" validate:"required,oneof=super_admin admin chef"`
}

func (h *Handler) handleChangeRole(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	var req changeRoleRequest
	if !h.decode(w, r, &req) {
		return
	}
	if err := h.service.ChangeRole(r.Context(), auth.ActorFromContext(r.Context()), id, authz.Role(req.Role)); err != nil {
		h.respondError(w, err)
		return
	}
	shared.RespondJSON(w, http.StatusNoContent, nil)
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		shared.RespondJSON(w, http.StatusBadRequest, shared.ErrorBody{Code: "BAD_REQUEST", Message: "malformed body"})
		return false
	}
	if err := h.validator.Struct(v); err != nil {
		shared.RespondJSON(w, http.StatusBadRequest, shared.ErrorBody{Code: "BAD_REQUEST", Message: err.Error()})
		return false
	}
	return true
}

func (h *Handler) pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		shared.RespondJSON(w, http.StatusBadRequest, shared.ErrorBody{Code: "BAD_REQUEST", Message: "invalid id"})
		return 0, false
	}
	return id, true
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	if errors.Is(err, ErrInvalidInput) {
		shared.RespondJSON(w, http.StatusBadRequest, shared.ErrorBody{Code: "BAD_REQUEST", Message: "invalid input"})
		return
	}
	shared.RespondError(w, err)
}
