package audithttp

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/clubops/clubcore/internal/audit"
	"github.com/clubops/clubcore/internal/auth"
	"github.com/clubops/clubcore/internal/authz"
	"github.com/clubops/clubcore/internal/shared"
)

// TimelineService answers gated timeline queries.
type TimelineService interface {
	Query(ctx context.Context, actor authz.Actor, filter audit.Filter, page audit.QueryPage) (audit.Result, error)
	Export(ctx context.Context, actor authz.Actor, filter audit.Filter) ([]audit.Event, error)
}

// Fresher reloads the actor before a sensitive read.
type Fresher interface {
	FreshAccount(ctx context.Context, principalID int64) (*auth.Account, error)
}

// Handler serves the audit timeline API.
type Handler struct {
	logger  *slog.Logger
	service TimelineService
	fresher Fresher
}

// NewHandler constructs an audit handler.
func NewHandler(logger *slog.Logger, service TimelineService, fresher Fresher) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service, fresher: fresher}
}

// MountRoutes registers audit routes on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/events", h.handleQuery)
	r.Get("/events/export", h.handleExport)
}

type eventResponse struct {
	ID          int64     `json:"id"`
	ActorID     *int64    `json:"actor_id"`
	ActorName   string    `json:"actor_name"`
	Action      string    `json:"action"`
	EntityType  string    `json:"entity_type"`
	EntityID    *int64    `json:"entity_id"`
	Description string    `json:"description"`
	SourceIP    string    `json:"source_ip"`
	UserAgent   string    `json:"user_agent"`
	CreatedAt   time.Time `json:"created_at"`
}

type queryResponse struct {
	Events []eventResponse  `json:"events"`
	Paging audit.PagingInfo `json:"paging"`
}

func (h *Handler) handleQuery(w http.ResponseWriter, r *http.Request) {
	actor, err := h.freshActor(r)
	if err != nil {
		shared.RespondError(w, err)
		return
	}
	filter, page, err := parseQuery(r)
	if err != nil {
		shared.RespondJSON(w, http.StatusBadRequest, shared.ErrorBody{Code: "BAD_REQUEST", Message: err.Error()})
		return
	}
	result, err := h.service.Query(r.Context(), actor, filter, page)
	if err != nil {
		shared.RespondError(w, err)
		return
	}
	events := make([]eventResponse, 0, len(result.Events))
	for _, event := range result.Events {
		events = append(events, eventResponse(event))
	}
	shared.RespondJSON(w, http.StatusOK, queryResponse{Events: events, Paging: result.Paging})
}

func (h *Handler) handleExport(w http.ResponseWriter, r *http.Request) {
	actor, err := h.freshActor(r)
	if err != nil {
		shared.RespondError(w, err)
		return
	}
	filter, _, err := parseQuery(r)
	if err != nil {
		shared.RespondJSON(w, http.StatusBadRequest, shared.ErrorBody{Code: "BAD_REQUEST", Message: err.Error()})
		return
	}
	events, err := h.service.Export(r.Context(), actor, filter)
	if err != nil {
		shared.RespondError(w, err)
		return
	}
	data, err := audit.WriteCSV(events)
	if err != nil {
		h.logger.Error("render audit export", slog.Any("error", err))
		shared.RespondError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="audit-events.csv"`)
	_, _ = w.Write(data)
}

// freshActor re-verifies the token's principal against storage. read_audit_log
// is sensitive enough that a stale active flag must not pass.
func (h *Handler) freshActor(r *http.Request) (authz.Actor, error) {
	actor := auth.ActorFromContext(r.Context())
	if h.fresher != nil {
		if _, err := h.fresher.FreshAccount(r.Context(), actor.ID); err != nil {
			return authz.Actor{}, err
		}
	}
	return actor, nil
}

func parseQuery(r *http.Request) (audit.Filter, audit.QueryPage, error) {
	q := r.URL.Query()
	var filter audit.Filter
	if raw := q.Get("actor_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return filter, audit.QueryPage{}, err
		}
		filter.ActorID = &id
	}
	if raw := q.Get("entity_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return filter, audit.QueryPage{}, err
		}
		filter.EntityID = &id
	}
	filter.Action = q.Get("action")
	filter.EntityType = q.Get("entity_type")
	if raw := q.Get("from"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return filter, audit.QueryPage{}, err
		}
		filter.From = t
	}
	if raw := q.Get("to"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return filter, audit.QueryPage{}, err
		}
		filter.To = t
	}
	var page audit.QueryPage
	page.Page, _ = strconv.Atoi(q.Get("page"))
	page.PageSize, _ = strconv.Atoi(q.Get("page_size"))
	return filter, page, nil
}
