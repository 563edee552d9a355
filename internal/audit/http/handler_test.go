package audithttp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/clubops/clubcore/internal/audit"
	"github.com/clubops/clubcore/internal/auth"
	"github.com/clubops/clubcore/internal/authz"
	"github.com/clubops/clubcore/internal/shared"
)

type stubService struct {
	result    audit.Result
	lastPage  audit.QueryPage
	lastActor authz.Actor
	err       error
}

func (s *stubService) Query(ctx context.Context, actor authz.Actor, filter audit.Filter, page audit.QueryPage) (audit.Result, error) {
	s.lastActor = actor
	s.lastPage = page
	return s.result, s.err
}

func (s *stubService) Export(ctx context.Context, actor authz.Actor, filter audit.Filter) ([]audit.Event, error) {
	s.lastActor = actor
	return s.result.Events, s.err
}

type activeFresher struct{}

func (activeFresher) FreshAccount(ctx context.Context, principalID int64) (*auth.Account, error) {
	return &auth.Account{ID: principalID, IsActive: true}, nil
}

type goneFresher struct{}

func (goneFresher) FreshAccount(ctx context.Context, principalID int64) (*auth.Account, error) {
	return nil, shared.ErrUnauthenticated
}

func mountHandler(svc TimelineService, fresher Fresher) chi.Router {
	r := chi.NewRouter()
	NewHandler(nil, svc, fresher).MountRoutes(r)
	return r
}

func TestHandleQuery(t *testing.T) {
	actorID := int64(7)
	svc := &stubService{result: audit.Result{
		Events: []audit.Event{{
			ID:          3,
			ActorID:     &actorID,
			ActorName:   "Root",
			Action:      "principal.created",
			Description: "created operator kim with role chef",
			CreatedAt:   time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		}},
		Paging: audit.PagingInfo{Page: 2, PageSize: 10, HasNext: true, PrevPage: 1, NextPage: 3},
	}}
	router := mountHandler(svc, activeFresher{})

	req := httptest.NewRequest(http.MethodGet, "/events?page=2&page_size=10&action=principal.created", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if svc.lastPage.Page != 2 || svc.lastPage.PageSize != 10 {
		t.Fatalf("paging not forwarded: %+v", svc.lastPage)
	}

	var resp struct {
		Events []struct {
			ID      int64  `json:"id"`
			ActorID *int64 `json:"actor_id"`
			Action  string `json:"action"`
		} `json:"events"`
		Paging audit.PagingInfo `json:"paging"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Events) != 1 || resp.Events[0].ID != 3 || *resp.Events[0].ActorID != 7 {
		t.Fatalf("unexpected events payload: %+v", resp.Events)
	}
	if !resp.Paging.HasNext || resp.Paging.NextPage != 3 {
		t.Fatalf("unexpected paging payload: %+v", resp.Paging)
	}
}

func TestHandleQueryForbidden(t *testing.T) {
	svc := &stubService{err: shared.ErrForbidden}
	router := mountHandler(svc, activeFresher{})

	req := httptest.NewRequest(http.MethodGet, "/events", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
}

func TestHandleQueryBadFilter(t *testing.T) {
	router := mountHandler(&stubService{}, activeFresher{})

	for _, target := range []string{
		"/events?actor_id=abc",
		"/events?from=yesterday",
	} {
		req := httptest.NewRequest(http.MethodGet, target, nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", target, rec.Code)
		}
	}
}

func TestHandleQueryStaleActorRejected(t *testing.T) {
	router := mountHandler(&stubService{}, goneFresher{})

	req := httptest.NewRequest(http.MethodGet, "/events", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestHandleExport(t *testing.T) {
	svc := &stubService{result: audit.Result{
		Events: []audit.Event{{
			ID:          1,
			Action:      audit.ActionLoginFailed,
			Description: "failed login (unknown login) for ghost in realm operator",
			CreatedAt:   time.Date(2025, 6, 1, 11, 0, 0, 0, time.UTC),
		}},
	}}
	router := mountHandler(svc, activeFresher{})

	req := httptest.NewRequest(http.MethodGet, "/events/export", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "text/csv" {
		t.Fatalf("expected text/csv, got %q", ct)
	}
	if cd := rec.Header().Get("Content-Disposition"); cd == "" {
		t.Fatal("expected a download disposition")
	}
}
