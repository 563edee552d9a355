package audit

import (
	"context"
	"fmt"

	"github.com/clubops/clubcore/internal/authz"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// Authorizer gates read access to the timeline.
type Authorizer interface {
	Authorize(ctx context.Context, req authz.Request) error
}

// Service answers timeline queries. Every read is gated by the
// read_audit_log capability: a caller lacking it receives ErrForbidden,
// never a silently empty page.
type Service struct {
	store  Store
	engine Authorizer
}

// NewService constructs a query service.
func NewService(store Store, engine Authorizer) *Service {
	return &Service{store: store, engine: engine}
}

// Query returns one page of events matching the filter.
func (s *Service) Query(ctx context.Context, actor authz.Actor, filter Filter, page QueryPage) (Result, error) {
	if s.store == nil {
		return Result{}, fmt.Errorf("audit: store not configured")
	}
	if err := s.engine.Authorize(ctx, authz.Request{Actor: actor, Capability: authz.CapReadAuditLog}); err != nil {
		return Result{}, err
	}
	pageSize := page.PageSize
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	pageNo := page.Page
	if pageNo <= 0 {
		pageNo = 1
	}
	offset := (pageNo - 1) * pageSize
	rows, err := s.store.Window(ctx, filter, pageSize+1, offset)
	if err != nil {
		return Result{}, err
	}
	hasNext := len(rows) > pageSize
	if hasNext {
		rows = rows[:pageSize]
	}
	paging := PagingInfo{Page: pageNo, PageSize: pageSize, HasNext: hasNext}
	if pageNo > 1 {
		paging.PrevPage = pageNo - 1
	}
	if hasNext {
		paging.NextPage = pageNo + 1
	}
	return Result{Events: rows, Paging: paging}, nil
}

// Export returns every event matching the filter, without paging.
func (s *Service) Export(ctx context.Context, actor authz.Actor, filter Filter) ([]Event, error) {
	if s.store == nil {
		return nil, fmt.Errorf("audit: store not configured")
	}
	if err := s.engine.Authorize(ctx, authz.Request{Actor: actor, Capability: authz.CapReadAuditLog}); err != nil {
		return nil, err
	}
	return s.store.All(ctx, filter)
}
