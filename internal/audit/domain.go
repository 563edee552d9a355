package audit

import "time"

// Event is one immutable activity record. Once written it is never mutated
// or deleted through any code path in this repository.
type Event struct {
	ID          int64
	ActorID     *int64
	ActorName   string
	Action      string
	EntityType  string
	EntityID    *int64
	Description string
	SourceIP    string
	UserAgent   string
	CreatedAt   time.Time
}

// Filter narrows a timeline query. Zero values mean "no constraint".
type Filter struct {
	ActorID    *int64
	Action     string
	EntityType string
	EntityID   *int64
	From       time.Time
	To         time.Time
}

// QueryPage holds pagination input for timeline queries.
type QueryPage struct {
	Page     int
	PageSize int
}

// PagingInfo carries pagination metadata back to the caller.
type PagingInfo struct {
	Page     int
	PageSize int
	HasNext  bool
	PrevPage int
	NextPage int
}

// Result bundles a page of events with paging information. Events are
// ordered newest first: created_at descending, ties broken by descending id
// (id order reflects true write order), so a page boundary is stable even
// when many events share one timestamp.
type Result struct {
	Events []Event
	Paging PagingInfo
}

// Well-known actions recorded by the core itself.
const (
	ActionLoginSucceeded = "auth.login"
	ActionLoginFailed    = "auth.login_failed"
	ActionAuthzDenied    = "authz.denied"
)
