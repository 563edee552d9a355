package idrange

// Kind names an entity population owning a numeric identifier window.
type Kind string

// Populations shipped by default. New kinds only need a Configure call.
const (
	KindOperator Kind = "operator"
	KindMember   Kind = "member"
)

// Range is one named partition. Cursor is the next identifier to issue;
// min <= cursor <= max+1 holds at all times (cursor == max+1 means the
// window is spent).
type Range struct {
	Kind   Kind
	Min    int64
	Max    int64
	Cursor int64
}

// Capacity returns the total number of identifiers in the window.
func (r Range) Capacity() int64 {
	return r.Max - r.Min + 1
}

// Allocated returns how many identifiers have been issued so far.
func (r Range) Allocated() int64 {
	return r.Cursor - r.Min
}

// Overlaps reports whether two windows intersect.
func (r Range) Overlaps(other Range) bool {
	return r.Min <= other.Max && other.Min <= r.Max
}

// Usage is the read-only introspection result for one kind.
type Usage struct {
	Kind      Kind
	Allocated int64
	Capacity  int64
}
