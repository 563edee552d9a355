package idrange

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/clubops/clubcore/internal/shared"
)

// Handler exposes read-only allocator introspection. Routes are mounted
// behind the allocate_identifier capability; allocation itself is never
// externally invokable.
type Handler struct {
	logger    *slog.Logger
	allocator *Allocator
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, allocator *Allocator) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, allocator: allocator}
}

// MountRoutes registers range routes on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/{kind}", h.handleUsage)
}

type usageResponse struct {
	Kind      string `json:"kind"`
	Allocated int64  `json:"allocated"`
	Capacity  int64  `json:"capacity"`
}

func (h *Handler) handleUsage(w http.ResponseWriter, r *http.Request) {
	kind := Kind(chi.URLParam(r, "kind"))
	usage, err := h.allocator.Usage(r.Context(), kind)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			shared.RespondError(w, shared.ErrNotFound)
			return
		}
		h.logger.Error("range usage", slog.String("kind", string(kind)), slog.Any("error", err))
		shared.RespondError(w, err)
		return
	}
	shared.RespondJSON(w, http.StatusOK, usageResponse{
		Kind:      string(usage.Kind),
		Allocated: usage.Allocated,
		Capacity:  usage.Capacity,
	})
}
