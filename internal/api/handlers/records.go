package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/felixgeelhaar/pokerlog/internal/api/middleware"
	"github.com/felixgeelhaar/pokerlog/internal/domain"
	"github.com/felixgeelhaar/pokerlog/internal/events"
	"github.com/felixgeelhaar/pokerlog/internal/tracker"
)

// RecordHandler serves the session and hand endpoints. Every query and
// delete is scoped to the authenticated user.
type RecordHandler struct {
	store     tracker.Store
	publisher events.Publisher
}

// NewRecordHandler creates a record handler. A nil publisher disables events.
func NewRecordHandler(store tracker.Store, publisher events.Publisher) *RecordHandler {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &RecordHandler{store: store, publisher: publisher}
}

// storeFailure maps a store error to a response
func storeFailure(w http.ResponseWriter, r *http.Request, what string, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidRecord):
		jsonError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		jsonError(w, http.StatusNotFound, what+" not found")
	default:
		slog.Error("record store failure",
			"record", what,
			"error", err,
			"request_id", middleware.GetRequestID(r.Context()),
		)
		jsonError(w, http.StatusInternalServerError, "failed to access "+what+"s")
	}
}
