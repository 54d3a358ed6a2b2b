// Package tracker records the identifiers of users created during a test and
// deletes them again, newest first, when the test finishes.
package tracker

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/phrazzld/users-qa/internal/metrics"
	"github.com/phrazzld/users-qa/internal/platform/logger"
)

// Deleter removes one remote user and reports the HTTP status it got back.
type Deleter interface {
	DeleteUser(ctx context.Context, id int) (status int, err error)
}

// DeleterFunc adapts a function to the Deleter interface.
type DeleterFunc func(ctx context.Context, id int) (int, error)

// DeleteUser calls f.
func (f DeleterFunc) DeleteUser(ctx context.Context, id int) (int, error) {
	return f(ctx, id)
}

// Summary describes one cleanup pass.
type Summary struct {
	Attempted int
	Failed    int
}

// Tracker holds the identifiers of created users in creation order.
// A Tracker belongs to a single test and is not safe for concurrent use.
type Tracker struct {
	deleter Deleter
	logger  *slog.Logger
	metrics *metrics.Metrics
	ids     []int
}

// New returns an empty tracker. logger and m may be nil.
func New(deleter Deleter, l *slog.Logger, m *metrics.Metrics) *Tracker {
	return &Tracker{
		deleter: deleter,
		logger:  logger.Component(l, "tracker"),
		metrics: m,
	}
}

// Track records id for cleanup. Repeated ids are recorded again.
func (t *Tracker) Track(id int) {
	t.ids = append(t.ids, id)
	t.metrics.Tracked()
	t.logger.Debug("tracking created resource", "id", id, "position", len(t.ids))
}

// IDs returns a copy of the tracked identifiers in creation order.
func (t *Tracker) IDs() []int {
	return append([]int(nil), t.ids...)
}

// Len returns the number of tracked identifiers.
func (t *Tracker) Len() int {
	return len(t.ids)
}

// IsClean reports whether a delete status leaves nothing behind. A missing
// resource counts as already removed.
func IsClean(status int) bool {
	switch status {
	case http.StatusOK, http.StatusAccepted, http.StatusNoContent, http.StatusNotFound:
		return true
	default:
		return false
	}
}

// CleanupAll deletes every tracked resource, last created first. Failures
// are logged as warnings and never returned. The tracked set is empty
// afterwards, so a second call issues no requests.
func (t *Tracker) CleanupAll(ctx context.Context) Summary {
	ids := t.ids
	t.ids = nil

	log := logger.FromContextOrDefault(ctx, t.logger)
	var s Summary
	for i := len(ids) - 1; i >= 0; i-- {
		id := ids[i]
		s.Attempted++

		status, err := t.deleter.DeleteUser(ctx, id)
		switch {
		case err != nil:
			s.Failed++
			t.metrics.CleanupFailed()
			log.Warn("failed to delete tracked resource", "id", id, "error", err)
		case !IsClean(status):
			s.Failed++
			t.metrics.CleanupFailed()
			log.Warn("failed to delete tracked resource", "id", id, "status", status)
		default:
			log.Debug("deleted tracked resource", "id", id, "status", status)
		}
	}

	if s.Attempted > 0 {
		log.Info("cleanup finished", "attempted", s.Attempted, "failed", s.Failed)
	}
	return s
}
