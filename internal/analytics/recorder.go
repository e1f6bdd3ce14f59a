package analytics

import (
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ansshul10/Chatifyzone07/internal/store"
)

// Recorder persists per-user session statistics. It is best-effort: callers
// invoke it fire-and-forget on disconnect, and a failure here must never
// affect the presence transition.
type Recorder struct {
	store *store.Store
}

// NewRecorder creates a recorder backed by the given store.
func NewRecorder(st *store.Store) *Recorder {
	return &Recorder{store: st}
}

// RecordSession adds a completed session's duration to the user's running
// total, rounded down to whole minutes. Errors are logged, not returned.
func (r *Recorder) RecordSession(userID string, elapsed time.Duration) {
	minutes := int64(elapsed / time.Minute)
	if err := r.store.AddSessionTime(userID, minutes); err != nil {
		logrus.WithFields(logrus.Fields{
			"user_id": userID,
			"error":   err,
		}).Warn("failed to record session analytics")
		return
	}
	logrus.WithFields(logrus.Fields{
		"user_id": userID,
		"minutes": minutes,
	}).Debug("session analytics recorded")
}
