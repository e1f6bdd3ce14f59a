package analytics

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ansshul10/Chatifyzone07/internal/store"
)

func TestRecordSessionAccumulatesMinutes(t *testing.T) {
	st, err := store.Open(filepath.Join(t.TempDir(), "chat.db"))
	require.NoError(t, err)
	defer st.Close()

	rec := NewRecorder(st)
	rec.RecordSession("alice", 3*time.Minute+40*time.Second)
	rec.RecordSession("alice", 90*time.Second)

	ua, err := st.GetAnalytics("alice")
	require.NoError(t, err)
	require.NotNil(t, ua)
	// Durations round down to whole minutes: 3 + 1.
	assert.Equal(t, int64(4), ua.TotalTimeSpent)
}
