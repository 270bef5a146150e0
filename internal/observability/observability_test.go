package observability

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmitRecordsHistoryEvenWithoutDebug(t *testing.T) {
	h := NewHub()
	h.Emit(false, "req-1", "plan", map[string]string{"task": "list"})
	recent := h.Recent()
	require.Len(t, recent, 1)
	assert.Equal(t, "plan", recent[0].Stage)
	assert.Equal(t, "req-1", recent[0].RequestID)
}

func TestRecentCapsAtMaxRecentEvents(t *testing.T) {
	h := NewHub()
	for i := 0; i < MaxRecentEvents+10; i++ {
		h.Emit(false, "req", "stage", nil)
	}
	assert.Len(t, h.Recent(), MaxRecentEvents)
}

func TestBuildEventPayloadEncodesAllFields(t *testing.T) {
	ev := StageEvent{ID: "e1", RequestID: "r1", Stage: "guard", Data: "SELECT 1", Timestamp: 42}
	payload, err := buildEventPayload(ev)
	require.NoError(t, err)
	assert.Contains(t, string(payload), `"id":"e1"`)
	assert.Contains(t, string(payload), `"stage":"guard"`)
	assert.Contains(t, string(payload), `"data":"SELECT 1"`)
	assert.Contains(t, string(payload), `"timestamp":42`)
}
