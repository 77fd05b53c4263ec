package messaging

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"traffic-worker-go/internal/models"
)

func TestViolationMessageShape(t *testing.T) {
	v := models.Violation{
		ID:            "3",
		Timestamp:     "2024-03-01 10:15:30",
		Speed:         61.5,
		Limit:         40,
		Lane:          "Lane 2",
		ViolationType: models.KindOverspeed,
	}
	now := time.Date(2024, 3, 1, 10, 15, 31, 0, time.FixedZone("IST", 19800))

	msg := newViolationMessage("worker-a", "cam-2", v, now)

	_, err := uuid.Parse(msg.EventID)
	require.NoError(t, err)
	assert.Equal(t, time.UTC, msg.PublishedAt.Location())

	data, err := json.Marshal(msg)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "worker-a", decoded["worker_id"])
	assert.Equal(t, "cam-2", decoded["camera_id"])

	inner, ok := decoded["violation"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Overspeed", inner["violation_type"])
	assert.NotContains(t, inner, "plate", "empty plate is omitted")
}

func TestNewViolationMessageUniqueIDs(t *testing.T) {
	a := newViolationMessage("w", "c", models.Violation{}, time.Now())
	b := newViolationMessage("w", "c", models.Violation{}, time.Now())
	assert.NotEqual(t, a.EventID, b.EventID)
}
