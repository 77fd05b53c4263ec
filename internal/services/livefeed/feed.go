package livefeed

import (
	"encoding/json"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"traffic-worker-go/internal/models"
)

// MaxRecent is the size of the recent-violations list.
const MaxRecent = 10

// Message is the websocket envelope sent to live feed viewers.
type Message struct {
	Type      string            `json:"type"`
	CameraID  string            `json:"camera_id,omitempty"`
	Violation *models.Violation `json:"violation,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
}

const (
	MessageViolation = "violation"
	MessageReset     = "reset"
)

// Feed keeps the dashboard stats and pushes confirmed violations to the hub.
type Feed struct {
	hub *Hub
	now func() time.Time

	mu            sync.RWMutex
	recent        []models.RecentViolation
	totalVehicles int64
	avgSpeed      float64
}

func NewFeed(hub *Hub) *Feed {
	return &Feed{
		hub:    hub,
		now:    time.Now,
		recent: make([]models.RecentViolation, 0, MaxRecent),
	}
}

// NotifyViolation adds the record to the recent list and broadcasts it.
func (f *Feed) NotifyViolation(cameraID string, v models.Violation) {
	entry := models.RecentViolation{
		Time:  f.now().Format("15:04:05"),
		ID:    v.Plate,
		Speed: math.Round(v.Speed*10) / 10,
		Lane:  fmt.Sprintf("%s (%s)", v.Lane, v.ViolationType),
	}
	if entry.ID == "" {
		entry.ID = v.ID
	}
	f.addRecent(entry)

	rec := v
	f.send(Message{Type: MessageViolation, CameraID: cameraID, Violation: &rec})
}

func (f *Feed) addRecent(entry models.RecentViolation) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, r := range f.recent {
		if r.ID == entry.ID && r.Lane == entry.Lane {
			return
		}
	}
	f.recent = append([]models.RecentViolation{entry}, f.recent...)
	if len(f.recent) > MaxRecent {
		f.recent = f.recent[:MaxRecent]
	}
}

// ObserveFrame folds one analyzed frame into the stats. newVehicles counts
// tracks seen for the first time; frameAvg <= 0 leaves the average alone.
func (f *Feed) ObserveFrame(newVehicles int, frameAvg float64) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.totalVehicles += int64(newVehicles)
	if frameAvg > 0 {
		f.avgSpeed = math.Round((f.avgSpeed*0.9+frameAvg*0.1)*10) / 10
	}
}

// Stats returns the dashboard summary. The violation total comes from the
// durable store and is passed in.
func (f *Feed) Stats(violations int) models.Stats {
	f.mu.RLock()
	defer f.mu.RUnlock()

	recent := make([]models.RecentViolation, len(f.recent))
	copy(recent, f.recent)
	return models.Stats{
		TotalVehicles:    f.totalVehicles,
		Violations:       violations,
		CurrentSpeedAvg:  f.avgSpeed,
		RecentViolations: recent,
	}
}

// Reset clears the stats and tells viewers to drop their lists.
func (f *Feed) Reset() {
	f.mu.Lock()
	f.recent = f.recent[:0]
	f.totalVehicles = 0
	f.avgSpeed = 0
	f.mu.Unlock()

	f.send(Message{Type: MessageReset})
}

func (f *Feed) send(msg Message) {
	if f.hub == nil {
		return
	}
	msg.Timestamp = f.now()
	data, err := json.Marshal(msg)
	if err != nil {
		log.Error().Err(err).Str("type", msg.Type).Msg("Failed to encode live feed message")
		return
	}
	f.hub.Broadcast(data)
}
