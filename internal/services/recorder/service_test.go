package recorder

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"traffic-worker-go/internal/metrics"
	"traffic-worker-go/internal/models"
)

type memStore struct {
	mu      sync.Mutex
	records []models.Violation
	err     error
}

func (m *memStore) Append(_ context.Context, v models.Violation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.records = append([]models.Violation{v}, m.records...)
	return nil
}

func (m *memStore) List(context.Context) ([]models.Violation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.Violation(nil), m.records...), nil
}

func (m *memStore) Count(context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.records), nil
}

func (m *memStore) Clear(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = nil
	return nil
}

type fakeSnapshots struct {
	mu     sync.Mutex
	err    error
	frames [][]byte
}

func (f *fakeSnapshots) Capture(ev models.ViolationEvent) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if ev.Frame != nil {
		f.frames = append(f.frames, ev.Frame.Data)
	}
	if f.err != nil {
		return "", f.err
	}
	return "snapshots/snap.jpg", nil
}

type fakeChallans struct {
	err  error
	seen []models.Violation
}

func (f *fakeChallans) Render(v models.Violation) (string, error) {
	f.seen = append(f.seen, v)
	if f.err != nil {
		return "", f.err
	}
	return "challans/challan.pdf", nil
}

type notifySink struct {
	mu      sync.Mutex
	cameras []string
	records []models.Violation
}

func (n *notifySink) NotifyViolation(cameraID string, v models.Violation) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.cameras = append(n.cameras, cameraID)
	n.records = append(n.records, v)
}

func sampleEvent(trackID int) models.ViolationEvent {
	return models.ViolationEvent{
		CameraID:   "cam-1",
		TrackID:    trackID,
		Kind:       models.KindOverspeed,
		Speed:      64.2,
		Limit:      40,
		Lane:       "Lane 1",
		BBox:       models.BBox{X1: 10, Y1: 10, X2: 50, Y2: 50},
		Frame:      &models.Frame{Data: []byte{1, 2, 3}, Width: 1, Height: 1},
		DetectedAt: time.Date(2024, 3, 1, 10, 15, 30, 0, time.Local),
	}
}

func TestRecordWritesAllArtifacts(t *testing.T) {
	st := &memStore{}
	snaps := &fakeSnapshots{}
	challans := &fakeChallans{}
	sink := &notifySink{}
	s := NewService(Options{}, st, snaps, challans, metrics.New(), sink)

	v := s.Record(context.Background(), sampleEvent(12))

	want := models.Violation{
		ID:            "12",
		Plate:         "ID-12",
		Timestamp:     "2024-03-01 10:15:30",
		Speed:         64.2,
		Limit:         40,
		Lane:          "Lane 1",
		ViolationType: models.KindOverspeed,
		SnapshotPath:  "snapshots/snap.jpg",
		ChallanPath:   "challans/challan.pdf",
	}
	assert.Equal(t, want, v)
	assert.Equal(t, []models.Violation{want}, st.records)
	require.Len(t, challans.seen, 1)
	assert.Equal(t, "snapshots/snap.jpg", challans.seen[0].SnapshotPath, "the challan embeds the snapshot")
	assert.Equal(t, []string{"cam-1"}, sink.cameras)
	assert.Equal(t, uint64(1), s.metrics.RecordsWritten.Load())
}

func TestRecordToleratesStepFailures(t *testing.T) {
	st := &memStore{}
	snaps := &fakeSnapshots{err: errors.New("disk full")}
	challans := &fakeChallans{}
	s := NewService(Options{}, st, snaps, challans, metrics.New())

	v := s.Record(context.Background(), sampleEvent(1))

	assert.Empty(t, v.SnapshotPath)
	assert.Equal(t, "challans/challan.pdf", v.ChallanPath)
	require.Len(t, st.records, 1)
	assert.Equal(t, uint64(1), s.metrics.SnapshotErrors.Load())
}

func TestRecordNotifiesEvenWhenAppendFails(t *testing.T) {
	st := &memStore{err: errors.New("database is locked")}
	challans := &fakeChallans{err: errors.New("font missing")}
	sink := &notifySink{}
	s := NewService(Options{}, st, &fakeSnapshots{}, challans, metrics.New(), sink)

	v := s.Record(context.Background(), sampleEvent(2))

	assert.Empty(t, v.ChallanPath)
	assert.Len(t, sink.records, 1)
	assert.Equal(t, uint64(1), s.metrics.StoreErrors.Load())
	assert.Equal(t, uint64(1), s.metrics.ChallanErrors.Load())
}

func TestWorkersDrainOnStop(t *testing.T) {
	st := &memStore{}
	s := NewService(Options{Workers: 3, QueueSize: 32}, st, &fakeSnapshots{}, &fakeChallans{}, metrics.New())
	s.Start()

	for i := 0; i < 20; i++ {
		s.Report(sampleEvent(i))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, s.Stop(ctx))

	n, _ := st.Count(context.Background())
	assert.Equal(t, 20, n)
	assert.NoError(t, s.Stop(ctx), "stop is idempotent")
}

func TestReportInlineWhenQueueFull(t *testing.T) {
	st := &memStore{}
	s := NewService(Options{Workers: 1, QueueSize: 0}, st, &fakeSnapshots{}, &fakeChallans{}, metrics.New())

	s.Report(sampleEvent(5))

	n, _ := st.Count(context.Background())
	assert.Equal(t, 1, n, "no worker is receiving so the event is recorded inline")
	assert.Equal(t, uint64(1), s.metrics.RecorderInlined.Load())
}

func TestReportAfterStopRecordsInline(t *testing.T) {
	st := &memStore{}
	s := NewService(Options{Workers: 1, QueueSize: 4}, st, &fakeSnapshots{}, &fakeChallans{}, metrics.New())
	s.Start()
	require.NoError(t, s.Stop(context.Background()))

	s.Report(sampleEvent(6))

	n, _ := st.Count(context.Background())
	assert.Equal(t, 1, n)
}

func TestReportCopiesFrame(t *testing.T) {
	snaps := &fakeSnapshots{}
	s := NewService(Options{Workers: 1, QueueSize: 1}, &memStore{}, snaps, &fakeChallans{}, metrics.New())

	ev := sampleEvent(7)
	s.Report(ev)
	ev.Frame.Data[0] = 99

	s.Start()
	require.NoError(t, s.Stop(context.Background()))

	require.Len(t, snaps.frames, 1)
	assert.Equal(t, []byte{1, 2, 3}, snaps.frames[0])
}
