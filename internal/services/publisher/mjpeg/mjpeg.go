package mjpeg

import (
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

const boundary = "frame"

// Publisher keeps the latest annotated JPEG per camera and streams it to
// HTTP viewers as multipart/x-mixed-replace.
type Publisher struct {
	mu          sync.RWMutex
	latestJPEG  map[string][]byte
	subscribers map[string]map[chan struct{}]struct{}

	placeholder func(cameraID string) []byte
	keepalive   time.Duration
}

// NewPublisher creates a publisher. placeholder renders the image sent
// before a camera's first frame; it may be nil.
func NewPublisher(placeholder func(cameraID string) []byte) *Publisher {
	return &Publisher{
		latestJPEG:  make(map[string][]byte),
		subscribers: make(map[string]map[chan struct{}]struct{}),
		placeholder: placeholder,
		keepalive:   2 * time.Second,
	}
}

// Publish stores the frame and wakes the camera's viewers. The publisher
// takes ownership of jpeg.
func (p *Publisher) Publish(cameraID string, jpeg []byte) {
	p.mu.Lock()
	p.latestJPEG[cameraID] = jpeg
	subs := make([]chan struct{}, 0, len(p.subscribers[cameraID]))
	for ch := range p.subscribers[cameraID] {
		subs = append(subs, ch)
	}
	p.mu.Unlock()

	for _, ch := range subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// Remove forgets the last frame of a stopped camera.
func (p *Publisher) Remove(cameraID string) {
	p.mu.Lock()
	delete(p.latestJPEG, cameraID)
	p.mu.Unlock()
}

func (p *Publisher) latest(cameraID string) []byte {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.latestJPEG[cameraID]
}

func (p *Publisher) subscribe(cameraID string) chan struct{} {
	p.mu.Lock()
	defer p.mu.Unlock()

	ch := make(chan struct{}, 1)
	if p.subscribers[cameraID] == nil {
		p.subscribers[cameraID] = make(map[chan struct{}]struct{})
	}
	p.subscribers[cameraID][ch] = struct{}{}
	return ch
}

func (p *Publisher) unsubscribe(cameraID string, ch chan struct{}) {
	p.mu.Lock()
	defer p.mu.Unlock()

	delete(p.subscribers[cameraID], ch)
	if len(p.subscribers[cameraID]) == 0 {
		delete(p.subscribers, cameraID)
	}
}

// Viewers returns the number of connected viewers of a camera.
func (p *Publisher) Viewers(cameraID string) int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.subscribers[cameraID])
}

func (p *Publisher) StreamMJPEGHTTP(w http.ResponseWriter, r *http.Request, cameraID string) {
	w.Header().Set("Content-Type", "multipart/x-mixed-replace; boundary="+boundary)
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	w.Header().Set("Pragma", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}

	notify := p.subscribe(cameraID)
	defer p.unsubscribe(cameraID, notify)

	writePart := func(jpeg []byte) bool {
		if _, err := io.WriteString(w, "--"+boundary+"\r\n"); err != nil {
			return false
		}
		if _, err := io.WriteString(w, "Content-Type: image/jpeg\r\n"); err != nil {
			return false
		}
		if _, err := io.WriteString(w, fmt.Sprintf("Content-Length: %d\r\n\r\n", len(jpeg))); err != nil {
			return false
		}
		if _, err := w.Write(jpeg); err != nil {
			return false
		}
		if _, err := io.WriteString(w, "\r\n"); err != nil {
			return false
		}
		flusher.Flush()
		return true
	}

	first := p.latest(cameraID)
	if len(first) == 0 && p.placeholder != nil {
		first = p.placeholder(cameraID)
	}
	if len(first) > 0 && !writePart(first) {
		return
	}

	log.Debug().Str("camera_id", cameraID).Msg("MJPEG viewer connected")

	keepaliveTicker := time.NewTicker(p.keepalive)
	defer keepaliveTicker.Stop()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			log.Debug().Str("camera_id", cameraID).Msg("MJPEG viewer disconnected")
			return
		case <-notify:
		case <-keepaliveTicker.C:
		}

		if buf := p.latest(cameraID); len(buf) > 0 {
			if !writePart(buf) {
				return
			}
		}
	}
}

func (p *Publisher) Shutdown() {
	log.Info().Msg("MJPEG Publisher shutting down")
}
