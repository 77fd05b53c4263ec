package messaging

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"

	"traffic-worker-go/internal/config"
	"traffic-worker-go/internal/models"
)

// ViolationMessage is published once per confirmed violation.
type ViolationMessage struct {
	EventID     string           `json:"event_id"`
	WorkerID    string           `json:"worker_id"`
	CameraID    string           `json:"camera_id"`
	Violation   models.Violation `json:"violation"`
	PublishedAt time.Time        `json:"published_at"`
}

// ResetMessage is the optional body of a history reset request.
type ResetMessage struct {
	RequestedBy string `json:"requested_by,omitempty"`
}

type Service struct {
	conn *nats.Conn
	cfg  *config.Config
}

func NewService(cfg *config.Config) (*Service, error) {
	opts := []nats.Option{
		nats.Name("traffic-worker-" + cfg.WorkerID),
		nats.Timeout(cfg.NatsConnectTimeout),
		nats.ReconnectWait(cfg.NatsReconnectWait),
		nats.MaxReconnects(cfg.NatsMaxReconnects),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				log.Warn().Err(err).Msg("NATS disconnected")
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info().Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
		}),
	}

	conn, err := nats.Connect(cfg.NatsURL, opts...)
	if err != nil {
		return nil, err
	}

	log.Info().Str("url", cfg.NatsURL).Msg("NATS connection established")

	return &Service{
		conn: conn,
		cfg:  cfg,
	}, nil
}

func (s *Service) Publish(subject string, data interface{}) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return err
	}

	return s.conn.Publish(subject, payload)
}

func newViolationMessage(workerID, cameraID string, v models.Violation, now time.Time) ViolationMessage {
	return ViolationMessage{
		EventID:     uuid.NewString(),
		WorkerID:    workerID,
		CameraID:    cameraID,
		Violation:   v,
		PublishedAt: now.UTC(),
	}
}

// NotifyViolation publishes a recorded violation on the violations subject.
func (s *Service) NotifyViolation(cameraID string, v models.Violation) {
	msg := newViolationMessage(s.cfg.WorkerID, cameraID, v, time.Now())
	if err := s.Publish(s.cfg.ViolationsSubject, msg); err != nil {
		log.Error().
			Err(err).
			Str("camera_id", cameraID).
			Str("track_id", v.ID).
			Str("subject", s.cfg.ViolationsSubject).
			Msg("Failed to publish violation")
		return
	}
	log.Debug().
		Str("event_id", msg.EventID).
		Str("camera_id", cameraID).
		Str("subject", s.cfg.ViolationsSubject).
		Msg("Violation published")
}

// SubscribeReset runs clear for every message on the reset subject.
func (s *Service) SubscribeReset(clear func(ctx context.Context) error) (*nats.Subscription, error) {
	return s.Subscribe(s.cfg.ResetSubject, func(data []byte) {
		var req ResetMessage
		if len(data) > 0 {
			if err := json.Unmarshal(data, &req); err != nil {
				log.Warn().Err(err).Msg("Ignoring malformed reset request body")
			}
		}

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := clear(ctx); err != nil {
			log.Error().Err(err).Str("requested_by", req.RequestedBy).Msg("History reset via NATS finished with errors")
			return
		}
		log.Info().Str("requested_by", req.RequestedBy).Msg("History reset via NATS")
	})
}

func (s *Service) Subscribe(subject string, handler func([]byte)) (*nats.Subscription, error) {
	return s.conn.Subscribe(subject, func(msg *nats.Msg) {
		handler(msg.Data)
	})
}

func (s *Service) IsConnected() bool {
	return s.conn != nil && s.conn.IsConnected()
}

func (s *Service) Shutdown(ctx context.Context) error {
	if s.conn != nil {
		// Try graceful drain, fallback to immediate close
		if err := s.conn.Drain(); err != nil {
			log.Warn().Err(err).Msg("Failed to drain NATS connection gracefully, closing immediately")
			s.conn.Close()
		}
	}
	return nil
}
