package camera

import (
	"context"
	"time"

	"traffic-worker-go/internal/metrics"
	"traffic-worker-go/internal/models"
	"traffic-worker-go/internal/services/enforcement"
	"traffic-worker-go/internal/services/perception"
)

// NewPerceptionFactory returns a factory that dials the perception service
// once per feed and verifies it with a health check.
func NewPerceptionFactory(endpoint string, timeout time.Duration, codec perception.Codec) PerceptionFactory {
	return func(ctx context.Context, cameraID string) (PerceptionClient, error) {
		client := perception.NewClient(endpoint, cameraID, timeout, codec, enforcement.VehicleClasses())
		if err := client.Connect(); err != nil {
			return nil, err
		}
		if err := client.HealthCheck(ctx); err != nil {
			client.Close()
			return nil, err
		}
		return client, nil
	}
}

// meteredPerception counts perception calls and failures.
type meteredPerception struct {
	PerceptionClient
	metrics *metrics.Metrics
}

func (p *meteredPerception) Track(ctx context.Context, frame *models.Frame) ([]models.TrackedObject, error) {
	objects, err := p.PerceptionClient.Track(ctx, frame)
	if err != nil {
		p.metrics.PerceptionError.Add(1)
		return nil, err
	}
	p.metrics.FramesAnalyzed.Add(1)
	return objects, nil
}

func (p *meteredPerception) ClassifyHelmet(ctx context.Context, frame *models.Frame, head models.BBox) (models.Verdict, error) {
	verdict, err := p.PerceptionClient.ClassifyHelmet(ctx, frame, head)
	if err != nil {
		p.metrics.PerceptionError.Add(1)
	}
	return verdict, err
}
