package perception

import (
	"context"
	"crypto/tls"
	"encoding/base64"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"google.golang.org/grpc"
	"google.golang.org/grpc/connectivity"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/protobuf/types/known/structpb"

	"traffic-worker-go/internal/models"
)

const (
	ServiceName          = "perception.v1.Perception"
	TrackMethod          = "/" + ServiceName + "/Track"
	ClassifyHelmetMethod = "/" + ServiceName + "/ClassifyHelmet"

	frameQuality = 85
	cropQuality  = 95
)

// ErrClientClosed is returned by calls made after Close.
var ErrClientClosed = errors.New("perception client closed")

// Codec turns frames into the JPEG payloads sent to the service.
type Codec struct {
	Encode func(f *models.Frame, quality int) ([]byte, error)
	Crop   func(f *models.Frame, box models.BBox, quality int) ([]byte, error)
}

// Client calls the remote tracker and helmet classifier for one feed.
// Connection failures back off exponentially.
type Client struct {
	endpoint string
	cameraID string
	timeout  time.Duration
	codec    Codec
	classes  []int
	dialOpts []grpc.DialOption

	mu     sync.RWMutex
	conn   *grpc.ClientConn
	closed bool

	now              func() time.Time
	lastFailTime     time.Time
	consecutiveFails int
	maxRetryBackoff  time.Duration
}

func NewClient(endpoint, cameraID string, timeout time.Duration, codec Codec, classes []int) *Client {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &Client{
		endpoint:        endpoint,
		cameraID:        cameraID,
		timeout:         timeout,
		codec:           codec,
		classes:         classes,
		maxRetryBackoff: 30 * time.Second,
		now:             time.Now,
	}
}

// Connect creates the gRPC connection. The channel connects lazily.
func (c *Client) Connect() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrClientClosed
	}
	if c.conn != nil {
		return nil
	}

	target, creds, err := parseGRPCEndpoint(c.endpoint)
	if err != nil {
		return fmt.Errorf("failed to parse perception endpoint %s: %w", c.endpoint, err)
	}

	opts := append([]grpc.DialOption{grpc.WithTransportCredentials(creds)}, c.dialOpts...)
	conn, err := grpc.NewClient(target, opts...)
	if err != nil {
		return fmt.Errorf("failed to connect to perception service at %s: %w", target, err)
	}

	c.conn = conn
	c.consecutiveFails = 0

	log.Info().
		Str("camera_id", c.cameraID).
		Str("endpoint", target).
		Bool("use_tls", creds.Info().SecurityProtocol == "tls").
		Msg("Perception gRPC connection initialized")
	return nil
}

// HealthCheck asks the standard gRPC health service whether perception is
// serving.
func (c *Client) HealthCheck(ctx context.Context) error {
	conn := c.connection()
	if conn == nil {
		return fmt.Errorf("perception client not connected")
	}

	resp, err := healthpb.NewHealthClient(conn).Check(ctx, &healthpb.HealthCheckRequest{Service: ServiceName})
	if err != nil {
		return fmt.Errorf("perception health check failed: %w", err)
	}
	if resp.GetStatus() != healthpb.HealthCheckResponse_SERVING {
		return fmt.Errorf("perception service is %s", resp.GetStatus())
	}
	return nil
}

func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.closed = true
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
		log.Info().Str("camera_id", c.cameraID).Msg("Perception gRPC connection closed")
	}
}

func (c *Client) connection() *grpc.ClientConn {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.conn
}

// dropConnection discards conn if it is still the current channel.
func (c *Client) dropConnection(conn *grpc.ClientConn) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == conn {
		c.conn = nil
	}
	conn.Close()
}

func (c *Client) failures() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.consecutiveFails
}

// EnsureConnected re-dials a channel that failed or was shut down. After
// consecutive failures it refuses until the backoff period has passed.
func (c *Client) EnsureConnected() error {
	c.mu.RLock()
	closed := c.closed
	c.mu.RUnlock()
	if closed {
		return ErrClientClosed
	}

	if !c.shouldRetry() {
		return fmt.Errorf("in backoff period after %d consecutive failures", c.failures())
	}

	conn := c.connection()
	if conn != nil {
		state := conn.GetState()
		if state != connectivity.TransientFailure && state != connectivity.Shutdown {
			return nil
		}
		log.Warn().
			Str("camera_id", c.cameraID).
			Str("state", state.String()).
			Msg("Perception channel unusable, reconnecting")
		c.dropConnection(conn)
	}

	if err := c.Connect(); err != nil {
		c.recordFailure()
		return fmt.Errorf("failed to ensure connection: %w", err)
	}
	return nil
}

// Track sends a frame to the tracker and returns the tracked vehicles.
func (c *Client) Track(ctx context.Context, frame *models.Frame) ([]models.TrackedObject, error) {
	jpeg, err := c.codec.Encode(frame, frameQuality)
	if err != nil {
		return nil, fmt.Errorf("encode frame: %w", err)
	}

	classes := make([]any, len(c.classes))
	for i, id := range c.classes {
		classes[i] = id
	}
	req, err := structpb.NewStruct(map[string]any{
		"camera_id": c.cameraID,
		"frame":     base64.StdEncoding.EncodeToString(jpeg),
		"width":     frame.Width,
		"height":    frame.Height,
		"classes":   classes,
	})
	if err != nil {
		return nil, fmt.Errorf("build track request: %w", err)
	}

	resp, err := c.invoke(ctx, TrackMethod, req)
	if err != nil {
		return nil, err
	}
	return parseObjects(resp)
}

// ClassifyHelmet sends the head crop to the helmet classifier.
func (c *Client) ClassifyHelmet(ctx context.Context, frame *models.Frame, head models.BBox) (models.Verdict, error) {
	jpeg, err := c.codec.Crop(frame, head, cropQuality)
	if err != nil {
		return models.Verdict{}, fmt.Errorf("crop head region: %w", err)
	}

	req, err := structpb.NewStruct(map[string]any{
		"camera_id": c.cameraID,
		"image":     base64.StdEncoding.EncodeToString(jpeg),
	})
	if err != nil {
		return models.Verdict{}, fmt.Errorf("build classify request: %w", err)
	}

	resp, err := c.invoke(ctx, ClassifyHelmetMethod, req)
	if err != nil {
		return models.Verdict{}, err
	}
	return parseVerdict(resp)
}

func (c *Client) invoke(ctx context.Context, method string, req *structpb.Struct) (*structpb.Struct, error) {
	if err := c.EnsureConnected(); err != nil {
		return nil, err
	}
	conn := c.connection()
	if conn == nil {
		return nil, fmt.Errorf("perception client not connected")
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp := &structpb.Struct{}
	if err := conn.Invoke(ctx, method, req, resp); err != nil {
		c.recordFailure()
		return nil, fmt.Errorf("%s failed: %w", method, err)
	}

	c.mu.Lock()
	c.consecutiveFails = 0
	c.mu.Unlock()
	return resp, nil
}

// shouldRetry applies exponential backoff after consecutive failures
func (c *Client) shouldRetry() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.consecutiveFails == 0 {
		return true
	}

	// Exponential backoff: 1s, 2s, 4s, 8s, 16s, 30s (max)
	backoff := time.Duration(1<<uint(min(c.consecutiveFails-1, 5))) * time.Second
	if backoff > c.maxRetryBackoff {
		backoff = c.maxRetryBackoff
	}
	return c.now().Sub(c.lastFailTime) >= backoff
}

func (c *Client) recordFailure() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.consecutiveFails++
	c.lastFailTime = c.now()

	if c.consecutiveFails <= 5 {
		log.Warn().
			Str("camera_id", c.cameraID).
			Int("consecutive_fails", c.consecutiveFails).
			Msg("Perception call failure recorded")
	}
}

// parseGRPCEndpoint parses and normalizes the gRPC endpoint URL
func parseGRPCEndpoint(endpoint string) (string, credentials.TransportCredentials, error) {
	// Add scheme if missing
	if !strings.Contains(endpoint, "://") {
		if strings.Contains(endpoint, ".") && !strings.Contains(endpoint, ":") {
			endpoint = "https://" + endpoint + ":443"
		} else if strings.Contains(endpoint, ":") {
			parts := strings.Split(endpoint, ":")
			if len(parts) == 2 {
				if port, err := strconv.Atoi(parts[1]); err == nil && (port == 443 || port == 8443 || port == 9443) {
					endpoint = "https://" + endpoint
				} else {
					endpoint = "http://" + endpoint
				}
			}
		} else {
			endpoint = "http://" + endpoint + ":80"
		}
	}

	u, err := url.Parse(endpoint)
	if err != nil {
		return "", nil, fmt.Errorf("invalid endpoint URL: %w", err)
	}

	host := u.Host
	if u.Port() == "" {
		switch u.Scheme {
		case "https":
			host = u.Hostname() + ":443"
		case "http":
			host = u.Hostname() + ":80"
		default:
			return "", nil, fmt.Errorf("unsupported scheme: %s", u.Scheme)
		}
	}

	var creds credentials.TransportCredentials
	switch u.Scheme {
	case "https":
		creds = credentials.NewTLS(&tls.Config{ServerName: u.Hostname()})
	case "http":
		creds = insecure.NewCredentials()
	default:
		return "", nil, fmt.Errorf("unsupported scheme: %s", u.Scheme)
	}

	return host, creds, nil
}
