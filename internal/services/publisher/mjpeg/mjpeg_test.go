package mjpeg

import (
	"context"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStreamSendsPlaceholderThenFrames(t *testing.T) {
	p := NewPublisher(func(cameraID string) []byte { return []byte("placeholder-" + cameraID) })

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p.StreamMJPEGHTTP(w, r, "cam-1")
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL, nil)
	require.NoError(t, err)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	mediaType, params, err := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	require.NoError(t, err)
	assert.Equal(t, "multipart/x-mixed-replace", mediaType)

	reader := multipart.NewReader(resp.Body, params["boundary"])

	part, err := reader.NextPart()
	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", part.Header.Get("Content-Type"))
	body, err := io.ReadAll(part)
	require.NoError(t, err)
	assert.Equal(t, "placeholder-cam-1", string(body))

	require.Eventually(t, func() bool { return p.Viewers("cam-1") == 1 }, time.Second, 10*time.Millisecond)
	p.Publish("cam-1", []byte("frame-1"))

	part, err = reader.NextPart()
	require.NoError(t, err)
	body, err = io.ReadAll(part)
	require.NoError(t, err)
	assert.Equal(t, "frame-1", string(body))

	cancel()
	require.Eventually(t, func() bool { return p.Viewers("cam-1") == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestPublishWithoutViewers(t *testing.T) {
	p := NewPublisher(nil)
	p.Publish("cam-2", []byte("a"))
	assert.Equal(t, []byte("a"), p.latest("cam-2"))

	p.Remove("cam-2")
	assert.Nil(t, p.latest("cam-2"))
}
