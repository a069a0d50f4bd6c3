package satellite

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/ChamsBouzaiene/skyfinder/internal/geometry"
)

const samplePayload = `{"message":"success","timestamp":1700000000,"iss_position":{"latitude":"-12.5","longitude":"101.25"}}`

func TestPollParsesStringCoordinates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(samplePayload))
	}))
	defer srv.Close()

	tr := NewTracker(srv.URL, time.Second, zaptest.NewLogger(t))

	_, ok := tr.Position()
	assert.False(t, ok)
	assert.Nil(t, tr.Target().Position)
	assert.Equal(t, geometry.DefaultPosition, tr.Target().Angles())

	pos, err := tr.Poll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, geometry.LatLon{Latitude: -12.5, Longitude: 101.25}, pos)

	got, ok := tr.Position()
	require.True(t, ok)
	assert.Equal(t, pos, got)

	target := tr.Target()
	assert.Equal(t, "iss", target.ID)
	require.NotNil(t, target.Position)
	assert.Equal(t, geometry.FromLatLon(pos), target.Angles())
	assert.NotNil(t, tr.LastFix())
}

func TestPollFailureKeepsPreviousFix(t *testing.T) {
	var fail atomic.Bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if fail.Load() {
			http.Error(w, "down", http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(samplePayload))
	}))
	defer srv.Close()

	tr := NewTracker(srv.URL, time.Second, nil)
	_, err := tr.Poll(context.Background())
	require.NoError(t, err)

	fail.Store(true)
	_, err = tr.Poll(context.Background())
	require.Error(t, err)

	pos, ok := tr.Position()
	require.True(t, ok)
	assert.Equal(t, -12.5, pos.Latitude)
}

func TestParseFeedRejectsGarbage(t *testing.T) {
	_, err := parseFeed([]byte(`{"iss_position":{"latitude":"north","longitude":"0"}}`))
	assert.Error(t, err)

	_, err = parseFeed([]byte(`{"iss_position":{"latitude":"95","longitude":"0"}}`))
	assert.Error(t, err)

	_, err = parseFeed([]byte(`not json`))
	assert.Error(t, err)
}

func TestRunPollsUntilCanceled(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte(samplePayload))
	}))
	defer srv.Close()

	tr := NewTracker(srv.URL, 10*time.Millisecond, zaptest.NewLogger(t))
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- tr.Run(ctx) }()

	require.Eventually(t, func() bool { return hits.Load() >= 2 }, 2*time.Second, 5*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("tracker did not stop")
	}

	_, ok := tr.Position()
	assert.True(t, ok)
}
