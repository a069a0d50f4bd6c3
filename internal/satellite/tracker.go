// Package satellite follows the live position of the ISS so the "iss"
// target moves across the sky.
package satellite

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ChamsBouzaiene/skyfinder/internal/engine"
	"github.com/ChamsBouzaiene/skyfinder/internal/geometry"
)

const (
	DefaultFeedURL      = "http://api.open-notify.org/iss-now.json"
	DefaultPollInterval = 5 * time.Second
)

// feedResponse is the open-notify payload. Coordinates arrive as strings.
type feedResponse struct {
	Message     string `json:"message"`
	Timestamp   int64  `json:"timestamp"`
	ISSPosition struct {
		Latitude  string `json:"latitude"`
		Longitude string `json:"longitude"`
	} `json:"iss_position"`
}

// Fix is one successful position reading.
type Fix struct {
	Position geometry.LatLon
	At       time.Time
}

// Tracker polls the position feed and keeps the last good fix.
type Tracker struct {
	url      string
	interval time.Duration
	client   *http.Client
	logger   *zap.Logger

	mu  sync.RWMutex
	fix *Fix
}

// NewTracker creates a tracker. Zero values fall back to the public feed
// polled every five seconds.
func NewTracker(url string, interval time.Duration, logger *zap.Logger) *Tracker {
	if url == "" {
		url = DefaultFeedURL
	}
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Tracker{
		url:      url,
		interval: interval,
		client:   &http.Client{Timeout: interval},
		logger:   logger,
	}
}

// Run polls until ctx is canceled. Failed polls keep the previous fix.
func (t *Tracker) Run(ctx context.Context) error {
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	t.logger.Info("satellite tracker started",
		zap.String("url", t.url),
		zap.Duration("interval", t.interval))

	t.pollOnce(ctx)
	for {
		select {
		case <-ctx.Done():
			t.logger.Info("satellite tracker stopped")
			return nil
		case <-ticker.C:
			t.pollOnce(ctx)
		}
	}
}

func (t *Tracker) pollOnce(ctx context.Context) {
	pos, err := t.Poll(ctx)
	if err != nil {
		if ctx.Err() == nil {
			t.logger.Warn("satellite poll failed", zap.Error(err))
		}
		return
	}
	t.logger.Debug("satellite fix",
		zap.Float64("latitude", pos.Latitude),
		zap.Float64("longitude", pos.Longitude))
}

// Poll fetches the current position once and records it on success.
func (t *Tracker) Poll(ctx context.Context) (geometry.LatLon, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.url, nil)
	if err != nil {
		return geometry.LatLon{}, fmt.Errorf("build feed request: %w", err)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return geometry.LatLon{}, fmt.Errorf("fetch feed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return geometry.LatLon{}, fmt.Errorf("read feed: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return geometry.LatLon{}, engine.NewProviderError("satellite", resp.StatusCode, string(body), nil)
	}

	pos, err := parseFeed(body)
	if err != nil {
		return geometry.LatLon{}, err
	}

	t.mu.Lock()
	t.fix = &Fix{Position: pos, At: time.Now()}
	t.mu.Unlock()
	return pos, nil
}

func parseFeed(body []byte) (geometry.LatLon, error) {
	var fr feedResponse
	if err := json.Unmarshal(body, &fr); err != nil {
		return geometry.LatLon{}, fmt.Errorf("decode feed: %w", err)
	}
	lat, err := strconv.ParseFloat(fr.ISSPosition.Latitude, 64)
	if err != nil {
		return geometry.LatLon{}, fmt.Errorf("parse latitude %q: %w", fr.ISSPosition.Latitude, err)
	}
	lon, err := strconv.ParseFloat(fr.ISSPosition.Longitude, 64)
	if err != nil {
		return geometry.LatLon{}, fmt.Errorf("parse longitude %q: %w", fr.ISSPosition.Longitude, err)
	}
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return geometry.LatLon{}, fmt.Errorf("position out of range: %v,%v", lat, lon)
	}
	return geometry.LatLon{Latitude: lat, Longitude: lon}, nil
}

// Position returns the last good fix. ok is false until the first poll
// succeeds.
func (t *Tracker) Position() (geometry.LatLon, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.fix == nil {
		return geometry.LatLon{}, false
	}
	return t.fix.Position, true
}

// LastFix returns a copy of the last fix, or nil.
func (t *Tracker) LastFix() *Fix {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.fix == nil {
		return nil
	}
	f := *t.fix
	return &f
}

// Target returns the ISS as an alignment target. Without a fix the target
// has no position and resolves to the default sky position.
func (t *Tracker) Target() geometry.Target {
	target := geometry.Target{ID: engine.TargetISS.String()}
	if pos, ok := t.Position(); ok {
		target.Position = &pos
	}
	return target
}
