// Package status provides a thread-safe status tracker for the led-selector daemon.
// The main loop writes to it; HTTP handlers and MQTT lifecycle events read snapshots.
package status

import (
	"sync"
	"time"

	"github.com/sweeney/led-selector/internal/logic"
)

// NetworkInfo contains network state as reported by the host helper.
type NetworkInfo struct {
	Type       string
	IP         string
	Status     string
	Gateway    string
	WifiStatus string
	SSID       string
}

// Config contains daemon configuration for display.
type Config struct {
	PollMs      int64
	DebounceMs  int64
	HeartbeatMs int64
	Broker      string
	HTTPAddr    string
}

// Snapshot is a point-in-time view of daemon state.
// It is a value type, safe to use after the lock is released.
type Snapshot struct {
	Selected      logic.LED
	Red           bool
	RGB           uint8
	Counts        logic.EventCounts
	LastEvent     *logic.Event
	StartTime     time.Time
	Now           time.Time
	MQTTConnected bool
	Network       *NetworkInfo
	Config        Config
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Tracker holds mutable daemon state behind an RWMutex.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
	now  func() time.Time
}

// NewTracker creates a Tracker with the given start time and config.
// The selection starts as RED to match the controller.
func NewTracker(startTime time.Time, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			Selected:  logic.LEDRed,
			StartTime: startTime,
			Config:    cfg,
		},
		now: time.Now,
	}
}

// Update sets the board state and action counts.
// Called from runLoop on every tick.
func (t *Tracker) Update(selected logic.LED, red bool, rgb uint8, counts logic.EventCounts) {
	t.mu.Lock()
	t.snap.Selected = selected
	t.snap.Red = red
	t.snap.RGB = rgb
	t.snap.Counts = counts
	t.mu.Unlock()
}

// RecordEvent remembers the most recent button action.
func (t *Tracker) RecordEvent(e logic.Event) {
	t.mu.Lock()
	t.snap.LastEvent = &e
	t.mu.Unlock()
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// SetNetwork sets the network info.
func (t *Tracker) SetNetwork(info *NetworkInfo) {
	t.mu.Lock()
	t.snap.Network = info
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the daemon state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	t.mu.RUnlock()
	if s.LastEvent != nil {
		e := *s.LastEvent
		s.LastEvent = &e
	}
	s.Now = t.now()
	return s
}
