package status

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/sweeney/led-selector/internal/logic"
)

func TestNewTracker(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	cfg := Config{PollMs: 2, DebounceMs: 5, Broker: "tcp://localhost:1883", HTTPAddr: ":8080"}
	tr := NewTracker(start, cfg)

	snap := tr.Snapshot()
	if !snap.StartTime.Equal(start) {
		t.Errorf("StartTime: got %v, want %v", snap.StartTime, start)
	}
	if snap.Config.DebounceMs != 5 {
		t.Errorf("Config.DebounceMs: got %d, want 5", snap.Config.DebounceMs)
	}
	if snap.Selected != logic.LEDRed {
		t.Errorf("Selected: got %q, want RED", snap.Selected)
	}
	if snap.Red || snap.RGB != 0 {
		t.Error("expected LEDs off initially")
	}
	if snap.LastEvent != nil {
		t.Error("expected no last event initially")
	}
}

func TestUpdateAndSnapshot(t *testing.T) {
	tr := NewTracker(time.Now(), Config{})

	tr.Update(logic.LEDRGB, true, 5, logic.EventCounts{SelectLED: 3, CycleLED: 7})

	snap := tr.Snapshot()
	if snap.Selected != logic.LEDRGB {
		t.Errorf("Selected: got %q, want RGB", snap.Selected)
	}
	if !snap.Red {
		t.Error("expected Red=true")
	}
	if snap.RGB != 5 {
		t.Errorf("RGB: got %d, want 5", snap.RGB)
	}
	if snap.Counts.SelectLED != 3 || snap.Counts.CycleLED != 7 {
		t.Errorf("Counts: got %+v", snap.Counts)
	}
}

func TestRecordEventIsCopied(t *testing.T) {
	tr := NewTracker(time.Now(), Config{})
	e := logic.Event{Type: logic.EventCycleLED, RGB: 1}
	tr.RecordEvent(e)

	snap := tr.Snapshot()
	if snap.LastEvent == nil || snap.LastEvent.Type != logic.EventCycleLED {
		t.Fatalf("LastEvent: got %+v", snap.LastEvent)
	}
	snap.LastEvent.RGB = 6
	if tr.Snapshot().LastEvent.RGB != 1 {
		t.Error("mutating a snapshot changed the tracker")
	}
}

func TestSetMQTTConnected(t *testing.T) {
	tr := NewTracker(time.Now(), Config{})

	tr.SetMQTTConnected(true)
	if !tr.Snapshot().MQTTConnected {
		t.Error("expected MQTTConnected=true")
	}

	tr.SetMQTTConnected(false)
	if tr.Snapshot().MQTTConnected {
		t.Error("expected MQTTConnected=false")
	}
}

func TestSetNetwork(t *testing.T) {
	tr := NewTracker(time.Now(), Config{})

	if tr.Snapshot().Network != nil {
		t.Error("expected nil Network initially")
	}

	tr.SetNetwork(&NetworkInfo{Type: "wifi", IP: "192.168.1.42", Status: "connected"})

	snap := tr.Snapshot()
	if snap.Network == nil {
		t.Fatal("expected non-nil Network")
	}
	if snap.Network.IP != "192.168.1.42" {
		t.Errorf("Network.IP: got %q, want %q", snap.Network.IP, "192.168.1.42")
	}
}

func TestSnapshotUptime(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	snap := Snapshot{StartTime: start, Now: start.Add(15 * time.Minute)}

	if snap.Uptime() != 15*time.Minute {
		t.Errorf("Uptime: got %v, want 15m", snap.Uptime())
	}
}

func TestSnapshotNowIsSet(t *testing.T) {
	tr := NewTracker(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), Config{})

	before := time.Now()
	snap := tr.Snapshot()
	after := time.Now()

	if snap.Now.Before(before) || snap.Now.After(after) {
		t.Errorf("Now (%v) not between %v and %v", snap.Now, before, after)
	}
}

func TestSnapshotIsCopy(t *testing.T) {
	tr := NewTracker(time.Now(), Config{})
	tr.Update(logic.LEDRGB, false, 3, logic.EventCounts{})

	snap1 := tr.Snapshot()
	tr.Update(logic.LEDRed, true, 4, logic.EventCounts{CycleLED: 1})

	if snap1.Selected != logic.LEDRGB || snap1.RGB != 3 || snap1.Red {
		t.Error("snapshot should be a copy")
	}
}

func TestFormatJSON(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	snap := Snapshot{
		Selected:      logic.LEDRGB,
		Red:           true,
		RGB:           6,
		Counts:        logic.EventCounts{SelectLED: 5, CycleLED: 2},
		LastEvent:     &logic.Event{Type: logic.EventSelectLED, Timestamp: start.Add(time.Minute)},
		StartTime:     start,
		Now:           start.Add(15 * time.Minute),
		MQTTConnected: true,
		Config:        Config{PollMs: 2, DebounceMs: 5, HeartbeatMs: 900000, Broker: "tcp://localhost:1883", HTTPAddr: ":8080"},
	}

	var parsed StatusJSON
	if err := json.Unmarshal(FormatJSON(snap), &parsed); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}

	s := parsed.Status
	if s.Selected != "RGB" {
		t.Errorf("Selected: got %q, want RGB", s.Selected)
	}
	if s.Red != "ON" {
		t.Errorf("Red: got %q, want ON", s.Red)
	}
	if s.RGB != 6 {
		t.Errorf("RGB: got %d, want 6", s.RGB)
	}
	if s.UptimeSeconds != 900 {
		t.Errorf("UptimeSeconds: got %d, want 900", s.UptimeSeconds)
	}
	if !s.MQTT.Connected {
		t.Error("expected MQTT.Connected=true")
	}
	if s.Counts.SelectLED != 5 || s.Counts.CycleLED != 2 {
		t.Errorf("Counts: got %+v", s.Counts)
	}
	if s.LastEvent == nil || s.LastEvent.Type != "SELECT_LED" || s.LastEvent.Timestamp != "2026-01-01T00:01:00Z" {
		t.Errorf("LastEvent: got %+v", s.LastEvent)
	}
	if s.Event != "" || s.Reason != "" {
		t.Errorf("expected empty event/reason for web format, got %q/%q", s.Event, s.Reason)
	}
}

func TestFormatJSONUnknownSelection(t *testing.T) {
	snap := Snapshot{
		StartTime: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		Now:       time.Date(2026, 1, 1, 0, 0, 1, 0, time.UTC),
	}

	var parsed StatusJSON
	json.Unmarshal(FormatJSON(snap), &parsed)

	if parsed.Status.Selected != "UNKNOWN" {
		t.Errorf("Selected: got %q, want UNKNOWN", parsed.Status.Selected)
	}
	if parsed.Status.Red != "OFF" {
		t.Errorf("Red: got %q, want OFF", parsed.Status.Red)
	}
}

func TestFormatStatusEvent(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	snap := Snapshot{
		Selected:  logic.LEDRed,
		StartTime: start,
		Now:       start.Add(15 * time.Minute),
		Config:    Config{Broker: "tcp://localhost:1883"},
	}

	var parsed StatusJSON
	if err := json.Unmarshal(FormatStatusEvent(snap, "SHUTDOWN", "SIGTERM"), &parsed); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}

	if parsed.Status.Event != "SHUTDOWN" {
		t.Errorf("Event: got %q, want SHUTDOWN", parsed.Status.Event)
	}
	if parsed.Status.Reason != "SIGTERM" {
		t.Errorf("Reason: got %q, want SIGTERM", parsed.Status.Reason)
	}
	if parsed.Status.Selected != "RED" {
		t.Errorf("Selected: got %q, want RED", parsed.Status.Selected)
	}
}

func TestFormatStatusEventOmitsEmptyFields(t *testing.T) {
	snap := Snapshot{
		StartTime: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		Now:       time.Date(2026, 1, 1, 0, 0, 1, 0, time.UTC),
	}

	var raw map[string]interface{}
	json.Unmarshal(FormatStatusEvent(snap, "STARTUP", ""), &raw)
	status := raw["status"].(map[string]interface{})
	for _, key := range []string{"reason", "network", "last_event"} {
		if _, exists := status[key]; exists {
			t.Errorf("%s should be omitted when empty", key)
		}
	}
	if status["event"] != "STARTUP" {
		t.Errorf("event: got %v, want STARTUP", status["event"])
	}
}

func TestFormatJSONWithNetwork(t *testing.T) {
	snap := Snapshot{
		StartTime: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		Now:       time.Date(2026, 1, 1, 0, 1, 0, 0, time.UTC),
		Network:   &NetworkInfo{Type: "wifi", IP: "192.168.1.42", Status: "connected", SSID: "MyNet"},
	}

	var parsed StatusJSON
	json.Unmarshal(FormatJSON(snap), &parsed)

	if parsed.Status.Network == nil {
		t.Fatal("expected Network in JSON")
	}
	if parsed.Status.Network.SSID != "MyNet" {
		t.Errorf("Network.SSID: got %q, want MyNet", parsed.Status.Network.SSID)
	}
}

func TestConcurrentAccess(t *testing.T) {
	tr := NewTracker(time.Now(), Config{})
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			tr.Update(logic.LEDRGB, i%2 == 0, uint8(i)&logic.RGBMask, logic.EventCounts{CycleLED: i})
			tr.RecordEvent(logic.Event{Type: logic.EventCycleLED})
			tr.SetMQTTConnected(i%2 == 0)
			tr.SetNetwork(&NetworkInfo{IP: "1.2.3.4"})
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			snap := tr.Snapshot()
			_ = FormatJSON(snap)
		}
	}()

	wg.Wait()
}
