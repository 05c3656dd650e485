package mqtt

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/sweeney/led-selector/internal/logic"
)

func TestFormatPayload(t *testing.T) {
	event := logic.Event{
		Timestamp: time.Date(2026, 2, 2, 22, 18, 12, 0, time.UTC),
		Type:      logic.EventCycleLED,
		Selected:  logic.LEDRGB,
		Red:       true,
		RGB:       5,
	}

	payload, err := FormatPayload(event)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var parsed Payload
	if err := json.Unmarshal(payload, &parsed); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}

	if parsed.LEDs.Timestamp != "2026-02-02T22:18:12Z" {
		t.Errorf("unexpected timestamp: %s", parsed.LEDs.Timestamp)
	}
	if parsed.LEDs.Event != "CYCLE_LED" {
		t.Errorf("unexpected event: %s", parsed.LEDs.Event)
	}
	if parsed.LEDs.Selected != "RGB" {
		t.Errorf("unexpected selection: %s", parsed.LEDs.Selected)
	}
	if parsed.LEDs.Red != "ON" {
		t.Errorf("unexpected red: %s", parsed.LEDs.Red)
	}
	if parsed.LEDs.RGB != 5 {
		t.Errorf("unexpected rgb: %d", parsed.LEDs.RGB)
	}
}

func TestFormatPayloadExactJSON(t *testing.T) {
	event := logic.Event{
		Timestamp: time.Date(2026, 2, 2, 22, 18, 12, 0, time.UTC),
		Type:      logic.EventSelectLED,
		Selected:  logic.LEDRed,
	}

	payload, _ := FormatPayload(event)
	want := `{"leds":{"timestamp":"2026-02-02T22:18:12Z","event":"SELECT_LED","selected":"RED","red":"OFF","rgb":0}}`
	if string(payload) != want {
		t.Errorf("got  %s\nwant %s", payload, want)
	}
}

func TestFormatPayloadTimezoneConversion(t *testing.T) {
	loc := time.FixedZone("UTC+2", 2*60*60)
	event := logic.Event{
		Timestamp: time.Date(2026, 2, 3, 0, 18, 12, 0, loc),
		Type:      logic.EventSelectLED,
		Selected:  logic.LEDRGB,
	}

	payload, _ := FormatPayload(event)
	var parsed Payload
	json.Unmarshal(payload, &parsed)
	if parsed.LEDs.Timestamp != "2026-02-02T22:18:12Z" {
		t.Errorf("expected UTC timestamp, got %s", parsed.LEDs.Timestamp)
	}
}

func TestTopics(t *testing.T) {
	if Topic != "home/led-selector/events" {
		t.Errorf("unexpected topic: %s", Topic)
	}
	if TopicSystem != "home/led-selector/system" {
		t.Errorf("unexpected system topic: %s", TopicSystem)
	}
}

func TestFormatSystemPayloadExactJSON(t *testing.T) {
	event := SystemEvent{
		Timestamp: time.Date(2026, 2, 2, 22, 18, 12, 0, time.UTC),
		Event:     "SHUTDOWN",
		Reason:    "SIGTERM",
	}

	payload, err := FormatSystemPayload(event)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := `{"system":{"timestamp":"2026-02-02T22:18:12Z","event":"SHUTDOWN","reason":"SIGTERM"}}`
	if string(payload) != want {
		t.Errorf("got  %s\nwant %s", payload, want)
	}
}

func TestFormatSystemPayloadOmitsEmptyReason(t *testing.T) {
	payload, _ := FormatSystemPayload(SystemEvent{
		Timestamp: time.Date(2026, 2, 2, 22, 18, 12, 0, time.UTC),
		Event:     "RECONNECTED",
	})
	want := `{"system":{"timestamp":"2026-02-02T22:18:12Z","event":"RECONNECTED"}}`
	if string(payload) != want {
		t.Errorf("got  %s\nwant %s", payload, want)
	}
}

func TestFormatSystemPayloadRaw(t *testing.T) {
	raw := []byte(`{"status":{"event":"STARTUP"}}`)
	payload, err := FormatSystemPayload(SystemEvent{Event: "STARTUP", RawPayload: raw})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(payload) != string(raw) {
		t.Errorf("expected raw payload passthrough, got %s", payload)
	}
}

func TestFakePublisher(t *testing.T) {
	f := NewFakePublisher()

	event := logic.Event{Timestamp: time.Now(), Type: logic.EventCycleLED, Selected: logic.LEDRed, Red: true}
	if err := f.Publish(event); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(f.Events) != 1 || f.Events[0].Type != logic.EventCycleLED {
		t.Fatalf("unexpected events: %v", f.Events)
	}
	if len(f.Payloads) != 1 {
		t.Fatalf("expected 1 payload, got %d", len(f.Payloads))
	}
}

func TestFakePublisherErrors(t *testing.T) {
	f := NewFakePublisher()
	f.PublishError = errors.New("broker down")
	f.PublishSystemError = errors.New("broker down")

	if err := f.Publish(logic.Event{}); err == nil {
		t.Error("expected publish error")
	}
	if err := f.PublishSystem(SystemEvent{Event: "HEARTBEAT"}); err == nil {
		t.Error("expected publish system error")
	}
	if len(f.Events) != 0 || len(f.SystemEvents) != 0 {
		t.Error("failed publishes should not be recorded")
	}
}

func TestFakePublisherSystemAndRetained(t *testing.T) {
	f := NewFakePublisher()
	f.PublishSystem(SystemEvent{Event: "STARTUP", Retained: true})
	f.PublishSystem(SystemEvent{Event: "HEARTBEAT"})

	if len(f.SystemEvents) != 2 || len(f.SystemPayloads) != 2 {
		t.Fatalf("expected 2 system events, got %d", len(f.SystemEvents))
	}
	if !f.SystemEvents[0].Retained || f.SystemEvents[1].Retained {
		t.Error("retained flag not recorded")
	}
}

func TestFakePublisherResetAndClose(t *testing.T) {
	f := NewFakePublisher()
	f.Publish(logic.Event{})
	f.PublishSystem(SystemEvent{Event: "STARTUP"})
	f.Connected = true
	f.Close()

	if !f.Closed {
		t.Error("expected Closed after Close()")
	}

	f.Reset()
	if len(f.Events) != 0 || len(f.SystemEvents) != 0 || f.Closed || f.Connected {
		t.Errorf("Reset left state behind: %+v", f)
	}

	f.Publish(logic.Event{})
	if len(f.Events) != 1 {
		t.Error("publisher should be reusable after Reset")
	}
}

func TestNopPublisher(t *testing.T) {
	var p Publisher = NopPublisher{}
	if err := p.Publish(logic.Event{}); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := p.PublishSystem(SystemEvent{}); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if p.(ConnectionStatus).IsConnected() {
		t.Error("nop publisher is never connected")
	}
}
