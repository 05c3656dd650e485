// Package logic contains the pure control logic of the board: button debouncing,
// LED selection and RGB cycling arithmetic.
// This package has NO external dependencies (no GPIO, MQTT or OS).
// Time and waiting are always injectable.
package logic

import "time"

// LED identifies the LED group that mode presses act on.
type LED string

const (
	LEDRed LED = "RED"
	LEDRGB LED = "RGB"
)

// Toggle returns the other LED group.
func (l LED) Toggle() LED {
	if l == LEDRed {
		return LEDRGB
	}
	return LEDRed
}

// RGB channel layout within the shared output register.
const (
	RGBMask   uint8 = 0x07
	RGBOffset       = 0
)

// NextRGB advances a 3-bit RGB state by one, wrapping 7 to 0.
func NextRGB(state uint8) uint8 {
	return (state + 1) & RGBMask
}

// EventType represents a confirmed button action.
type EventType string

const (
	EventSelectLED EventType = "SELECT_LED"
	EventCycleLED  EventType = "CYCLE_LED"
)

// Event represents a button action and the resulting board state.
type Event struct {
	Timestamp time.Time
	Type      EventType
	Selected  LED
	Red       bool  // red LED level after the action
	RGB       uint8 // 3-bit RGB state after the action
}

// EventCounts tracks the number of each action since startup.
type EventCounts struct {
	SelectLED int
	CycleLED  int
}

// HeartbeatData contains information for a heartbeat event.
type HeartbeatData struct {
	Timestamp time.Time
	Uptime    time.Duration
	Counts    EventCounts
}
