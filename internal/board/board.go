// Package board wires the button and LED logic to digital I/O:
// pin initialization, the LED cycling actuator and the per-iteration poll.
package board

import (
	"fmt"

	"github.com/sweeney/led-selector/internal/gpio"
	"github.com/sweeney/led-selector/internal/logic"
)

// Layout assigns board functions to pins.
type Layout struct {
	SelectButton gpio.Pin
	ModeButton   gpio.Pin
	RedLED       gpio.Pin
	RGBPort      gpio.Port
	RGBOffset    uint8 // bit position of the first RGB channel
}

// DefaultLayout returns the fixed board wiring: buttons on P1.1 and P1.4,
// red LED on P1.0, RGB channels on P2.0-P2.2.
func DefaultLayout() Layout {
	return Layout{
		SelectButton: gpio.ButtonSelectLED,
		ModeButton:   gpio.ButtonSelectMode,
		RedLED:       gpio.LEDRed,
		RGBPort:      gpio.Port2,
		RGBOffset:    logic.RGBOffset,
	}
}

// RGBMask returns the mask of the RGB channels within their port register.
func (l Layout) RGBMask() uint8 {
	return logic.RGBMask << l.RGBOffset
}

// RGBPins returns the RGB channel pins.
func (l Layout) RGBPins() []gpio.Pin {
	return gpio.PinsInMask(l.RGBPort, l.RGBMask())
}

// Pins returns every pin the layout uses.
func (l Layout) Pins() []gpio.Pin {
	return append([]gpio.Pin{l.SelectButton, l.ModeButton, l.RedLED}, l.RGBPins()...)
}

// Validate checks that the layout fits in 8-bit ports and no pin is used twice.
func (l Layout) Validate() error {
	if l.RGBOffset > 5 {
		return fmt.Errorf("rgb offset %d: channels do not fit in port", l.RGBOffset)
	}
	seen := make(map[gpio.Pin]bool)
	for _, p := range l.Pins() {
		if p.Bit > 7 {
			return fmt.Errorf("pin %s: bit out of range", p)
		}
		if seen[p] {
			return fmt.Errorf("pin %s assigned twice", p)
		}
		seen[p] = true
	}
	return nil
}

// Init configures buttons as pull-up inputs and all LEDs as outputs driven low.
func Init(io gpio.IO, l Layout) error {
	for _, p := range []gpio.Pin{l.SelectButton, l.ModeButton} {
		if err := io.ConfigureInputPullUp(p); err != nil {
			return fmt.Errorf("configure button %s: %w", p, err)
		}
	}
	for _, p := range append([]gpio.Pin{l.RedLED}, l.RGBPins()...) {
		if err := io.ConfigureOutput(p, false); err != nil {
			return fmt.Errorf("configure led %s: %w", p, err)
		}
	}
	return nil
}
