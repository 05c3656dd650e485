// Package gpio provides digital I/O for the board with hardware abstraction.
// The real implementation uses the Linux GPIO character device.
// The fake implementation simulates port registers for tests.
package gpio

import "fmt"

// Port identifies a group of up to eight lines sharing one output latch.
type Port uint8

// Pin identifies a single line by port and bit position.
type Pin struct {
	Port Port
	Bit  uint8
}

// Mask returns the bit-mask of the pin within its port.
func (p Pin) Mask() uint8 {
	return 1 << p.Bit
}

func (p Pin) String() string {
	return fmt.Sprintf("P%d.%d", p.Port, p.Bit)
}

// IO is the digital I/O interface consumed by the board controller.
// Implementations are not safe for concurrent use.
type IO interface {
	// ConfigureInputPullUp sets the pin as an input with pull-up and no edge events.
	ConfigureInputPullUp(p Pin) error

	// ConfigureOutput sets the pin as a push-pull output driven to the given level.
	ConfigureOutput(p Pin, high bool) error

	// Read returns the instantaneous raw level of the pin.
	Read(p Pin) (bool, error)

	// Toggle inverts the output level of the pin.
	Toggle(p Pin) error

	// Output returns the output latch of the port.
	Output(port Port) (uint8, error)

	// WriteMasked clears mask in the port latch, then ORs in value&mask.
	WriteMasked(port Port, mask, value uint8) error

	// Close releases GPIO resources.
	Close() error
}

// Board pin assignments.
const (
	Port1 Port = 1
	Port2 Port = 2

	// RGBMask covers the three RGB channels on Port2, bits 0-2.
	RGBMask uint8 = 0x07
)

var (
	LEDRed           = Pin{Port: Port1, Bit: 0}
	ButtonSelectLED  = Pin{Port: Port1, Bit: 1}
	ButtonSelectMode = Pin{Port: Port1, Bit: 4}
)

// PinsInMask returns the pins of port whose bits are set in mask, lowest bit first.
func PinsInMask(port Port, mask uint8) []Pin {
	var pins []Pin
	for bit := uint8(0); bit < 8; bit++ {
		if mask&(1<<bit) != 0 {
			pins = append(pins, Pin{Port: port, Bit: bit})
		}
	}
	return pins
}
