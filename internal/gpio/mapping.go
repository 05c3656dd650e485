package gpio

// PortMapping places a port on a GPIO chip: bit n of the port is line Base+n.
type PortMapping struct {
	Chip string `yaml:"chip"`
	Base int    `yaml:"base"`
}

// Mapping maps ports to chip line windows.
type Mapping map[Port]PortMapping

// DefaultMapping puts both ports on gpiochip0 of a Raspberry Pi header:
// Port1 is BCM16-23 and Port2 is BCM24-27 (only bits 0-2 are used).
func DefaultMapping() Mapping {
	return Mapping{
		Port1: {Chip: "gpiochip0", Base: 16},
		Port2: {Chip: "gpiochip0", Base: 24},
	}
}
