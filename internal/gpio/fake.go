package gpio

import "fmt"

// FakePort mirrors the registers of one simulated port.
type FakePort struct {
	In  uint8 // input levels seen by Read
	Out uint8 // output latch (doubles as pull direction for inputs)
	Dir uint8 // 1 = output
	Ren uint8 // pull resistor enable
	DS  uint8 // high drive strength
	IE  uint8 // interrupt enable
}

// FakeIO is a test double that simulates port registers in memory.
type FakeIO struct {
	ports map[Port]*FakePort

	// Reads counts Read calls per pin.
	Reads map[Pin]int

	// ReadError, if set, will be returned by Read.
	ReadError error

	// WriteError, if set, will be returned by Toggle and WriteMasked.
	WriteError error

	// Closed tracks if Close was called.
	Closed bool
}

// NewFakeIO creates a FakeIO with all registers cleared.
func NewFakeIO() *FakeIO {
	return &FakeIO{
		ports: make(map[Port]*FakePort),
		Reads: make(map[Pin]int),
	}
}

// Port returns the registers of port, creating them on first use.
func (f *FakeIO) Port(port Port) *FakePort {
	p, ok := f.ports[port]
	if !ok {
		p = &FakePort{}
		f.ports[port] = p
	}
	return p
}

// ConfigureInputPullUp clears DIR and IE, sets REN and the OUT pull bit.
// An input with nothing driving it idles high.
func (f *FakeIO) ConfigureInputPullUp(p Pin) error {
	r := f.Port(p.Port)
	m := p.Mask()
	r.Dir &^= m
	r.Ren |= m
	r.Out |= m
	r.IE &^= m
	r.In |= m
	return nil
}

// ConfigureOutput sets DIR, clears DS and IE and drives the initial level.
func (f *FakeIO) ConfigureOutput(p Pin, high bool) error {
	r := f.Port(p.Port)
	m := p.Mask()
	r.Dir |= m
	r.DS &^= m
	if high {
		r.Out |= m
	} else {
		r.Out &^= m
	}
	r.IE &^= m
	return nil
}

// Read returns the IN bit of the pin.
func (f *FakeIO) Read(p Pin) (bool, error) {
	f.Reads[p]++
	if f.ReadError != nil {
		return false, f.ReadError
	}
	return f.Port(p.Port).In&p.Mask() != 0, nil
}

// Toggle flips the OUT bit of the pin.
func (f *FakeIO) Toggle(p Pin) error {
	if f.WriteError != nil {
		return f.WriteError
	}
	r := f.Port(p.Port)
	if r.Dir&p.Mask() == 0 {
		return fmt.Errorf("toggle %s: not an output", p)
	}
	r.Out ^= p.Mask()
	return nil
}

// Output returns the OUT register of port.
func (f *FakeIO) Output(port Port) (uint8, error) {
	return f.Port(port).Out, nil
}

// WriteMasked performs the read-modify-write on the OUT register.
func (f *FakeIO) WriteMasked(port Port, mask, value uint8) error {
	if f.WriteError != nil {
		return f.WriteError
	}
	r := f.Port(port)
	r.Out = (r.Out &^ mask) | (value & mask)
	return nil
}

// Close marks the fake as closed.
func (f *FakeIO) Close() error {
	f.Closed = true
	return nil
}

// SetLevel drives the IN bit of an input pin.
func (f *FakeIO) SetLevel(p Pin, high bool) {
	r := f.Port(p.Port)
	if high {
		r.In |= p.Mask()
	} else {
		r.In &^= p.Mask()
	}
}

// Press pulls an active-low button line low.
func (f *FakeIO) Press(p Pin) {
	f.SetLevel(p, false)
}

// Release lets an active-low button line float back high.
func (f *FakeIO) Release(p Pin) {
	f.SetLevel(p, true)
}

// Level returns the OUT bit of an output pin.
func (f *FakeIO) Level(p Pin) bool {
	return f.Port(p.Port).Out&p.Mask() != 0
}
