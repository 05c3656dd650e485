//go:build linux

package gpio

import (
	"errors"
	"fmt"

	"github.com/warthog618/go-gpiocdev"
)

const consumer = "led-selector"

// RealIO drives lines through the Linux GPIO character device.
// Each port is a window of lines on a chip; the port latch is kept in memory
// because the kernel only exposes per-line values.
type RealIO struct {
	mapping Mapping
	chips   map[string]*gpiocdev.Chip
	lines   map[Pin]*gpiocdev.Line
	outputs map[Port]uint8 // bits owned as outputs
	latch   map[Port]uint8
}

// NewRealIO opens the chips named in mapping.
func NewRealIO(mapping Mapping) (*RealIO, error) {
	r := &RealIO{
		mapping: mapping,
		chips:   make(map[string]*gpiocdev.Chip),
		lines:   make(map[Pin]*gpiocdev.Line),
		outputs: make(map[Port]uint8),
		latch:   make(map[Port]uint8),
	}
	for _, pm := range mapping {
		if _, ok := r.chips[pm.Chip]; ok {
			continue
		}
		chip, err := gpiocdev.NewChip(pm.Chip, gpiocdev.WithConsumer(consumer))
		if err != nil {
			r.Close()
			return nil, fmt.Errorf("open gpio chip %s: %w", pm.Chip, err)
		}
		r.chips[pm.Chip] = chip
	}
	return r, nil
}

func (r *RealIO) request(p Pin, opts ...gpiocdev.LineReqOption) error {
	pm, ok := r.mapping[p.Port]
	if !ok {
		return fmt.Errorf("pin %s: port %d not mapped", p, p.Port)
	}
	if old, ok := r.lines[p]; ok {
		old.Close()
		delete(r.lines, p)
	}
	line, err := r.chips[pm.Chip].RequestLine(pm.Base+int(p.Bit), opts...)
	if err != nil {
		return fmt.Errorf("request pin %s (%s line %d): %w", p, pm.Chip, pm.Base+int(p.Bit), err)
	}
	r.lines[p] = line
	return nil
}

// ConfigureInputPullUp requests the line as an input with pull-up and no edge detection.
func (r *RealIO) ConfigureInputPullUp(p Pin) error {
	if err := r.request(p, gpiocdev.AsInput, gpiocdev.WithPullUp, gpiocdev.WithoutEdges); err != nil {
		return err
	}
	r.outputs[p.Port] &^= p.Mask()
	return nil
}

// ConfigureOutput requests the line as a push-pull output at the given level.
func (r *RealIO) ConfigureOutput(p Pin, high bool) error {
	if err := r.request(p, gpiocdev.AsOutput(levelValue(high)), gpiocdev.AsPushPull, gpiocdev.WithoutEdges); err != nil {
		return err
	}
	r.outputs[p.Port] |= p.Mask()
	if high {
		r.latch[p.Port] |= p.Mask()
	} else {
		r.latch[p.Port] &^= p.Mask()
	}
	return nil
}

// Read returns the raw line level.
func (r *RealIO) Read(p Pin) (bool, error) {
	line, ok := r.lines[p]
	if !ok {
		return false, fmt.Errorf("read pin %s: not configured", p)
	}
	v, err := line.Value()
	if err != nil {
		return false, fmt.Errorf("read pin %s: %w", p, err)
	}
	return v != 0, nil
}

// Toggle inverts the latched level of an output pin.
func (r *RealIO) Toggle(p Pin) error {
	if r.outputs[p.Port]&p.Mask() == 0 {
		return fmt.Errorf("toggle pin %s: not an output", p)
	}
	next := r.latch[p.Port] ^ p.Mask()
	return r.apply(p.Port, p.Mask(), next)
}

// Output returns the port latch.
func (r *RealIO) Output(port Port) (uint8, error) {
	if _, ok := r.mapping[port]; !ok {
		return 0, fmt.Errorf("output: port %d not mapped", port)
	}
	return r.latch[port], nil
}

// WriteMasked updates the masked latch bits and drives the owned output lines among them.
func (r *RealIO) WriteMasked(port Port, mask, value uint8) error {
	if _, ok := r.mapping[port]; !ok {
		return fmt.Errorf("write: port %d not mapped", port)
	}
	next := (r.latch[port] &^ mask) | (value & mask)
	return r.apply(port, mask, next)
}

func (r *RealIO) apply(port Port, mask, next uint8) error {
	latch := r.latch[port]
	for _, p := range PinsInMask(port, mask) {
		if r.outputs[port]&p.Mask() != 0 {
			if err := r.lines[p].SetValue(levelValue(next&p.Mask() != 0)); err != nil {
				r.latch[port] = latch
				return fmt.Errorf("write pin %s: %w", p, err)
			}
		}
		latch = (latch &^ p.Mask()) | (next & p.Mask())
	}
	r.latch[port] = latch
	return nil
}

// Close releases all lines and chips.
// Output lines are reconfigured as plain inputs first so LEDs are not left driven.
func (r *RealIO) Close() error {
	var errs []error
	for p, line := range r.lines {
		if r.outputs[p.Port]&p.Mask() != 0 {
			if err := line.Reconfigure(gpiocdev.AsInput); err != nil {
				errs = append(errs, fmt.Errorf("reconfigure pin %s: %w", p, err))
			}
		}
		if err := line.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close pin %s: %w", p, err))
		}
	}
	r.lines = map[Pin]*gpiocdev.Line{}
	for name, chip := range r.chips {
		if err := chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip %s: %w", name, err))
		}
	}
	r.chips = map[string]*gpiocdev.Chip{}
	return errors.Join(errs...)
}

func levelValue(high bool) int {
	if high {
		return 1
	}
	return 0
}
