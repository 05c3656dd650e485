package board

import (
	"errors"
	"fmt"
	"time"

	"github.com/sweeney/led-selector/internal/gpio"
	"github.com/sweeney/led-selector/internal/logic"
)

// Controller owns the board state: LED selection and both button latches.
// Not safe for concurrent use; it is driven from the main loop only.
type Controller struct {
	io            gpio.IO
	layout        Layout
	selectButton  *logic.Button
	modeButton    *logic.Button
	selected      logic.LED
	eventCounts   logic.EventCounts
	startTime     time.Time
	lastHeartbeat time.Time
}

// NewController creates a controller with RED selected.
// debounce is the settle time for both buttons; wait blocks for a duration
// (nil means time.Sleep). Pins must already be configured with Init.
func NewController(io gpio.IO, layout Layout, debounce time.Duration, wait func(time.Duration), startTime time.Time) *Controller {
	return &Controller{
		io:            io,
		layout:        layout,
		selectButton:  logic.NewButton(debounce, wait),
		modeButton:    logic.NewButton(debounce, wait),
		selected:      logic.LEDRed,
		startTime:     startTime,
		lastHeartbeat: startTime,
	}
}

// Poll services both buttons once, select button first, and returns the
// resulting events. A failure on one button does not skip the other.
func (c *Controller) Poll(now time.Time) ([]logic.Event, error) {
	var events []logic.Event
	var errs []error

	fired, err := c.selectButton.Poll(c.sampler(c.layout.SelectButton))
	if err != nil {
		errs = append(errs, fmt.Errorf("select button: %w", err))
	} else if fired {
		c.selectLED()
		events = append(events, c.event(now, logic.EventSelectLED))
	}

	fired, err = c.modeButton.Poll(c.sampler(c.layout.ModeButton))
	if err != nil {
		errs = append(errs, fmt.Errorf("mode button: %w", err))
	} else if fired {
		if err := c.cycleLED(); err != nil {
			errs = append(errs, fmt.Errorf("cycle %s led: %w", c.selected, err))
		} else {
			events = append(events, c.event(now, logic.EventCycleLED))
		}
	}

	return events, errors.Join(errs...)
}

// sampler reads an active-low button: a low line means pressed.
func (c *Controller) sampler(p gpio.Pin) logic.Sampler {
	return func() (bool, error) {
		high, err := c.io.Read(p)
		if err != nil {
			return false, err
		}
		return !high, nil
	}
}

func (c *Controller) selectLED() {
	c.selected = c.selected.Toggle()
	c.eventCounts.SelectLED++
}

func (c *Controller) cycleLED() error {
	switch c.selected {
	case logic.LEDRed:
		if err := c.io.Toggle(c.layout.RedLED); err != nil {
			return err
		}
	case logic.LEDRGB:
		state, err := c.rgbState()
		if err != nil {
			return err
		}
		next := logic.NextRGB(state) << c.layout.RGBOffset
		if err := c.io.WriteMasked(c.layout.RGBPort, c.layout.RGBMask(), next); err != nil {
			return err
		}
	}
	c.eventCounts.CycleLED++
	return nil
}

func (c *Controller) rgbState() (uint8, error) {
	out, err := c.io.Output(c.layout.RGBPort)
	if err != nil {
		return 0, err
	}
	return (out >> c.layout.RGBOffset) & logic.RGBMask, nil
}

func (c *Controller) redLevel() (bool, error) {
	out, err := c.io.Output(c.layout.RedLED.Port)
	if err != nil {
		return false, err
	}
	return out&c.layout.RedLED.Mask() != 0, nil
}

func (c *Controller) event(now time.Time, t logic.EventType) logic.Event {
	// Output latches are in-memory for every IO implementation, so read
	// failures here leave the zero values.
	red, _ := c.redLevel()
	rgb, _ := c.rgbState()
	return logic.Event{
		Timestamp: now,
		Type:      t,
		Selected:  c.selected,
		Red:       red,
		RGB:       rgb,
	}
}

// Selected returns the LED group that mode presses currently act on.
func (c *Controller) Selected() logic.LED {
	return c.selected
}

// State returns the selection and current LED outputs.
func (c *Controller) State() (selected logic.LED, red bool, rgb uint8, err error) {
	red, err = c.redLevel()
	if err != nil {
		return c.selected, false, 0, fmt.Errorf("read red led: %w", err)
	}
	rgb, err = c.rgbState()
	if err != nil {
		return c.selected, red, 0, fmt.Errorf("read rgb led: %w", err)
	}
	return c.selected, red, rgb, nil
}

// EventCountsSnapshot returns the action counts since startup.
func (c *Controller) EventCountsSnapshot() logic.EventCounts {
	return c.eventCounts
}

// CheckHeartbeat returns heartbeat data if the interval has elapsed since the
// last heartbeat (or startup). Returns nil if the interval has not elapsed,
// or if interval is <= 0 (disabled).
func (c *Controller) CheckHeartbeat(now time.Time, interval time.Duration) *logic.HeartbeatData {
	if interval <= 0 {
		return nil
	}
	if now.Sub(c.lastHeartbeat) < interval {
		return nil
	}
	c.lastHeartbeat = now
	return &logic.HeartbeatData{
		Timestamp: now,
		Uptime:    now.Sub(c.startTime),
		Counts:    c.eventCounts,
	}
}
