package logic

import "time"

// Sampler reports whether a button is currently pressed.
type Sampler func() (bool, error)

// Button debounces a single mechanical switch.
// One physical press yields exactly one reported press; the button re-arms
// only after a released sample is observed.
type Button struct {
	settle  time.Duration
	wait    func(time.Duration)
	latched bool
}

// NewButton creates a Button that confirms presses after settle.
// wait blocks for the given duration; nil means time.Sleep.
func NewButton(settle time.Duration, wait func(time.Duration)) *Button {
	if wait == nil {
		wait = time.Sleep
	}
	return &Button{settle: settle, wait: wait}
}

// Poll samples the button once and reports whether a new press was confirmed.
// A first pressed sample blocks for the settle time and is re-sampled; a press
// that does not survive the wait is treated as noise.
// On a sample error the latch is left as it was.
func (b *Button) Poll(sample Sampler) (bool, error) {
	pressed, err := sample()
	if err != nil {
		return false, err
	}

	if !pressed {
		b.latched = false
		return false, nil
	}

	if b.latched {
		return false, nil
	}

	b.wait(b.settle)

	pressed, err = sample()
	if err != nil {
		return false, err
	}
	if !pressed {
		return false, nil
	}

	b.latched = true
	return true, nil
}

// Latched reports whether the current press has already been handled.
func (b *Button) Latched() bool {
	return b.latched
}

// Settle returns the debounce settle time.
func (b *Button) Settle() time.Duration {
	return b.settle
}
