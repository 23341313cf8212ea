// Package device defines the peripheral abstractions exposed through the
// control protocol. Hardware-specific drivers live behind these
// interfaces; the package ships simulated implementations for hosts
// without the peripherals.
package device

import "sync"

// LED models a single on/off indicator.
type LED interface {
	On()
	Off()
	// Value returns 1 when lit, 0 otherwise.
	Value() int
}

// SimLED is an in-memory LED.
type SimLED struct {
	lock sync.Mutex
	v    int
}

// On implements LED.
func (l *SimLED) On() {
	l.lock.Lock()
	l.v = 1
	l.lock.Unlock()
}

// Off implements LED.
func (l *SimLED) Off() {
	l.lock.Lock()
	l.v = 0
	l.lock.Unlock()
}

// Value implements LED.
func (l *SimLED) Value() int {
	l.lock.Lock()
	defer l.lock.Unlock()
	return l.v
}
