// v0
// internal/setpoints/setpoints.go
package setpoints

import (
	"errors"
	"fmt"
	"sync"
)

// ErrUnknownTank is returned when a setpoint operation references a tank that is not tracked.
var ErrUnknownTank = errors.New("unknown tankId")

// ErrSetpointRange indicates that the provided setpoint falls outside the permitted range.
var ErrSetpointRange = errors.New("setpoint outside configured range")

// Store keeps the per-tank dissolved-oxygen setpoints behind a RWMutex so the
// analyze step can read concurrently while HTTP handlers update values. The
// allowable range lives here too, so HTTP validation and the properties
// reload path share one source of truth.
type Store struct {
	mu     sync.RWMutex
	tanks  map[string]struct{}
	values map[string]float64
	min    float64
	max    float64
}

// New builds the runtime setpoint store from the parsed configuration. Every
// tank needs an initial value inside the range; the planner must never see
// undefined data.
func New(tanks []string, defaults map[string]float64, min, max float64) (*Store, error) {
	if len(tanks) == 0 {
		return nil, fmt.Errorf("setpoints: no tanks configured")
	}
	s := &Store{
		tanks:  make(map[string]struct{}, len(tanks)),
		values: make(map[string]float64, len(tanks)),
		min:    min,
		max:    max,
	}
	for _, tank := range tanks {
		s.tanks[tank] = struct{}{}
		val, ok := defaults[tank]
		if !ok {
			return nil, fmt.Errorf("setpoints: missing initial value for tank %s", tank)
		}
		if val < min || val > max {
			return nil, fmt.Errorf("setpoints: tank %s initial %.2f outside %.2f..%.2f", tank, val, min, max)
		}
		s.values[tank] = val
	}
	return s, nil
}

// Get returns the current DO setpoint for the tank. The boolean reports
// whether the tank is known to the store.
func (s *Store) Get(tank string) (float64, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[tank]
	return v, ok
}

// All returns a copy of the current setpoints so callers can marshal them
// without holding the lock.
func (s *Store) All() map[string]float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]float64, len(s.values))
	for tank, v := range s.values {
		out[tank] = v
	}
	return out
}

// Set updates one tank's setpoint after range validation. Failures wrap the
// sentinel errors so HTTP handlers can map them to status codes.
func (s *Store) Set(tank string, value float64) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tanks[tank]; !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnknownTank, tank)
	}
	if value < s.min || value > s.max {
		return 0, fmt.Errorf("%w: %.2f", ErrSetpointRange, value)
	}
	s.values[tank] = value
	return value, nil
}

// Reset replaces all setpoints with the provided defaults, used when the
// properties file is reloaded. Validation runs over the whole set first; a
// failure leaves the previous values untouched.
func (s *Store) Reset(defaults map[string]float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for tank := range s.tanks {
		val, ok := defaults[tank]
		if !ok {
			return fmt.Errorf("%w: %s", ErrUnknownTank, tank)
		}
		if val < s.min || val > s.max {
			return fmt.Errorf("%w: %.2f", ErrSetpointRange, val)
		}
	}
	for tank := range s.tanks {
		s.values[tank] = defaults[tank]
	}
	return nil
}

// Range exposes the allowable bounds for user-facing validation messages.
func (s *Store) Range() (float64, float64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.min, s.max
}
