package stage

import "fmt"

// Status is the state of a stage. The zero value is Wait.
type Status int

const (
	Wait Status = iota
	Execute
	Stop
	Error
)

var statusNames = [...]string{
	Wait:    "wait",
	Execute: "execute",
	Stop:    "stop",
	Error:   "error",
}

func (s Status) String() string {
	if s < 0 || int(s) >= len(statusNames) {
		return fmt.Sprintf("status(%d)", int(s))
	}
	return statusNames[s]
}

// Valid reports whether s is one of the four defined states.
func (s Status) Valid() bool {
	return s >= Wait && s <= Error
}

// MarshalText renders the status name for JSON payloads.
func (s Status) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("invalid stage status %d", int(s))
	}
	return []byte(s.String()), nil
}

// UnmarshalText parses a status name.
func (s *Status) UnmarshalText(text []byte) error {
	for i, name := range statusNames {
		if name == string(text) {
			*s = Status(i)
			return nil
		}
	}
	return fmt.Errorf("unknown stage status %q", string(text))
}

// Statuses returns the four states in declaration order.
func Statuses() []Status {
	return []Status{Wait, Execute, Stop, Error}
}
