package stage

import "time"

// Clock supplies the current time to stages. Tests substitute a manual clock
// to exercise idle windows without sleeping.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }
