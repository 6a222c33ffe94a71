package clock

import (
	"time"

	"go.uber.org/fx"
)

// Clock abstracts wall-clock time so services and the scheduler can be tested
// against a fake.
type Clock interface {
	Now() time.Time
}

// SystemClock is the production Clock backed by time.Now.
type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now().UTC()
}

// Module wires the system clock.
var Module = fx.Module("clock",
	fx.Provide(func() Clock { return SystemClock{} }),
)
