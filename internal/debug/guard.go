package debug

import (
	"fmt"
	"time"

	"github.com/pkg/errors"
)

// GuardResult reports how a guarded call went.
type GuardResult struct {
	Name     string
	OK       bool
	Err      error
	Duration time.Duration
}

// Guard runs fn, converting a returned error or a panic into a failed
// result. Failures are recorded and counted under "guard_<name>_failures";
// they never propagate past this call.
func (m *Metrics) Guard(name string, fn func() error) (res GuardResult) {
	res.Name = name
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			res.Err = panicError(name, r)
		}
		res.Duration = time.Since(start)
		res.OK = res.Err == nil
		if !res.OK {
			m.RecordError(res.Err)
			m.IncrementCounter("guard_"+name+"_failures", 1)
		}
	}()

	res.Err = fn()
	return res
}

// GuardValue is Guard for calls that produce a value. The zero value is
// returned on failure.
func GuardValue[T any](m *Metrics, name string, fn func() (T, error)) (T, GuardResult) {
	var out T
	res := m.Guard(name, func() error {
		v, err := fn()
		if err != nil {
			return err
		}
		out = v
		return nil
	})
	return out, res
}

func panicError(name string, r interface{}) error {
	if err, ok := r.(error); ok {
		return errors.Wrapf(err, "%s panicked", name)
	}
	return errors.New(fmt.Sprintf("%s panicked: %v", name, r))
}
