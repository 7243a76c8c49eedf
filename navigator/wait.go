package navigator

import (
	"fmt"
	"time"
)

// errWaitTimeout is returned by waitFor when the deadline passes before the
// readiness predicate reports true.
var errWaitTimeout = fmt.Errorf("readiness check timed out")

// waitFor polls the readiness predicate on a fixed interval until it reports
// true, returns an error, or the deadline passes. All navigator steps that
// depend on asynchronous page rendering go through this primitive instead of
// sleeping ad hoc.
func waitFor(timeout, interval time.Duration, ready func() (bool, error)) error {
	deadline := time.Now().Add(timeout)
	for {
		ok, err := ready()
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
		if time.Now().After(deadline) {
			return errWaitTimeout
		}
		time.Sleep(interval)
	}
}
