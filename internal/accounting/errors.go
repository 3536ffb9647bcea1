package accounting

import (
	"fmt"
	"time"
)

// DataIntegrityError reports malformed or overlapping state history for one
// instance. Either way the upstream event stream is corrupt; the engine
// refuses to repair or drop rows because either choice would silently skew
// billing. Inverted marks a single record that ends before it begins, in
// which case First holds the offending record and Second is unset.
type DataIntegrityError struct {
	InstanceID string
	First      Interval
	Second     Interval
	Inverted   bool
}

// Error implements the error interface
func (e *DataIntegrityError) Error() string {
	if e.Inverted {
		return fmt.Sprintf("state interval for instance %s ends before it begins: [%s, %s)",
			e.InstanceID,
			e.First.Begin.Format(time.RFC3339), e.First.End.Format(time.RFC3339))
	}
	return fmt.Sprintf("overlapping state intervals for instance %s: [%s, %s) and [%s, %s)",
		e.InstanceID,
		e.First.Begin.Format(time.RFC3339), e.First.End.Format(time.RFC3339),
		e.Second.Begin.Format(time.RFC3339), e.Second.End.Format(time.RFC3339))
}

// NoPriceError reports a consumed interval with no applicable price regime.
// Billing an interval at an implicit zero price is worse than failing the
// whole report, so this is a hard error at every aggregation level.
type NoPriceError struct {
	FlavorID  string
	UserClass int
	At        time.Time
}

// Error implements the error interface
func (e *NoPriceError) Error() string {
	return fmt.Sprintf("no price regime for flavor %s, user class %d at %s",
		e.FlavorID, e.UserClass, e.At.Format(time.RFC3339))
}
