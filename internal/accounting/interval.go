// Package accounting turns raw instance state history into consumption, cost,
// and budget report trees. All computation happens in memory over an immutable
// snapshot fetched before the engine runs; the package does no I/O.
package accounting

import (
	"sort"
	"time"

	"cloudbill/pkg/types"
)

// Window is the half-open query window [Begin, End) a report covers.
type Window struct {
	Begin time.Time
	End   time.Time
}

// YearWindow returns the window covering one calendar year in UTC.
func YearWindow(year int) Window {
	return Window{
		Begin: time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(year+1, time.January, 1, 0, 0, 0, 0, time.UTC),
	}
}

// Interval is one clipped slice of an instance's state history: the half-open
// range [Begin, End) during which the instance held a single flavor and owner.
type Interval struct {
	Begin        time.Time
	End          time.Time
	InstanceID   string
	InstanceName string
	FlavorID     string
	FlavorName   string
	UserID       string
	Username     string
	ProjectID    string
	ProjectName  string
	UserClass    int
}

// Duration returns the interval length.
func (iv Interval) Duration() time.Duration {
	return iv.End.Sub(iv.Begin)
}

// ResolveIntervals converts the ordered state records of a single instance
// into non-overlapping intervals clipped to the query window.
//
// Records with no end time are treated as still active and clipped to the
// window end. Records entirely outside the window are dropped; an instance
// with nothing in the window yields an empty slice, which is not an error.
// A record that ends before it begins, or two surviving intervals that
// overlap, mean the stored history itself is inconsistent and produce a
// *DataIntegrityError.
func ResolveIntervals(records []types.StateRecord, window Window) ([]Interval, error) {
	intervals := make([]Interval, 0, len(records))

	for i := range records {
		rec := &records[i]

		// An inverted record is corrupt regardless of the window, so reject
		// it before clipping can make it look merely out of range.
		if rec.End != nil && rec.End.Before(rec.Begin) {
			return nil, &DataIntegrityError{
				InstanceID: rec.InstanceID,
				First:      recordInterval(rec, rec.Begin, *rec.End),
				Inverted:   true,
			}
		}

		begin := rec.Begin
		end := window.End
		if rec.End != nil {
			end = *rec.End
		}

		// Clip to the query window.
		if begin.Before(window.Begin) {
			begin = window.Begin
		}
		if end.After(window.End) {
			end = window.End
		}

		// Fully outside the window, or clipped to nothing.
		if !begin.Before(end) {
			continue
		}

		intervals = append(intervals, recordInterval(rec, begin, end))
	}

	// Stores return history ordered by begin time, but the overlap check must
	// not depend on that, so sort before scanning adjacent pairs.
	sort.Slice(intervals, func(i, j int) bool {
		return intervals[i].Begin.Before(intervals[j].Begin)
	})

	for i := 1; i < len(intervals); i++ {
		if intervals[i].Begin.Before(intervals[i-1].End) {
			return nil, &DataIntegrityError{
				InstanceID: intervals[i].InstanceID,
				First:      intervals[i-1],
				Second:     intervals[i],
			}
		}
	}

	return intervals, nil
}

func recordInterval(rec *types.StateRecord, begin, end time.Time) Interval {
	return Interval{
		Begin:        begin,
		End:          end,
		InstanceID:   rec.InstanceID,
		InstanceName: rec.InstanceName,
		FlavorID:     rec.FlavorID,
		FlavorName:   rec.FlavorName,
		UserID:       rec.UserID,
		Username:     rec.Username,
		ProjectID:    rec.ProjectID,
		ProjectName:  rec.ProjectName,
		UserClass:    rec.UserClass,
	}
}
