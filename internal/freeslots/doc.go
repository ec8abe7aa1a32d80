// Package freeslots computes open meeting slots from a set of busy intervals.
//
// The package has two parts. Merge reduces an arbitrary list of busy
// intervals to a sorted, pairwise-disjoint, minimal BusySet. Find walks a
// business-hours template day by day, starting the day after the reference
// instant, and returns every candidate slot that overlaps nothing in the
// BusySet.
//
// Both functions are pure: they perform no I/O, keep no state between calls,
// and are safe to call concurrently with independent inputs. Fetching busy
// data from a calendar provider is the caller's job.
//
// Example usage:
//
//	loc, _ := time.LoadLocation("Europe/Berlin")
//	req := freeslots.DefaultRequest(time.Now().In(loc))
//	req.SlotDuration = 45 * time.Minute
//
//	slots, err := freeslots.Find(req, freeslots.Merge(busy))
//	if err != nil {
//	    log.Fatal(err)
//	}
package freeslots
