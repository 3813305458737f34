// Package validate checks the physical feasibility of a berth plan.
//
// All checks are pure functions over an in-memory row set and compare every
// pair of rows in scope. Occupation windows are half-open, [eta, etd): a
// vessel leaving at 14:00 does not conflict with one arriving at 14:00. The
// rule lives in Overlap and is shared by the temporal and spatial checks.
//
// The temporal check only compares rows of the same berth. The spatial check
// treats the quay as one continuous line: any two rows whose windows overlap
// are compared, whichever berth they are assigned to.
package validate
