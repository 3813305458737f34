// Package grid discretises plan timestamps and quay positions. Snapping uses
// absolute time as its origin, so a boundary is the same instant whatever
// location the timestamp carries and repeated snapping is a no-op.
package grid
