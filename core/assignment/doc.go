// Package assignment defines the versioned assignment store.
//
// A version is created in one atomic operation from a full row set and a
// provenance tag, and is never mutated or deleted afterwards. Stores check
// only the structure of rows; feasibility violations are allowed so drafts
// can be checkpointed and inspected. MemoryStore is the in-process
// implementation; infra/store provides the SQLite one.
package assignment
