package assignment

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kilianp07/berthplan/core/model"
)

// MemoryStore keeps versions in memory for tests and lightweight usage.
type MemoryStore struct {
	mu        sync.RWMutex
	versions  []model.Version // creation order
	byID      map[string]int
	terminals map[string]model.Terminal
	berths    map[string]model.Berth
	now       func() time.Time
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byID:      map[string]int{},
		terminals: map[string]model.Terminal{},
		berths:    map[string]model.Berth{},
		now:       time.Now,
	}
}

// CreateVersion stores a deep copy of rows under a fresh id.
func (s *MemoryStore) CreateVersion(_ context.Context, rows []model.AssignmentRow, source, label string) (string, error) {
	if err := CheckRows(rows); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	created := s.now().UTC().Round(0)
	if n := len(s.versions); n > 0 {
		if last := s.versions[n-1].CreatedAt; !created.After(last) {
			created = last.Add(time.Microsecond)
		}
	}
	v := model.Version{
		ID:        uuid.NewString(),
		Source:    source,
		Label:     label,
		CreatedAt: created,
		Rows:      NormalizeRows(rows),
	}
	s.byID[v.ID] = len(s.versions)
	s.versions = append(s.versions, v)
	return v.ID, nil
}

// ListVersions returns summaries most recent first.
func (s *MemoryStore) ListVersions(context.Context) ([]model.VersionSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.VersionSummary, 0, len(s.versions))
	for i := len(s.versions) - 1; i >= 0; i-- {
		out = append(out, s.versions[i].Summary())
	}
	return out, nil
}

// LoadAssignments returns a copy of the version's rows.
func (s *MemoryStore) LoadAssignments(ctx context.Context, versionID string) ([]model.AssignmentRow, error) {
	v, err := s.GetVersion(ctx, versionID)
	if err != nil {
		return nil, err
	}
	return v.Rows, nil
}

// GetVersion returns a copy of the version.
func (s *MemoryStore) GetVersion(_ context.Context, versionID string) (model.Version, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.byID[versionID]
	if !ok {
		return model.Version{}, &NotFoundError{VersionID: versionID}
	}
	v := s.versions[i]
	v.Rows = model.CloneRows(v.Rows)
	return v, nil
}

// UpsertReferenceData merges ref into the stored tables.
func (s *MemoryStore) UpsertReferenceData(_ context.Context, ref model.ReferenceData) (UpsertResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var res UpsertResult
	for _, t := range ref.Terminals {
		cur, ok := s.terminals[t.ID]
		switch {
		case !ok:
			res.Inserted++
		case cur != t:
			res.Updated++
		default:
			res.Unchanged++
			continue
		}
		s.terminals[t.ID] = t
	}
	for _, b := range ref.Berths {
		cur, ok := s.berths[b.ID]
		switch {
		case !ok:
			res.Inserted++
		case cur != b:
			res.Updated++
		default:
			res.Unchanged++
			continue
		}
		s.berths[b.ID] = b
	}
	return res, nil
}

// ReferenceData returns the stored tables sorted by id.
func (s *MemoryStore) ReferenceData(context.Context) (model.ReferenceData, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var ref model.ReferenceData
	for _, t := range s.terminals {
		ref.Terminals = append(ref.Terminals, t)
	}
	for _, b := range s.berths {
		ref.Berths = append(ref.Berths, b)
	}
	SortReference(&ref)
	return ref, nil
}

// Close is a no-op.
func (s *MemoryStore) Close() error { return nil }
