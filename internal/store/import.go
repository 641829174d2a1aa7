package store

import (
	"context"
	"fmt"

	"github.com/yok-tottii/EzKeymap/internal/conflict"
	"github.com/yok-tottii/EzKeymap/internal/metrics"
	"github.com/yok-tottii/EzKeymap/internal/shortcut"
)

// Rejected is a record left out of a batch, with the reason shown to the user
type Rejected struct {
	Fields shortcut.Fields
	Reason string
}

// Batch is the outcome of Import
type Batch struct {
	Added    []shortcut.Shortcut
	Rejected []Rejected
}

// Import adds every acceptable record in a single write. Each record is
// checked against the collection as it would look with the records accepted
// before it, so duplicates inside the batch are caught too. With replace the
// batch starts from an empty collection. Invalid records and records with a
// blocking conflict are rejected; force is never applied.
//
// The write is all or nothing: when it fails the collection is unchanged.
func (s *Store) Import(ctx context.Context, items []shortcut.Fields, replace bool) (Batch, error) {
	batch := Batch{Added: []shortcut.Shortcut{}, Rejected: []Rejected{}}

	s.mu.Lock()
	defer s.mu.Unlock()

	var working []shortcut.Shortcut
	if !replace {
		working = make([]shortcut.Shortcut, len(s.items), len(s.items)+len(items))
		copy(working, s.items)
	}

	for _, fields := range items {
		if err := fields.Validate(); err != nil {
			batch.Rejected = append(batch.Rejected, Rejected{Fields: fields, Reason: invalid(err).Error})
			continue
		}
		fields = fields.Trimmed()

		c := conflict.Detect(fields, working, "")
		if c.Blocking(false) {
			s.metrics.Conflict(string(c.Type))
			batch.Rejected = append(batch.Rejected, Rejected{Fields: fields, Reason: c.Message})
			continue
		}

		rec := shortcut.New(fields, s.newID())
		working = append(working, rec)
		batch.Added = append(batch.Added, rec.Clone())
	}

	if !replace && len(batch.Added) == 0 {
		return batch, nil
	}

	if err := s.commit(ctx, working); err != nil {
		s.log.Error("Failed to import %d shortcuts: %v", len(batch.Added), err)
		s.metrics.Operation("import", metrics.ResultError)
		return Batch{}, fmt.Errorf("import failed, nothing was saved: %s", failureMessage(err))
	}

	if replace {
		s.overrides = nil
	}
	s.metrics.Operation("import", metrics.ResultSuccess)
	s.log.Info("Imported %d shortcuts, rejected %d (replace=%v)", len(batch.Added), len(batch.Rejected), replace)
	return batch, nil
}
