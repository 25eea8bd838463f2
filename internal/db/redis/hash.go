package redis

import (
	"context"
	"fmt"

	"github.com/redis/rueidis"

	"github.com/project-kepler/kepler/internal/db"
)

// HSetMulti stores multiple hashes in one DoMulti round-trip and reports
// the outcome per item. The pipeline always runs to completion: an error
// on one key is recorded in its slot, not propagated to the others.
// The second return value is non-nil only for request-level failures
// (nothing was attempted).
func (s *Store) HSetMulti(ctx context.Context, items []db.HashSetItem) ([]error, error) {
	if len(items) == 0 {
		return nil, nil
	}

	cmds := make([]rueidis.Completed, len(items))
	for i, item := range items {
		cmd := s.b().Hset().Key(item.Key).FieldValue()
		for k, v := range item.Fields {
			cmd = cmd.FieldValue(k, v)
		}
		cmds[i] = cmd.Build()
	}

	results := s.client.DoMulti(ctx, cmds...)
	if len(results) != len(items) {
		return nil, &db.Error{
			Op:  db.OpHSet,
			Err: fmt.Errorf("pipeline returned %d results for %d commands", len(results), len(items)),
		}
	}

	errs := make([]error, len(items))
	for i, res := range results {
		if err := res.Error(); err != nil {
			errs[i] = &db.Error{Op: db.OpHSet, Err: err}
		}
	}
	return errs, nil
}
