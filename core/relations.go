package core

import (
	"iter"

	"github.com/huangsam/commitmap/schema"
)

// BuildRelations pairs path with every commit in its history.
// Order follows the sequence and a hash that repeats is kept once.
func BuildRelations(path string, commits iter.Seq[schema.CommitRecord]) []schema.Relation {
	seen := make(map[string]struct{})
	var out []schema.Relation
	for c := range commits {
		if _, dup := seen[c.Hash]; dup {
			continue
		}
		seen[c.Hash] = struct{}{}
		out = append(out, schema.Relation{CommitHash: c.Hash, FilePath: path})
	}
	return out
}

// commitSet collects commits in first-seen order, keeping the first record per hash.
type commitSet struct {
	seen    map[string]struct{}
	records []schema.CommitRecord
}

func newCommitSet() *commitSet {
	return &commitSet{seen: make(map[string]struct{})}
}

func (s *commitSet) add(c schema.CommitRecord) {
	if _, ok := s.seen[c.Hash]; ok {
		return
	}
	s.seen[c.Hash] = struct{}{}
	s.records = append(s.records, c)
}
