// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package store holds one canonical Record per place identifier. Inserts
// are idempotent: the first accepted occurrence of an identifier wins and
// later occurrences never touch its base fields.
package store

import (
	"iter"
	"sort"

	"github.com/pdiddy/places-scan/pkg/types"
)

// Acceptor decides whether a raw result may enter the store.
// *classify.Classifier implements it.
type Acceptor interface {
	Accept(p types.PlaceResult) bool
}

// Outcome reports what Insert did with a result.
type Outcome int

const (
	// Added means the result created a new Record.
	Added Outcome = iota
	// Duplicate means the identifier was already stored.
	Duplicate
	// Rejected means the result lacked an identifier or coordinates, or
	// failed the region or relevance check.
	Rejected
)

// Store is an insertion-ordered, identifier-keyed collection of Records.
// It is not safe for concurrent use.
type Store struct {
	accept  Acceptor
	order   []string
	records map[string]*types.Record
}

// New returns an empty Store that admits results passing a.
func New(a Acceptor) *Store {
	return &Store{
		accept:  a,
		records: make(map[string]*types.Record),
	}
}

// Insert projects p into a new Record if it has an identifier, passes the
// acceptor, and has not been seen before.
func (s *Store) Insert(p types.PlaceResult) Outcome {
	if p.PlaceID == "" {
		return Rejected
	}
	if _, ok := s.records[p.PlaceID]; ok {
		return Duplicate
	}
	if !s.accept.Accept(p) {
		return Rejected
	}
	rec := types.NewRecord(p)
	s.records[p.PlaceID] = &rec
	s.order = append(s.order, p.PlaceID)
	return Added
}

// Len returns the number of stored Records.
func (s *Store) Len() int { return len(s.order) }

// Get returns the Record for id.
func (s *Store) Get(id string) (*types.Record, bool) {
	r, ok := s.records[id]
	return r, ok
}

// All yields the stored Records in insertion order. The pointers are live;
// the enricher mutates through them.
func (s *Store) All() iter.Seq2[int, *types.Record] {
	return func(yield func(int, *types.Record) bool) {
		for i, id := range s.order {
			if !yield(i, s.records[id]) {
				return
			}
		}
	}
}

// Sorted returns a copy of the Records ordered by name, ties broken by
// insertion order. This is the hand-off order for sinks.
func (s *Store) Sorted() []types.Record {
	out := make([]types.Record, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, *s.records[id])
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Name < out[j].Name
	})
	return out
}
