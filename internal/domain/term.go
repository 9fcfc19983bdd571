package domain

import (
	"crypto/rand"
	"encoding/hex"
)

// Term is a translatable key with optional context and per-language
// translations. Terms are value records: mutation always replaces the
// term (or its translations map) wholesale so snapshot equality stays
// well-defined.
type Term struct {
	ID           string            `json:"id"`
	Text         string            `json:"text"`
	Context      string            `json:"context,omitempty"`
	Translations map[string]string `json:"translations,omitempty"`
}

// Clone returns a deep copy of the term.
func (t Term) Clone() Term {
	c := t
	if t.Translations != nil {
		c.Translations = make(map[string]string, len(t.Translations))
		for k, v := range t.Translations {
			c.Translations[k] = v
		}
	}
	return c
}

// NewTermID returns a fresh term identifier. IDs only need to be unique
// within a single snapshot.
func NewTermID() string {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		panic(err)
	}
	return "t_" + hex.EncodeToString(b)
}

// Snapshot is an ordered set of terms: either the mutable working state
// of a branch or the frozen content of a commit. Order is insertion
// order and carries no meaning beyond display.
type Snapshot []Term

// Clone returns a deep copy of the snapshot.
func (s Snapshot) Clone() Snapshot {
	if s == nil {
		return nil
	}
	out := make(Snapshot, len(s))
	for i, t := range s {
		out[i] = t.Clone()
	}
	return out
}

// Index maps term id to position in the snapshot.
func (s Snapshot) Index() map[string]int {
	idx := make(map[string]int, len(s))
	for i, t := range s {
		idx[t.ID] = i
	}
	return idx
}

// Find returns the term with the given id, if present.
func (s Snapshot) Find(id string) (Term, bool) {
	for _, t := range s {
		if t.ID == id {
			return t, true
		}
	}
	return Term{}, false
}

// Merge combines the snapshot with source using union-with-source-
// precedence keyed by term id: source entries overwrite entries sharing
// the same id, all other entries are preserved, and source-only entries
// are appended after the existing order.
func (s Snapshot) Merge(source Snapshot) Snapshot {
	idx := s.Index()
	out := s.Clone()
	for _, t := range source {
		if i, ok := idx[t.ID]; ok {
			out[i] = t.Clone()
		} else {
			out = append(out, t.Clone())
		}
	}
	return out
}

// StripLanguages removes translations for the given language codes from
// every term. Reports whether anything changed.
func (s Snapshot) StripLanguages(codes []string) (Snapshot, bool) {
	if len(codes) == 0 {
		return s, false
	}
	drop := make(map[string]struct{}, len(codes))
	for _, c := range codes {
		drop[c] = struct{}{}
	}
	changed := false
	out := s.Clone()
	for i := range out {
		for c := range out[i].Translations {
			if _, ok := drop[c]; ok {
				delete(out[i].Translations, c)
				changed = true
			}
		}
	}
	if !changed {
		return s, false
	}
	return out, true
}
