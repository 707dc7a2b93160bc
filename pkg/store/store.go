// Package store persists the bindings between todo identifiers and the
// calendar events created for them. The file is the only durable state the
// reconciler has: it is loaded wholesale before a pass and rewritten
// wholesale after it.
package store

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
)

// ErrCorrupt reports that the backing file existed but could not be read or
// decoded. The store degrades to empty rather than failing the pass; the
// caller is expected to log it.
var ErrCorrupt = errors.New("sync store unreadable")

// Entry is one identifier → event binding together with the todo fields as
// they were last written to the calendar.
type Entry struct {
	Identifier       string    `json:"identifier"`
	EventID          string    `json:"event_id"`
	Document         string    `json:"document"`
	Text             string    `json:"text"`
	EstimatedMinutes int       `json:"estimated_minutes"`
	SyncedAt         time.Time `json:"synced_at"`
}

type fileLayout struct {
	Entries []Entry `json:"entries"`
}

// Store holds the entry list in memory between Open and Save.
type Store struct {
	path    string
	entries []Entry
	dirty   bool
}

// Open loads the store at path. A missing file is an empty store. A file
// that cannot be read or decoded also yields an empty, fully usable store,
// plus an error wrapping ErrCorrupt so the condition can be reported; the
// previously synced events will simply be recreated on the next pass.
func Open(path string) (*Store, error) {
	s := &Store{path: path}

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return s, errors.Wrapf(ErrCorrupt, "opening %s: %v", path, err)
	}
	defer f.Close()

	var layout fileLayout
	if err := json.NewDecoder(f).Decode(&layout); err != nil {
		return s, errors.Wrapf(ErrCorrupt, "decoding %s: %v", path, err)
	}
	s.entries = layout.Entries
	return s, nil
}

// Entries returns the stored entries for one document, in stored order.
func (s *Store) Entries(document string) []Entry {
	var out []Entry
	for _, e := range s.entries {
		if e.Document == document {
			out = append(out, e)
		}
	}
	return out
}

// SetEntries replaces every entry belonging to document with the given
// slice, splicing it in where the document's entries already sat so that an
// unchanged pass leaves the file untouched. Entries of other documents are
// never affected.
func (s *Store) SetEntries(document string, entries []Entry) {
	kept := make([]Entry, 0, len(s.entries)+len(entries))
	inserted := false
	for _, e := range s.entries {
		if e.Document == document {
			if !inserted {
				kept = append(kept, entries...)
				inserted = true
			}
			continue
		}
		kept = append(kept, e)
	}
	if !inserted {
		kept = append(kept, entries...)
	}

	if equalEntries(s.entries, kept) {
		return
	}
	s.entries = kept
	s.dirty = true
}

// Save rewrites the backing file when anything changed since Open.
func (s *Store) Save() error {
	if !s.dirty {
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return errors.Wrap(err, "creating sync store directory")
	}
	f, err := os.Create(s.path)
	if err != nil {
		return errors.Wrap(err, "creating sync store file")
	}
	defer f.Close()

	encoder := json.NewEncoder(f)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(fileLayout{Entries: s.entries}); err != nil {
		return errors.Wrap(err, "writing sync store")
	}
	s.dirty = false
	return nil
}

func equalEntries(a, b []Entry) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
