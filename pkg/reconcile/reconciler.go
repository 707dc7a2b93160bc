// Package reconcile compares the todos currently in a document against the
// sync store and drives the calendar into agreement: new todos get events
// stacked into sequential time slots, changed ones are rewritten, completed
// ones get their event annotated, and vanished ones have their event deleted.
package reconcile

import (
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/harrisonrobin/planstack/pkg/model"
	"github.com/harrisonrobin/planstack/pkg/store"
)

// Gateway is the calendar surface a pass drives. DeleteEvent must treat an
// event that is already gone as success, so orphan deletions can be retried.
type Gateway interface {
	CreateEvent(title string, start time.Time, durationMinutes int) (string, error)
	UpdateEvent(eventID, title string, start time.Time, durationMinutes int) error
	PatchDescription(eventID, description string) error
	DeleteEvent(eventID string) error
}

type ActionKind string

const (
	ActionCreate   ActionKind = "create"
	ActionUpdate   ActionKind = "update"
	ActionComplete ActionKind = "complete"
	ActionDelete   ActionKind = "delete"
)

// Action records one calendar mutation a pass decided on, and, once
// executed, whether it failed.
type Action struct {
	Kind       ActionKind
	Identifier string
	EventID    string
	Title      string
	Start      time.Time
	Minutes    int
	Line       int
	Err        error
}

// Result tallies one reconciliation pass over one document.
type Result struct {
	Created   int
	Updated   int
	Completed int
	Deleted   int
	Unchanged int
	Failed    int
	Actions   []Action
}

// Syncer runs reconciliation passes against one store and one gateway.
type Syncer struct {
	st *store.Store
	gw Gateway

	// DryRun decides and reports actions without calling the gateway or
	// saving the store.
	DryRun bool
}

func New(st *store.Store, gw Gateway) *Syncer {
	return &Syncer{st: st, gw: gw}
}

// SyncDocument reconciles one document's todos against the store and the
// calendar. The cursor is the first slot of the day (the configured start
// time); incomplete todos consume slots from it in document order. Remote
// calls run sequentially; a failed call is logged and counted but never
// aborts the pass. The store is persisted before returning.
func (s *Syncer) SyncDocument(document string, todos []model.Todo, cursor time.Time) (Result, error) {
	existing := s.st.Entries(document)

	byID := make(map[string]store.Entry, len(existing))
	for _, e := range existing {
		if _, ok := byID[e.Identifier]; !ok {
			byID[e.Identifier] = e
		}
	}

	var res Result
	present := make(map[string]bool, len(todos))
	updated := make(map[string]store.Entry)
	removed := make(map[string]bool)
	var added []store.Entry

	for _, todo := range todos {
		present[todo.Identifier] = true
		entry, exists := byID[todo.Identifier]

		if todo.Completed {
			if !exists {
				// Completed before it was ever synced: there is no event to
				// annotate, and none is created.
				log.Debug().Str("document", document).Int("line", todo.SourceLine).
					Msg("completed todo was never synced, skipping")
				continue
			}
			action := Action{Kind: ActionComplete, Identifier: todo.Identifier,
				EventID: entry.EventID, Title: todo.Text, Line: todo.SourceLine}
			action.Err = s.patchDescription(entry.EventID, Annotation(todo.EstimatedMinutes, todo.ActualMinutes))
			if action.Err != nil {
				res.Failed++
				log.Warn().Err(action.Err).Str("document", document).Int("line", todo.SourceLine).
					Str("identifier", todo.Identifier).Msg("annotating completed todo failed")
			} else {
				res.Completed++
			}
			res.Actions = append(res.Actions, action)
			// Completed todos hold no slot: the cursor does not advance.
			continue
		}

		start := cursor
		cursor = cursor.Add(time.Duration(todo.EstimatedMinutes) * time.Minute)

		switch {
		case !exists:
			action := Action{Kind: ActionCreate, Identifier: todo.Identifier,
				Title: todo.Text, Start: start, Minutes: todo.EstimatedMinutes, Line: todo.SourceLine}
			eventID, err := s.createEvent(todo.Text, start, todo.EstimatedMinutes)
			action.EventID, action.Err = eventID, err
			if err != nil {
				// No entry is written for a failed create; the next pass
				// retries it.
				res.Failed++
				log.Warn().Err(err).Str("document", document).Int("line", todo.SourceLine).
					Str("identifier", todo.Identifier).Msg("creating event failed")
			} else {
				res.Created++
				e := store.Entry{
					Identifier:       todo.Identifier,
					EventID:          eventID,
					Document:         document,
					Text:             todo.Text,
					EstimatedMinutes: todo.EstimatedMinutes,
					SyncedAt:         time.Now(),
				}
				added = append(added, e)
				// Later duplicates of this identifier in the same pass must
				// see the binding, or they would create a second event.
				byID[todo.Identifier] = e
			}
			res.Actions = append(res.Actions, action)

		case entry.Text != todo.Text || entry.EstimatedMinutes != todo.EstimatedMinutes:
			action := Action{Kind: ActionUpdate, Identifier: todo.Identifier, EventID: entry.EventID,
				Title: todo.Text, Start: start, Minutes: todo.EstimatedMinutes, Line: todo.SourceLine}
			action.Err = s.updateEvent(entry.EventID, todo.Text, start, todo.EstimatedMinutes)
			if action.Err != nil {
				// The stale entry stays as-is so the difference is detected
				// and retried on the next pass.
				res.Failed++
				log.Warn().Err(action.Err).Str("document", document).Int("line", todo.SourceLine).
					Str("identifier", todo.Identifier).Msg("updating event failed")
			} else {
				res.Updated++
				entry.Text = todo.Text
				entry.EstimatedMinutes = todo.EstimatedMinutes
				entry.SyncedAt = time.Now()
				updated[todo.Identifier] = entry
				byID[todo.Identifier] = entry
			}
			res.Actions = append(res.Actions, action)

		default:
			// Nothing to write, but the todo still occupies its slot.
			res.Unchanged++
		}
	}

	// Entries whose todo no longer appears in the document are orphans.
	for _, e := range existing {
		if present[e.Identifier] || removed[e.Identifier] {
			continue
		}
		action := Action{Kind: ActionDelete, Identifier: e.Identifier, EventID: e.EventID, Title: e.Text}
		action.Err = s.deleteEvent(e.EventID)
		if action.Err != nil {
			// Keep the entry; the delete is retried next pass, and the
			// gateway treats an already-deleted event as success.
			res.Failed++
			log.Warn().Err(action.Err).Str("document", document).
				Str("identifier", e.Identifier).Msg("deleting orphaned event failed")
		} else {
			res.Deleted++
			removed[e.Identifier] = true
		}
		res.Actions = append(res.Actions, action)
	}

	final := make([]store.Entry, 0, len(existing)+len(added))
	seen := make(map[string]bool, len(existing))
	for _, e := range existing {
		if removed[e.Identifier] || seen[e.Identifier] {
			continue
		}
		seen[e.Identifier] = true
		if u, ok := updated[e.Identifier]; ok {
			final = append(final, u)
			continue
		}
		final = append(final, e)
	}
	final = append(final, added...)

	if s.DryRun {
		return res, nil
	}
	s.st.SetEntries(document, final)
	if err := s.st.Save(); err != nil {
		return res, errors.Wrap(err, "saving sync store")
	}
	return res, nil
}

func (s *Syncer) createEvent(title string, start time.Time, minutes int) (string, error) {
	if s.DryRun {
		return "", nil
	}
	return s.gw.CreateEvent(title, start, minutes)
}

func (s *Syncer) updateEvent(eventID, title string, start time.Time, minutes int) error {
	if s.DryRun {
		return nil
	}
	return s.gw.UpdateEvent(eventID, title, start, minutes)
}

func (s *Syncer) patchDescription(eventID, description string) error {
	if s.DryRun {
		return nil
	}
	return s.gw.PatchDescription(eventID, description)
}

func (s *Syncer) deleteEvent(eventID string) error {
	if s.DryRun {
		return nil
	}
	return s.gw.DeleteEvent(eventID)
}
