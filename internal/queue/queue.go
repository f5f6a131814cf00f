// Package queue is the persisted inspection queue: it turns finished
// captures into inspection items, applies status and plan updates, and
// keeps the in-memory list and the on-disk list consistent on every
// mutation.
package queue

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/standardbeagle/pagelens/internal/events"
	"github.com/standardbeagle/pagelens/internal/inspect"
)

const fileName = "inspections.json"

// ErrNotFound is returned when no item matches the requested id.
var ErrNotFound = fmt.Errorf("inspection not found")

// ErrNoCurrent is returned when a status update names no id and no current
// inspection pointer is set. The caller must disambiguate; guessing could
// target the wrong item.
var ErrNoCurrent = fmt.Errorf("no inspection id given and no current inspection is active; pass an explicit inspectionId")

// Queue holds inspection items with write-through JSON persistence.
// Every mutation persists before its event is published, so a subscriber
// reacting to the event always observes consistent stored state.
type Queue struct {
	mu        sync.Mutex
	path      string
	items     []*Item
	currentID string // ephemeral, never persisted
	bus       *events.Bus
}

// Open loads or creates the queue file under dataDir.
func Open(dataDir string, bus *events.Bus) (*Queue, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	q := &Queue{path: filepath.Join(dataDir, fileName), bus: bus}
	if err := q.load(); err != nil {
		return nil, err
	}
	return q, nil
}

func (q *Queue) load() error {
	data, err := os.ReadFile(q.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read inspection queue: %w", err)
	}
	var items []*Item
	if err := json.Unmarshal(data, &items); err != nil {
		return fmt.Errorf("failed to parse inspection queue: %w", err)
	}
	q.items = items
	return nil
}

// persistLocked writes the item list atomically via temp file + rename.
func (q *Queue) persistLocked() error {
	items := q.items
	if items == nil {
		items = []*Item{}
	}
	data, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal inspection queue: %w", err)
	}

	tmpPath := q.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write inspection queue: %w", err)
	}
	if err := os.Rename(tmpPath, q.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to replace inspection queue: %w", err)
	}
	return nil
}

// Finalize converts one capture session's results into persisted items.
// The newest item becomes the current inspection. Items are returned in
// input order, and the element-inspected event carries all of them.
func (q *Queue) Finalize(captures []inspect.InspectedElement, description string, selCtx *SelectedContext) ([]Item, error) {
	if len(captures) == 0 {
		return nil, nil
	}

	q.mu.Lock()
	now := time.Now().UnixMilli()
	created := make([]Item, 0, len(captures))
	for _, captured := range captures {
		item := &Item{
			ID:              uuid.NewString(),
			SourceInfo:      captured,
			Description:     description,
			Status:          StatusPending,
			Timestamp:       now,
			SelectedContext: selCtx,
		}
		q.items = append(q.items, item)
		created = append(created, *item)
	}
	q.currentID = created[len(created)-1].ID
	err := q.persistLocked()
	q.mu.Unlock()

	if err != nil {
		return nil, err
	}
	if q.bus != nil {
		q.bus.Publish(events.TopicElementInspected, FinalizedEvent{Inspections: created})
	}
	return created, nil
}

// UpdateStatus applies a status transition to the item with the given id,
// or to the current inspection when id is empty. Completed and failed set
// the result and clear the current pointer; deleted removes the item;
// in-progress with a plan updates progress without touching the result.
// Repeating a terminal update is idempotent.
func (q *Queue) UpdateStatus(id, status string, plan *Plan, message string) (Item, error) {
	if !ValidStatus(status) {
		return Item{}, fmt.Errorf("invalid status %q", status)
	}

	q.mu.Lock()
	if id == "" {
		if q.currentID == "" {
			q.mu.Unlock()
			return Item{}, ErrNoCurrent
		}
		id = q.currentID
	}

	idx := q.indexLocked(id)
	if idx < 0 {
		q.mu.Unlock()
		return Item{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	if status == StatusDeleted {
		item := *q.items[idx]
		q.removeLocked(idx)
		err := q.persistLocked()
		q.mu.Unlock()
		if err != nil {
			return Item{}, err
		}
		q.publishDeleted(item.ID)
		return item, nil
	}

	item := q.items[idx]
	item.Status = status
	switch status {
	case StatusCompleted, StatusFailed:
		item.Result = message
		if q.currentID == item.ID {
			q.currentID = ""
		}
	case StatusInProgress:
		if plan != nil {
			item.Progress = plan
		}
	}
	updated := *item
	err := q.persistLocked()
	q.mu.Unlock()

	if err != nil {
		return Item{}, err
	}
	if q.bus != nil {
		if status == StatusInProgress && plan != nil {
			q.bus.Publish(events.TopicPlanProgress, ProgressEvent{InspectionID: updated.ID, Plan: plan})
		}
		q.bus.Publish(events.TopicResultReceived, ResultEvent{
			InspectionID: updated.ID,
			Status:       updated.Status,
			Result:       updated.Result,
		})
	}
	return updated, nil
}

// Remove deletes the item with the given id from memory and storage.
func (q *Queue) Remove(id string) error {
	q.mu.Lock()
	idx := q.indexLocked(id)
	if idx < 0 {
		q.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	q.removeLocked(idx)
	err := q.persistLocked()
	q.mu.Unlock()

	if err != nil {
		return err
	}
	q.publishDeleted(id)
	return nil
}

// Get returns a copy of the item with the given id.
func (q *Queue) Get(id string) (Item, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	idx := q.indexLocked(id)
	if idx < 0 {
		return Item{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return *q.items[idx], nil
}

// List returns copies of all items, newest first.
func (q *Queue) List() []Item {
	q.mu.Lock()
	defer q.mu.Unlock()

	out := make([]Item, len(q.items))
	for i, item := range q.items {
		out[i] = *item
	}
	sort.SliceStable(out, func(a, b int) bool {
		return out[a].Timestamp > out[b].Timestamp
	})
	return out
}

// CurrentID returns the current inspection pointer, or empty when unset.
func (q *Queue) CurrentID() string {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.currentID
}

// SetCurrent points the ephemeral current-inspection pointer at id.
func (q *Queue) SetCurrent(id string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.currentID = id
}

func (q *Queue) indexLocked(id string) int {
	for i, item := range q.items {
		if item.ID == id {
			return i
		}
	}
	return -1
}

func (q *Queue) removeLocked(idx int) {
	id := q.items[idx].ID
	q.items = append(q.items[:idx], q.items[idx+1:]...)
	if q.currentID == id {
		q.currentID = ""
	}
}

func (q *Queue) publishDeleted(id string) {
	if q.bus != nil {
		q.bus.Publish(events.TopicInspectionDeleted, DeletedEvent{InspectionID: id})
	}
}
