package queue

import (
	"github.com/standardbeagle/pagelens/internal/inspect"
)

// Item statuses. Deleted is terminal and removes the item from storage.
const (
	StatusPending    = "pending"
	StatusInProgress = "in-progress"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
	StatusDeleted    = "deleted"
)

// ValidStatus reports whether s is an accepted status value.
func ValidStatus(s string) bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted, StatusFailed, StatusDeleted:
		return true
	}
	return false
}

// PlanStep is one step of an in-progress work plan attached to an item.
type PlanStep struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Status string `json:"status"`
}

// Plan is an ordered step list; ordering is preserved as given.
type Plan struct {
	Steps []PlanStep `json:"steps"`
}

// SelectedContext describes which captured signals accompany an item.
// The id slices have set semantics; duplicates are harmless.
type SelectedContext struct {
	IncludeElement    bool           `json:"includeElement"`
	IncludeStyles     bool           `json:"includeStyles"`
	IncludeScreenshot bool           `json:"includeScreenshot"`
	IncludePageInfo   bool           `json:"includePageInfo"`
	ConsoleIDs        []int64        `json:"consoleIds,omitempty"`
	NetworkIDs        []int64        `json:"networkIds,omitempty"`
	StdioIDs          []int64        `json:"stdioIds,omitempty"`
	RelatedElementIDs []int          `json:"relatedElementIds,omitempty"`
	ElementNotes      map[int]string `json:"elementNotes,omitempty"`
	Reasoning         string         `json:"reasoning,omitempty"`
	Screenshot        string         `json:"screenshot,omitempty"`
}

// Item is one persisted inspection. ID is assigned at creation and stable
// for the item's lifetime.
type Item struct {
	ID              string                   `json:"id"`
	SourceInfo      inspect.InspectedElement `json:"sourceInfo"`
	Description     string                   `json:"description"`
	Status          string                   `json:"status"`
	Progress        *Plan                    `json:"progress,omitempty"`
	Result          string                   `json:"result,omitempty"`
	Timestamp       int64                    `json:"timestamp"`
	SelectedContext *SelectedContext         `json:"selectedContext,omitempty"`
}

// ResultEvent is the payload published when a status update lands.
type ResultEvent struct {
	InspectionID string `json:"inspectionId"`
	Status       string `json:"status"`
	Result       string `json:"result,omitempty"`
}

// ProgressEvent is the payload published when a plan update lands.
type ProgressEvent struct {
	InspectionID string `json:"inspectionId"`
	Plan         *Plan  `json:"plan"`
}

// DeletedEvent is the payload published when an item is removed.
type DeletedEvent struct {
	InspectionID string `json:"inspectionId"`
}

// FinalizedEvent is the payload published when captures become items.
type FinalizedEvent struct {
	Inspections []Item `json:"inspections"`
}
