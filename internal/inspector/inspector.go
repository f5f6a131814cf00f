// Package inspector orchestrates capture flows: automated captures driven
// by selectors or bounds, and interactive captures where the overlay is
// armed and the caller suspends until the user selects something, cancels,
// or the wait times out.
package inspector

import (
	"context"
	"fmt"
	"time"

	"github.com/standardbeagle/pagelens/internal/debug"
	"github.com/standardbeagle/pagelens/internal/events"
	"github.com/standardbeagle/pagelens/internal/geom"
	"github.com/standardbeagle/pagelens/internal/inspect"
	"github.com/standardbeagle/pagelens/internal/page"
	"github.com/standardbeagle/pagelens/internal/pending"
)

// Driver is the page-side collaborator: snapshots come from the browser,
// mode changes go to the overlay.
type Driver interface {
	Snapshot(ctx context.Context) (*page.Document, error)
	SnapshotSelector(ctx context.Context, selector string) (*page.Document, error)
	ActivateElementMode()
	ActivateRegionMode()
	Deactivate()
}

// Inspector runs capture flows against one inspected page.
type Inspector struct {
	driver   Driver
	resolver *inspect.Resolver
	matcher  *inspect.Matcher
	coord    *pending.Coordinator[[]inspect.InspectedElement]
	bus      *events.Bus
}

// New returns an inspector using driver, publishing on bus. timeout bounds
// interactive waits.
func New(driver Driver, bus *events.Bus, timeout time.Duration) *Inspector {
	resolver := inspect.NewResolver()
	return &Inspector{
		driver:   driver,
		resolver: resolver,
		matcher:  inspect.NewMatcher(resolver),
		coord:    pending.NewCoordinatorTimeout[[]inspect.InspectedElement](timeout),
		bus:      bus,
	}
}

// CaptureElement captures element context. With a selector the capture is
// synchronous; without one the overlay enters element mode and the call
// suspends on the pending coordinator.
func (i *Inspector) CaptureElement(ctx context.Context, selector string) ([]inspect.InspectedElement, error) {
	if selector != "" {
		doc, err := i.driver.SnapshotSelector(ctx, selector)
		if err != nil {
			return nil, err
		}
		if doc.Target < 0 {
			return nil, fmt.Errorf("no element matches selector %q", selector)
		}
		el := i.resolver.Resolve(doc, doc.Target)
		el.Automated = true
		return []inspect.InspectedElement{el}, nil
	}

	ch := i.coord.Start()
	i.driver.ActivateElementMode()
	return i.wait(ctx, ch)
}

// CaptureArea captures region context. A container selector scopes the
// region to that element's box; explicit bounds use the given rectangle;
// with neither, the overlay enters region-drawing mode and the call
// suspends. An automated region that matches nothing returns no captures
// and no error, mirroring an interactive empty selection.
func (i *Inspector) CaptureArea(ctx context.Context, containerSelector string, bounds *geom.Rect) ([]inspect.InspectedElement, error) {
	switch {
	case containerSelector != "":
		doc, err := i.driver.SnapshotSelector(ctx, containerSelector)
		if err != nil {
			return nil, err
		}
		if doc.Target < 0 {
			return nil, fmt.Errorf("no element matches selector %q", containerSelector)
		}
		return i.matchRegion(doc, doc.Elements[doc.Target].Box, true), nil

	case bounds != nil:
		doc, err := i.driver.Snapshot(ctx)
		if err != nil {
			return nil, err
		}
		return i.matchRegion(doc, *bounds, true), nil
	}

	ch := i.coord.Start()
	i.driver.ActivateRegionMode()
	return i.wait(ctx, ch)
}

func (i *Inspector) wait(ctx context.Context, ch <-chan pending.Outcome[[]inspect.InspectedElement]) ([]inspect.InspectedElement, error) {
	captures, err := pending.Wait(ctx, ch)
	i.driver.Deactivate()
	if err != nil {
		return nil, err
	}
	return captures, nil
}

func (i *Inspector) matchRegion(doc *page.Document, sel geom.Rect, automated bool) []inspect.InspectedElement {
	match, ok := i.matcher.Match(doc, sel)
	if !ok {
		return nil
	}
	primary := match.Primary
	primary.RelatedElements = match.Related
	primary.Automated = automated
	return []inspect.InspectedElement{primary}
}

// HandleElementSelected is the bridge callback for a click in element
// mode. A fresh snapshot is taken so the reported state is current.
func (i *Inspector) HandleElementSelected(domPath string) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	doc, err := i.driver.Snapshot(ctx)
	if err != nil {
		debug.Error("inspector", "snapshot after selection failed: %v", err)
		i.coord.Cancel("snapshot failed")
		return
	}
	idx := doc.FindByDOMPath(domPath)
	if idx < 0 {
		debug.Warn("inspector", "selected element %q vanished before capture", domPath)
		i.coord.Cancel("selected element no longer present")
		return
	}
	i.coord.Resolve([]inspect.InspectedElement{i.resolver.Resolve(doc, idx)})
}

// HandleRegionSelected is the bridge callback for a completed drag. An
// empty match cancels the wait rather than erroring.
func (i *Inspector) HandleRegionSelected(rect geom.Rect) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	doc, err := i.driver.Snapshot(ctx)
	if err != nil {
		debug.Error("inspector", "snapshot after selection failed: %v", err)
		i.coord.Cancel("snapshot failed")
		return
	}
	captures := i.matchRegion(doc, rect, false)
	if captures == nil {
		i.coord.Cancel("empty selection")
		return
	}
	i.coord.Resolve(captures)
}

// HandleCancel is the bridge callback for Escape or a sub-threshold drag.
func (i *Inspector) HandleCancel(reason string) {
	if i.bus != nil {
		i.bus.Publish(events.TopicInspectorCancelled, reason)
	}
	i.coord.Cancel(reason)
}
