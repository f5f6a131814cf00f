package browser

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-rod/rod/lib/proto"

	"github.com/standardbeagle/pagelens/internal/debug"
	"github.com/standardbeagle/pagelens/internal/eventlog"
)

const lifecycleBinding = "__pagelens_lifecycle"

// lifecycleScript reports page-hide and tab-hidden transitions through a
// runtime binding, since CDP has no native event for visibility changes.
const lifecycleScript = `
if (!window.__pagelens_lifecycle_hooked) {
  window.__pagelens_lifecycle_hooked = true;
  window.addEventListener('pagehide', function() {
    if (window.` + lifecycleBinding + `) window.` + lifecycleBinding + `('pagehide');
  });
  document.addEventListener('visibilitychange', function() {
    if (document.visibilityState === 'hidden' && window.` + lifecycleBinding + `) {
      window.` + lifecycleBinding + `('hidden');
    }
  });
}
`

// WatchEvents streams console and network activity into log and invokes
// onHidden when the page hides or unloads. Runs until ctx is cancelled.
func (d *Driver) WatchEvents(ctx context.Context, log *eventlog.Log, onHidden func()) error {
	if err := (proto.RuntimeAddBinding{Name: lifecycleBinding}).Call(d.page); err != nil {
		return fmt.Errorf("failed to add lifecycle binding: %w", err)
	}
	if err := d.InjectScript(ctx, lifecycleScript); err != nil {
		return err
	}

	go d.page.Context(ctx).EachEvent(
		func(e *proto.RuntimeConsoleAPICalled) {
			log.RecordAsync(&eventlog.Event{
				Kind:  eventlog.KindConsole,
				Level: string(e.Type),
				Text:  consoleText(e.Args),
			})
		},
		func(e *proto.NetworkResponseReceived) {
			log.RecordAsync(&eventlog.Event{
				Kind:   eventlog.KindNetwork,
				Method: string(e.Type),
				URL:    e.Response.URL,
				Status: e.Response.Status,
			})
		},
		func(e *proto.RuntimeBindingCalled) {
			if e.Name != lifecycleBinding {
				return
			}
			debug.Info("browser", "page lifecycle: %s", e.Payload)
			if onHidden != nil {
				onHidden()
			}
		},
	)()
	return nil
}

func consoleText(args []*proto.RuntimeRemoteObject) string {
	parts := make([]string, 0, len(args))
	for _, a := range args {
		if a == nil {
			continue
		}
		if v := a.Value.Val(); v != nil {
			parts = append(parts, fmt.Sprint(v))
		} else if a.Description != "" {
			parts = append(parts, a.Description)
		}
	}
	return strings.Join(parts, " ")
}
