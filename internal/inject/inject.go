// Package inject builds the in-page overlay script and splices it into
// HTML documents. The overlay draws the inspection UI (hover highlight,
// drag rectangle) and reports selections back over the WebSocket bridge;
// all matching and resolution happens server-side.
package inject

import (
	"bytes"
	"fmt"
	"strings"
	"sync"
)

// Overlay generates the instrumentation script for one bridge endpoint.
type Overlay struct {
	bridgeURL string

	once   sync.Once
	script string
}

// NewOverlay returns an overlay generator targeting the given WebSocket
// URL, e.g. "ws://127.0.0.1:8632/__pagelens".
func NewOverlay(bridgeURL string) *Overlay {
	return &Overlay{bridgeURL: bridgeURL}
}

// Script returns the full <script> block, generated once.
func (o *Overlay) Script() string {
	o.once.Do(func() {
		o.script = generateScript(o.bridgeURL)
	})
	return o.script
}

// JS returns the raw script body without the surrounding tag, for
// evaluation through a DevTools session instead of HTML injection.
func (o *Overlay) JS() string {
	s := o.Script()
	s = strings.TrimPrefix(strings.TrimSpace(s), "<script>")
	s = strings.TrimSuffix(strings.TrimSpace(s), "</script>")
	return s
}

// ShouldInject reports whether a response with this content type should
// receive the overlay.
func ShouldInject(contentType string) bool {
	return strings.Contains(strings.ToLower(contentType), "text/html")
}

// InjectInstrumentation splices the overlay script into an HTML body,
// preferring placement before </head> and degrading through <head>,
// <body>, <html>, and finally a plain prepend.
func (o *Overlay) InjectInstrumentation(body []byte) []byte {
	script := []byte(o.Script())

	if idx := bytes.Index(body, []byte("</head>")); idx != -1 {
		return splice(body, script, idx)
	}
	if idx := bytes.Index(body, []byte("<head>")); idx != -1 {
		return splice(body, script, idx+len("<head>"))
	}
	if insertAt := afterTag(body, "<body"); insertAt != -1 {
		return splice(body, script, insertAt)
	}
	if insertAt := afterTag(body, "<html"); insertAt != -1 {
		return splice(body, script, insertAt)
	}
	return splice(body, script, 0)
}

func afterTag(body []byte, tag string) int {
	idx := bytes.Index(body, []byte(tag))
	if idx == -1 {
		return -1
	}
	end := bytes.Index(body[idx:], []byte(">"))
	if end == -1 {
		return -1
	}
	return idx + end + 1
}

func splice(body, script []byte, at int) []byte {
	result := make([]byte, 0, len(body)+len(script))
	result = append(result, body[:at]...)
	result = append(result, script...)
	result = append(result, body[at:]...)
	return result
}

func generateScript(bridgeURL string) string {
	return fmt.Sprintf(`<script>
(function() {
  'use strict';
  if (window.__pagelens) return;
  window.__pagelens = true;

  const WS_URL = %q;
  const MIN_DRAG = 5;
  let ws = null;
  let reconnectAttempts = 0;
  let mode = null; // null | 'element' | 'region'
  let dragStart = null;

  const highlight = document.createElement('div');
  highlight.id = '__pagelens-highlight';
  highlight.style.cssText = 'position:fixed;pointer-events:none;z-index:2147483646;' +
    'border:2px solid #6d9eeb;background:rgba(109,158,235,0.15);display:none;';

  const band = document.createElement('div');
  band.id = '__pagelens-band';
  band.style.cssText = 'position:fixed;pointer-events:none;z-index:2147483647;' +
    'border:1px dashed #6d9eeb;background:rgba(109,158,235,0.08);display:none;';

  function mount() {
    if (!document.body) { setTimeout(mount, 50); return; }
    document.body.appendChild(highlight);
    document.body.appendChild(band);
  }
  mount();

  function connect() {
    try {
      ws = new WebSocket(WS_URL);
      ws.onopen = function() { reconnectAttempts = 0; };
      ws.onmessage = function(event) {
        let msg;
        try { msg = JSON.parse(event.data); } catch (e) { return; }
        if (msg.type === 'activate-element') setMode('element');
        else if (msg.type === 'activate-region') setMode('region');
        else if (msg.type === 'deactivate') setMode(null);
      };
      ws.onclose = function() {
        if (reconnectAttempts < 5) {
          reconnectAttempts++;
          setTimeout(connect, 1000 * reconnectAttempts);
        }
      };
    } catch (e) { /* bridge unavailable */ }
  }
  connect();

  function send(msg) {
    if (ws && ws.readyState === WebSocket.OPEN) ws.send(JSON.stringify(msg));
  }

  function setMode(m) {
    mode = m;
    dragStart = null;
    highlight.style.display = 'none';
    band.style.display = 'none';
    document.documentElement.style.cursor = m ? 'crosshair' : '';
  }

  function domPath(el) {
    const parts = [];
    while (el && el.nodeType === 1 && el !== document.documentElement) {
      let part = el.tagName.toLowerCase();
      if (el.id) {
        parts.unshift(part + '#' + el.id);
        break;
      }
      const parent = el.parentElement;
      if (parent) {
        const siblings = Array.prototype.filter.call(parent.children,
          function(c) { return c.tagName === el.tagName; });
        if (siblings.length > 1) {
          part += ':nth-of-type(' + (siblings.indexOf(el) + 1) + ')';
        }
      }
      parts.unshift(part);
      el = parent;
    }
    return 'html>' + parts.join('>');
  }

  document.addEventListener('mousemove', function(e) {
    if (mode !== 'element') return;
    const el = document.elementFromPoint(e.clientX, e.clientY);
    if (!el || el.id && el.id.indexOf('__pagelens') === 0) return;
    const r = el.getBoundingClientRect();
    highlight.style.display = 'block';
    highlight.style.left = r.left + 'px';
    highlight.style.top = r.top + 'px';
    highlight.style.width = r.width + 'px';
    highlight.style.height = r.height + 'px';
  }, true);

  document.addEventListener('mousedown', function(e) {
    if (mode !== 'region' || e.button !== 0) return;
    dragStart = { x: e.clientX, y: e.clientY };
    e.preventDefault();
    e.stopPropagation();
  }, true);

  document.addEventListener('mousemove', function(e) {
    if (mode !== 'region' || !dragStart) return;
    const r = rectFrom(dragStart, e);
    band.style.display = 'block';
    band.style.left = r.x + 'px';
    band.style.top = r.y + 'px';
    band.style.width = r.width + 'px';
    band.style.height = r.height + 'px';
  }, true);

  document.addEventListener('mouseup', function(e) {
    if (!mode) return;
    e.preventDefault();
    e.stopPropagation();
    if (mode === 'element') {
      const el = document.elementFromPoint(e.clientX, e.clientY);
      if (el) send({ type: 'element-selected', domPath: domPath(el) });
      setMode(null);
      return;
    }
    if (mode === 'region' && dragStart) {
      const r = rectFrom(dragStart, e);
      setMode(null);
      if (r.width < MIN_DRAG || r.height < MIN_DRAG) {
        send({ type: 'cancel', reason: 'click, not drag' });
      } else {
        send({ type: 'region-selected', rect: r });
      }
    }
  }, true);

  document.addEventListener('keydown', function(e) {
    if (e.key === 'Escape' && mode) {
      setMode(null);
      send({ type: 'cancel', reason: 'escape' });
    }
  }, true);

  function rectFrom(start, e) {
    return {
      x: Math.min(start.x, e.clientX),
      y: Math.min(start.y, e.clientY),
      width: Math.abs(e.clientX - start.x),
      height: Math.abs(e.clientY - start.y)
    };
  }
})();
</script>
`, bridgeURL)
}
