package browser

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/standardbeagle/pagelens/internal/page"
)

// captureScript flattens the live DOM into the document snapshot the Go
// matching pipeline consumes. It runs entirely in the page: one pass over
// all elements recording geometry, visibility, framework debug attributes,
// and grouped computed styles, with parent links by index.
const captureScript = `(selector) => {
  const styleGroups = {
    layout: ['display', 'position', 'width', 'height', 'flex-direction', 'justify-content', 'align-items', 'grid-template-columns', 'overflow', 'z-index'],
    typography: ['font-family', 'font-size', 'font-weight', 'line-height', 'color', 'text-align', 'letter-spacing'],
    spacing: ['margin', 'padding', 'gap'],
    background: ['background-color', 'background-image'],
    border: ['border', 'border-radius', 'outline'],
    effects: ['box-shadow', 'opacity', 'transform', 'transition', 'filter']
  };

  function groupedStyles(el) {
    const computed = getComputedStyle(el);
    const out = {};
    for (const group in styleGroups) {
      const vals = {};
      let any = false;
      for (const prop of styleGroups[group]) {
        const v = computed.getPropertyValue(prop);
        if (v && v !== 'none' && v !== 'normal' && v !== 'auto') {
          vals[prop] = v;
          any = true;
        }
      }
      if (any) out[group] = vals;
    }
    return out;
  }

  function isVisible(el, rect) {
    if (rect.width <= 0 || rect.height <= 0) return false;
    if (el.checkVisibility) {
      return el.checkVisibility({ checkOpacity: true, checkVisibilityCSS: true });
    }
    const s = getComputedStyle(el);
    return s.display !== 'none' && s.visibility !== 'hidden' && parseFloat(s.opacity) > 0;
  }

  function debugAttrs(el) {
    const file = el.getAttribute('data-source-file') ||
      el.getAttribute('data-inspector-relative-path');
    if (!file) return null;
    return {
      file: file,
      line: parseInt(el.getAttribute('data-source-line') ||
        el.getAttribute('data-inspector-line'), 10) || 0,
      column: parseInt(el.getAttribute('data-source-column') ||
        el.getAttribute('data-inspector-column'), 10) || 0,
      component: el.getAttribute('data-source-component') || ''
    };
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

  const all = document.querySelectorAll('*');
  const indexOf = new Map();
  const elements = [];

  for (const el of all) {
    const rect = el.getBoundingClientRect();
    const idx = elements.length;
    indexOf.set(el, idx);

    let parentIndex = -1;
    if (el.parentElement && indexOf.has(el.parentElement)) {
      parentIndex = indexOf.get(el.parentElement);
    }

    const visible = isVisible(el, rect);
    const text = (el.textContent || '').trim();
    elements.push({
      index: idx,
      parentIndex: parentIndex,
      tagName: el.tagName.toLowerCase(),
      id: el.id || '',
      className: typeof el.className === 'string' ? el.className : '',
      textContent: text.length > 200 ? text.slice(0, 200) : text,
      domPath: domPath(el),
      box: { x: rect.x, y: rect.y, width: rect.width, height: rect.height },
      visible: visible,
      debug: debugAttrs(el),
      styles: visible ? groupedStyles(el) : null
    });
  }

  let target = -1;
  if (selector) {
    const el = document.querySelector(selector);
    if (el && indexOf.has(el)) target = indexOf.get(el);
  }

  return {
    url: location.href,
    title: document.title,
    target: target,
    elements: elements
  };
}`

// Snapshot captures the full document.
func (d *Driver) Snapshot(ctx context.Context) (*page.Document, error) {
	return d.snapshot(ctx, "")
}

// SnapshotSelector captures the document with Target pointing at the first
// element matching selector. Target is -1 when nothing matches.
func (d *Driver) SnapshotSelector(ctx context.Context, selector string) (*page.Document, error) {
	return d.snapshot(ctx, selector)
}

func (d *Driver) snapshot(ctx context.Context, selector string) (*page.Document, error) {
	res, err := d.page.Context(ctx).Eval(captureScript, selector)
	if err != nil {
		return nil, fmt.Errorf("capture script failed: %w", err)
	}

	data, err := json.Marshal(res.Value.Val())
	if err != nil {
		return nil, fmt.Errorf("failed to serialize capture result: %w", err)
	}
	var doc page.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse capture result: %w", err)
	}
	return &doc, nil
}
