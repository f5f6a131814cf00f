package browser

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/go-rod/rod/lib/proto"
)

// ExecResult is the outcome of a tool-driven script evaluation.
type ExecResult struct {
	Value string `json:"value,omitempty"`
	Error string `json:"error,omitempty"`
}

// execWrapper runs caller code via eval and stringifies whatever comes
// back, capturing thrown errors with their stacks instead of failing the
// protocol call.
const execWrapper = `(code) => {
  try {
    let result = eval(code);
    if (result === undefined) return { value: 'undefined' };
    if (result === null) return { value: 'null' };
    if (typeof result === 'function') return { value: result.toString() };
    if (typeof result === 'object') {
      try { return { value: JSON.stringify(result, null, 2) }; }
      catch (e) { return { value: String(result) }; }
    }
    return { value: String(result) };
  } catch (err) {
    let msg = err.toString();
    if (err.stack) msg += '\n' + err.stack;
    return { error: msg };
  }
}`

// ExecScript evaluates code in the page and returns its stringified result
// or the thrown error with stack. The code runs with full page privileges;
// callers are trusted.
func (d *Driver) ExecScript(ctx context.Context, code string) (ExecResult, error) {
	res, err := d.page.Context(ctx).Eval(execWrapper, code)
	if err != nil {
		return ExecResult{}, fmt.Errorf("script evaluation failed: %w", err)
	}

	data, err := json.Marshal(res.Value.Val())
	if err != nil {
		return ExecResult{}, fmt.Errorf("failed to serialize script result: %w", err)
	}
	var out ExecResult
	if err := json.Unmarshal(data, &out); err != nil {
		return ExecResult{}, fmt.Errorf("failed to parse script result: %w", err)
	}
	return out, nil
}

// PageInfo is the page summary returned by the get_page_info tool.
type PageInfo struct {
	URL      string `json:"url"`
	Title    string `json:"title"`
	Viewport struct {
		Width  int `json:"width"`
		Height int `json:"height"`
	} `json:"viewport"`
	AccessibilityTree []A11yNode `json:"accessibilityTree,omitempty"`
}

// A11yNode is one node of the depth-bounded accessibility summary.
type A11yNode struct {
	Role     string     `json:"role"`
	Name     string     `json:"name,omitempty"`
	Depth    int        `json:"depth"`
	Children []A11yNode `json:"children,omitempty"`
}

// pageInfoScript walks the DOM collecting implicit/explicit roles down to
// maxDepth levels, capped at maxNodes total.
const pageInfoScript = `(maxDepth, maxNodes) => {
  let count = 0;

  function role(el) {
    const explicit = el.getAttribute('role');
    if (explicit) return explicit;
    const implicit = {
      a: 'link', button: 'button', nav: 'navigation', main: 'main',
      header: 'banner', footer: 'contentinfo', aside: 'complementary',
      form: 'form', input: 'textbox', select: 'combobox', textarea: 'textbox',
      img: 'img', h1: 'heading', h2: 'heading', h3: 'heading',
      h4: 'heading', h5: 'heading', h6: 'heading', ul: 'list', ol: 'list',
      li: 'listitem', table: 'table', dialog: 'dialog'
    };
    return implicit[el.tagName.toLowerCase()] || '';
  }

  function name(el) {
    const label = el.getAttribute('aria-label');
    if (label) return label;
    if (el.tagName === 'IMG') return el.getAttribute('alt') || '';
    const text = (el.textContent || '').trim();
    return text.length > 80 ? text.slice(0, 80) : text;
  }

  function walk(el, depth) {
    if (depth > maxDepth || count >= maxNodes) return [];
    const out = [];
    for (const child of el.children) {
      if (count >= maxNodes) break;
      const r = role(child);
      if (r) {
        count++;
        out.push({
          role: r,
          name: r === 'list' || r === 'table' ? '' : name(child),
          depth: depth,
          children: walk(child, depth + 1)
        });
      } else {
        out.push(...walk(child, depth + 1));
      }
    }
    return out;
  }

  return {
    url: location.href,
    title: document.title,
    viewport: { width: window.innerWidth, height: window.innerHeight },
    accessibilityTree: walk(document.body, 0)
  };
}`

const (
	a11yMaxDepth = 8
	a11yMaxNodes = 400
)

// GetPageInfo returns URL, title, viewport, and the accessibility summary.
func (d *Driver) GetPageInfo(ctx context.Context) (*PageInfo, error) {
	res, err := d.page.Context(ctx).Eval(pageInfoScript, a11yMaxDepth, a11yMaxNodes)
	if err != nil {
		return nil, fmt.Errorf("page info script failed: %w", err)
	}

	data, err := json.Marshal(res.Value.Val())
	if err != nil {
		return nil, fmt.Errorf("failed to serialize page info: %w", err)
	}
	var info PageInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, fmt.Errorf("failed to parse page info: %w", err)
	}
	return &info, nil
}

// Screenshot captures the viewport as a PNG data URL.
func (d *Driver) Screenshot(ctx context.Context) (string, error) {
	data, err := d.page.Context(ctx).Screenshot(false, &proto.PageCaptureScreenshot{
		Format: proto.PageCaptureScreenshotFormatPng,
	})
	if err != nil {
		return "", fmt.Errorf("screenshot failed: %w", err)
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(data), nil
}
