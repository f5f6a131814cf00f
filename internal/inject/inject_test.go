package inject

import (
	"bytes"
	"strings"
	"testing"
)

func TestShouldInject(t *testing.T) {
	tests := []struct {
		contentType string
		want        bool
	}{
		{"text/html", true},
		{"text/html; charset=utf-8", true},
		{"TEXT/HTML", true},
		{"application/json", false},
		{"text/javascript", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := ShouldInject(tt.contentType); got != tt.want {
			t.Errorf("ShouldInject(%q) = %v, want %v", tt.contentType, got, tt.want)
		}
	}
}

func TestInject_BeforeHeadClose(t *testing.T) {
	o := NewOverlay("ws://127.0.0.1:8632/__pagelens")
	body := []byte("<html><head><title>x</title></head><body></body></html>")

	out := o.InjectInstrumentation(body)
	scriptAt := bytes.Index(out, []byte("<script>"))
	headCloseAt := bytes.Index(out, []byte("</head>"))
	if scriptAt == -1 || headCloseAt == -1 || scriptAt > headCloseAt {
		t.Errorf("script should land before </head>: %s", out)
	}
}

func TestInject_AfterBodyTag(t *testing.T) {
	o := NewOverlay("ws://127.0.0.1:8632/__pagelens")
	body := []byte(`<body class="app"><div></div></body>`)

	out := o.InjectInstrumentation(body)
	bodyAt := bytes.Index(out, []byte(`<body class="app">`))
	scriptAt := bytes.Index(out, []byte("<script>"))
	if scriptAt == -1 || scriptAt < bodyAt {
		t.Errorf("script should land after the body tag: %s", out)
	}
}

func TestInject_NoMarkers(t *testing.T) {
	o := NewOverlay("ws://127.0.0.1:8632/__pagelens")
	body := []byte("plain fragment")

	out := o.InjectInstrumentation(body)
	if !bytes.HasPrefix(out, []byte("<script>")) {
		t.Error("script should be prepended when no insertion point exists")
	}
	if !bytes.HasSuffix(out, []byte("plain fragment")) {
		t.Error("original body must be preserved")
	}
}

func TestScript_CarriesBridgeURL(t *testing.T) {
	o := NewOverlay("ws://127.0.0.1:9999/__pagelens")
	if !strings.Contains(o.Script(), `"ws://127.0.0.1:9999/__pagelens"`) {
		t.Error("script should embed the bridge URL")
	}
	// Generated once, stable thereafter.
	if o.Script() != o.Script() {
		t.Error("script generation must be stable")
	}
}

func TestJS_StripsScriptTags(t *testing.T) {
	o := NewOverlay("ws://127.0.0.1:8632/__pagelens")
	js := o.JS()
	if strings.Contains(js, "<script>") || strings.Contains(js, "</script>") {
		t.Error("JS() should strip the surrounding tag")
	}
	if !strings.Contains(js, "window.__pagelens") {
		t.Error("JS() should keep the script body")
	}
}
