package interact

import (
	"bytes"
	"strings"
	"testing"
)

func TestKeyForLabel(t *testing.T) {
	tests := []struct {
		label string
		want  string
	}{
		{"Name", "name"},
		{"Created At", "created_at"},
		{"Active Status", "is_active"},
		{"Password", "generated_password"},
		{"ID", "id"},
		{"Id", "id"},
		{"URL", "url"},
		{"#", "#"},
	}
	for _, tt := range tests {
		if got := KeyForLabel(tt.label); got != tt.want {
			t.Errorf("KeyForLabel(%q) = %q, want %q", tt.label, got, tt.want)
		}
	}
}

func TestRenderTable(t *testing.T) {
	var out bytes.Buffer
	rows := []map[string]any{
		{"name": "alpha", "is_active": true},
		{"name": "beta", "is_active": false},
	}
	err := RenderTable(&out, "Projects", []string{"Name", "Active Status"}, rows, nil)
	if err != nil {
		t.Fatalf("RenderTable: %v", err)
	}

	rendered := out.String()
	for _, want := range []string{"Projects", "alpha", "beta", "true", "false"} {
		if !strings.Contains(rendered, want) {
			t.Errorf("expected %q in table, got %q", want, rendered)
		}
	}
}

func TestRenderTableCustomFormatter(t *testing.T) {
	var out bytes.Buffer
	rows := []map[string]any{{"name": "alpha"}}
	formatter := func(item map[string]any, columns []string) []string {
		return []string{"<" + Stringify(item["name"]) + ">"}
	}
	if err := RenderTable(&out, "", []string{"Name"}, rows, formatter); err != nil {
		t.Fatalf("RenderTable: %v", err)
	}
	if !strings.Contains(out.String(), "<alpha>") {
		t.Errorf("expected formatted cell, got %q", out.String())
	}
}

func TestRenderMeta(t *testing.T) {
	var out bytes.Buffer
	RenderMeta(&out, map[string]any{
		"count":    float64(42),
		"next":     "https://api.example/projects/?page=2",
		"previous": "",
	})
	line := out.String()
	if !strings.Contains(line, "Total: 42") {
		t.Errorf("expected count, got %q", line)
	}
	if !strings.Contains(line, "next: https://api.example/projects/?page=2") {
		t.Errorf("expected next link, got %q", line)
	}
	if strings.Contains(line, "previous:") {
		t.Errorf("empty previous must be omitted, got %q", line)
	}
}

func TestRenderMetaNoCount(t *testing.T) {
	var out bytes.Buffer
	RenderMeta(&out, map[string]any{"results": []any{}})
	if out.Len() != 0 {
		t.Errorf("expected no output without count, got %q", out.String())
	}
}

func TestRows(t *testing.T) {
	resp := map[string]any{
		"results": []any{
			map[string]any{"id": float64(1)},
			"not-a-map",
			map[string]any{"id": float64(2)},
		},
	}
	rows := Rows(resp, "results")
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}

	if got := Rows(map[string]any{}, "results"); got != nil {
		t.Errorf("missing key must yield nil, got %v", got)
	}
	if got := Rows(map[string]any{"results": "nope"}, "results"); got != nil {
		t.Errorf("non-list value must yield nil, got %v", got)
	}
}
