package cli

import (
	"bytes"
	"strings"
	"testing"
)

func TestOutputTable(t *testing.T) {
	var buf bytes.Buffer
	o := &Output{w: &buf, errW: &bytes.Buffer{}}

	o.Print(
		[]string{"ID", "STATUS", "FIRST_ERROR"},
		[][]string{
			{"r-1", "success", ""},
			{"r-2", "failed", strings.Repeat("x", 100)},
		},
		nil,
	)

	got := buf.String()
	if !strings.Contains(got, "ID") {
		t.Fatalf("missing header row:\n%s", got)
	}
	// Пустое опциональное поле — прочерк
	if !strings.Contains(got, "-") {
		t.Errorf("empty cell should render as dash:\n%s", got)
	}
	// Длинное значение усечено
	if strings.Contains(got, strings.Repeat("x", 100)) {
		t.Errorf("long cell should be truncated:\n%s", got)
	}
	if !strings.Contains(got, "…") {
		t.Errorf("truncated cell should end with ellipsis:\n%s", got)
	}
}

func TestOutputJSONMode(t *testing.T) {
	var buf bytes.Buffer
	o := &Output{jsonMode: true, w: &buf, errW: &bytes.Buffer{}}

	o.Print([]string{"ID"}, [][]string{{"r-1"}}, map[string]string{"id": "r-1"})

	got := buf.String()
	if !strings.Contains(got, `"id": "r-1"`) {
		t.Errorf("json mode should encode data, got:\n%s", got)
	}
	if strings.Contains(got, "ID\t") {
		t.Errorf("json mode should not render a table:\n%s", got)
	}
}

func TestCellValue(t *testing.T) {
	if got := cellValue(""); got != "-" {
		t.Errorf("cellValue(\"\") = %q, want -", got)
	}
	if got := cellValue("ok"); got != "ok" {
		t.Errorf("cellValue(ok) = %q", got)
	}
	long := strings.Repeat("а", cellLimit+10) // кириллица: усечение по рунам
	got := cellValue(long)
	if r := []rune(got); len(r) != cellLimit {
		t.Errorf("truncated length = %d runes, want %d", len(r), cellLimit)
	}
}
