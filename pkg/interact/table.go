package interact

import (
	"fmt"
	"io"
	"strings"

	"github.com/pterm/pterm"
)

// RowFormatter maps one entity to its cell strings, given the ordered
// column labels.
type RowFormatter func(item map[string]any, columns []string) []string

// specialKeys are column labels whose payload key does not follow the
// mechanical title-to-snake rule.
var specialKeys = map[string]string{
	"#":             "#",
	"Active Status": "is_active",
	"Password":      "generated_password",
	"Id":            "id",
	"ID":            "id",
	"Url":           "url",
	"URL":           "url",
}

// KeyForLabel derives the payload key for a column label: the special-case
// table first, then Title Case to snake_case.
func KeyForLabel(label string) string {
	if key, ok := specialKeys[label]; ok {
		return key
	}
	return strings.ToLower(strings.ReplaceAll(strings.TrimSpace(label), " ", "_"))
}

// RenderTable renders a titled, bordered table of rows. A nil formatter
// falls back to the label-to-key lookup on each item.
func RenderTable(out io.Writer, title string, columns []string, rows []map[string]any, formatter RowFormatter) error {
	if formatter == nil {
		formatter = func(item map[string]any, cols []string) []string {
			cells := make([]string, len(cols))
			for i, col := range cols {
				cells[i] = fieldString(item, KeyForLabel(col))
			}
			return cells
		}
	}

	data := make(pterm.TableData, 0, len(rows)+1)
	data = append(data, columns)
	for _, row := range rows {
		data = append(data, formatter(row, columns))
	}

	if title != "" {
		fmt.Fprintln(out, pterm.Bold.Sprint(title))
	}
	rendered, err := pterm.DefaultTable.
		WithHasHeader(true).
		WithBoxed(true).
		WithData(data).
		Srender()
	if err != nil {
		return fmt.Errorf("failed to render table: %w", err)
	}
	fmt.Fprintln(out, rendered)
	return nil
}

// RenderMeta prints the pagination metadata a list response carries.
func RenderMeta(out io.Writer, resp map[string]any) {
	count, hasCount := resp["count"]
	if !hasCount {
		return
	}
	line := fmt.Sprintf("Total: %v", count)
	if next, ok := resp["next"].(string); ok && next != "" {
		line += "  next: " + next
	}
	if prev, ok := resp["previous"].(string); ok && prev != "" {
		line += "  previous: " + prev
	}
	fmt.Fprintln(out, line)
}

// Rows extracts the result list from a backend list response: either the
// conventional "results" envelope or a bare list under the given key.
func Rows(resp map[string]any, key string) []map[string]any {
	value, ok := resp[key]
	if !ok {
		return nil
	}
	list, ok := value.([]any)
	if !ok {
		return nil
	}
	out := make([]map[string]any, 0, len(list))
	for _, item := range list {
		if m, ok := item.(map[string]any); ok {
			out = append(out, m)
		}
	}
	return out
}
