package interact

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
)

// Cursor tracks one pagination session: the original list, the filtered
// view, the active filter term, and the current page.
//
// Invariants: 0 <= page < max(1, ceil(len(filtered)/size)); filtered is an
// order-preserving subset of original; clearing the filter restores the
// full list and resets the page.
type Cursor struct {
	original []map[string]any
	filtered []map[string]any
	term     string
	page     int
	size     int
}

// NewCursor creates a cursor over items with the given page size.
func NewCursor(items []map[string]any, size int) *Cursor {
	if size <= 0 {
		size = 10
	}
	return &Cursor{original: items, filtered: items, size: size}
}

// PageIndex returns the zero-based page index.
func (c *Cursor) PageIndex() int { return c.page }

// PageSize returns the page size.
func (c *Cursor) PageSize() int { return c.size }

// TotalPages returns the page count of the filtered view, at least 1.
func (c *Cursor) TotalPages() int {
	pages := (len(c.filtered) + c.size - 1) / c.size
	if pages < 1 {
		pages = 1
	}
	return pages
}

// Filtered returns the current filtered view.
func (c *Cursor) Filtered() []map[string]any { return c.filtered }

// Original returns the unfiltered list.
func (c *Cursor) Original() []map[string]any { return c.original }

// Term returns the active filter term, empty when no filter is applied.
func (c *Cursor) Term() string { return c.term }

// Page returns the current page slice of the filtered view.
func (c *Cursor) Page() []map[string]any {
	start := c.page * c.size
	if start >= len(c.filtered) {
		return nil
	}
	end := start + c.size
	if end > len(c.filtered) {
		end = len(c.filtered)
	}
	return c.filtered[start:end]
}

// Next advances one page when not already on the last.
func (c *Cursor) Next() {
	if c.page < c.TotalPages()-1 {
		c.page++
	}
}

// Prev goes back one page when not already on the first.
func (c *Cursor) Prev() {
	if c.page > 0 {
		c.page--
	}
}

// Jump moves to a 1-based page number.
func (c *Cursor) Jump(page int) error {
	if page < 1 || page > c.TotalPages() {
		return fmt.Errorf("page must be between 1 and %d", c.TotalPages())
	}
	c.page = page - 1
	return nil
}

// Filter narrows the view to items whose named fields contain term,
// case-insensitive on each field's string form. An exact match on any field
// narrows to that single row. An empty term leaves the view unchanged.
// Applying a filter resets the page index. Returns true when the match was
// exact.
func (c *Cursor) Filter(term string, fields []string) (exact bool) {
	term = strings.TrimSpace(term)
	if term == "" {
		return false
	}

	lower := strings.ToLower(term)
	var matched []map[string]any
	for _, item := range c.original {
		for _, field := range fields {
			text := fieldString(item, field)
			if strings.EqualFold(text, term) {
				c.filtered = []map[string]any{item}
				c.term = term
				c.page = 0
				return true
			}
			if strings.Contains(strings.ToLower(text), lower) {
				matched = append(matched, item)
				break
			}
		}
	}

	c.filtered = matched
	c.term = term
	c.page = 0
	return false
}

// ClearFilter restores the full set and resets the page index.
func (c *Cursor) ClearFilter() {
	c.filtered = c.original
	c.term = ""
	c.page = 0
}

// Dedup removes items repeating the first two searchable fields; earlier
// occurrences win.
func Dedup(items []map[string]any, fields []string) []map[string]any {
	keyFields := fields
	if len(keyFields) > 2 {
		keyFields = keyFields[:2]
	}
	seen := make(map[string]bool, len(items))
	var out []map[string]any
	for _, item := range items {
		parts := make([]string, len(keyFields))
		for i, f := range keyFields {
			parts[i] = fieldString(item, f)
		}
		key := strings.Join(parts, "\x00")
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, item)
	}
	return out
}

// Stringify renders a payload value the way table cells do. JSON numbers
// print without a trailing ".0" when integral.
func Stringify(value any) string {
	if value == nil {
		return ""
	}
	switch v := value.(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Sprintf("%v", v)
	}
}

func fieldString(item map[string]any, field string) string {
	return Stringify(item[field])
}

// Action is a caller-supplied browser command. Fn receives the current page
// slice and page index; returning false exits the browser.
type Action struct {
	Label string
	Fn    func(page []map[string]any, pageIndex int) bool
}

// Browser drives the paginated table loop: next/previous/jump, search and
// clear, row selection, custom actions, quit.
type Browser struct {
	In  io.Reader
	Out io.Writer

	Title string
	// Columns headed in the table.
	Columns []string
	// Fields searched by the filter, in priority order.
	Fields []string
	// Formatter maps an item to cells; nil uses the label-to-key default.
	Formatter RowFormatter
	// SelectMode adds the numbered # column and the row-select action.
	SelectMode bool
	// Actions adds custom keys to the legend.
	Actions map[string]Action
}

// Run loops until the user selects a row (returned) or quits (nil).
func (b *Browser) Run(items []map[string]any, pageSize int) (map[string]any, error) {
	in := b.In
	if in == nil {
		in = os.Stdin
	}
	out := b.Out
	if out == nil {
		out = os.Stdout
	}
	scanner := bufio.NewScanner(in)
	cursor := NewCursor(items, pageSize)

	for {
		b.renderPage(out, cursor)

		fmt.Fprintf(out, "%s ", b.legend(cursor))
		if !scanner.Scan() {
			return nil, scanner.Err()
		}
		key := strings.ToLower(strings.TrimSpace(scanner.Text()))

		switch key {
		case "n":
			cursor.Next()
		case "p":
			cursor.Prev()
		case "j":
			b.jump(scanner, out, cursor)
		case "s":
			b.search(scanner, out, cursor)
		case "c":
			if cursor.Term() != "" {
				cursor.ClearFilter()
			}
		case "r":
			if !b.SelectMode {
				continue
			}
			if item := b.selectRow(scanner, out, cursor); item != nil {
				return item, nil
			}
		case "q":
			return nil, nil
		default:
			if action, ok := b.Actions[key]; ok {
				if !action.Fn(cursor.Page(), cursor.PageIndex()) {
					return nil, nil
				}
			}
		}
	}
}

func (b *Browser) renderPage(out io.Writer, cursor *Cursor) {
	fmt.Fprintf(out, "\nPage %d/%d (page size %d)\n", cursor.PageIndex()+1, cursor.TotalPages(), cursor.PageSize())
	if cursor.Term() != "" {
		fmt.Fprintf(out, "Filter %q: showing %d of %d items\n", cursor.Term(), len(cursor.Filtered()), len(cursor.Original()))
	}

	columns := b.Columns
	page := cursor.Page()
	rows := page
	if b.SelectMode {
		columns = append([]string{"#"}, b.Columns...)
		// Row numbers are 1-based across the filtered view, so they stay
		// stable as the user pages around.
		base := cursor.PageIndex() * cursor.PageSize()
		numbered := make([]map[string]any, len(page))
		for i, item := range page {
			withNum := make(map[string]any, len(item)+1)
			for k, v := range item {
				withNum[k] = v
			}
			withNum["#"] = strconv.Itoa(base + i + 1)
			numbered[i] = withNum
		}
		rows = numbered
	}

	formatter := b.Formatter
	if b.SelectMode && formatter != nil {
		inner := formatter
		formatter = func(item map[string]any, cols []string) []string {
			cells := inner(item, cols[1:])
			return append([]string{fieldString(item, "#")}, cells...)
		}
	}
	_ = RenderTable(out, b.Title, columns, rows, formatter)
}

// legend lists only the keys that currently apply.
func (b *Browser) legend(cursor *Cursor) string {
	var parts []string
	if cursor.PageIndex() < cursor.TotalPages()-1 && len(cursor.Filtered()) > 0 {
		parts = append(parts, "[n]ext")
	}
	if cursor.PageIndex() > 0 {
		parts = append(parts, "[p]rev")
	}
	parts = append(parts, "[j]ump", "[s]earch")
	if cursor.Term() != "" {
		parts = append(parts, "[c]lear")
	}
	if b.SelectMode {
		parts = append(parts, "[r]ow select")
	}
	keys := make([]string, 0, len(b.Actions))
	for key := range b.Actions {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		parts = append(parts, fmt.Sprintf("[%s] %s", key, b.Actions[key].Label))
	}
	parts = append(parts, "[q]uit")
	return strings.Join(parts, " ") + ":"
}

func (b *Browser) jump(scanner *bufio.Scanner, out io.Writer, cursor *Cursor) {
	fmt.Fprintf(out, "Page number [1-%d]: ", cursor.TotalPages())
	if !scanner.Scan() {
		return
	}
	page, err := strconv.Atoi(strings.TrimSpace(scanner.Text()))
	if err != nil {
		fmt.Fprintln(out, "Please enter a valid page number.")
		return
	}
	if err := cursor.Jump(page); err != nil {
		fmt.Fprintln(out, err.Error())
	}
}

func (b *Browser) search(scanner *bufio.Scanner, out io.Writer, cursor *Cursor) {
	fmt.Fprint(out, "Search term: ")
	if !scanner.Scan() {
		return
	}
	term := strings.TrimSpace(scanner.Text())
	if term == "" {
		return
	}
	if exact := cursor.Filter(term, b.Fields); exact {
		fmt.Fprintln(out, "Exact match.")
	}
}

func (b *Browser) selectRow(scanner *bufio.Scanner, out io.Writer, cursor *Cursor) map[string]any {
	page := cursor.Page()
	if len(page) == 0 {
		fmt.Fprintln(out, "No rows on this page.")
		return nil
	}
	base := cursor.PageIndex() * cursor.PageSize()
	fmt.Fprintf(out, "Row number [%d-%d]: ", base+1, base+len(page))
	if !scanner.Scan() {
		return nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(scanner.Text()))
	if err != nil || n < base+1 || n > base+len(page) {
		fmt.Fprintln(out, "Please enter a row number shown on this page.")
		return nil
	}
	item := page[n-base-1]

	fmt.Fprint(out, "Confirm selection? [y/N]: ")
	if !scanner.Scan() {
		return nil
	}
	answer := strings.ToLower(strings.TrimSpace(scanner.Text()))
	if answer == "y" || answer == "yes" {
		return item
	}
	return nil
}
