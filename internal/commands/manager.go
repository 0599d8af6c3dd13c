package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/agentcore/agentcore/internal/runtime"
	"github.com/agentcore/agentcore/pkg/api"
	"github.com/agentcore/agentcore/pkg/interact"
)

// manager is the shared orchestration behind one resource group: it calls
// the backend through the operation driver and hands results to the
// selection kit. Command leaves own only their prompt sequences.
type manager struct {
	rt *runtime.Runtime

	// base is the collection endpoint, e.g. "api/projects/".
	base string
	// title heads rendered tables.
	title string
	// columns are the table labels; fields the searchable payload keys.
	columns []string
	fields  []string
}

func (m *manager) list(ctx context.Context, query map[string]string) (map[string]any, error) {
	opts := &api.RequestOptions{}
	if len(query) > 0 {
		opts.Query = map[string][]string{}
		for k, v := range query {
			opts.Query.Set(k, v)
		}
	}
	return m.rt.Driver.Execute(ctx, "Fetching "+m.title, func(ctx context.Context) (map[string]any, error) {
		return m.rt.Session.Get(ctx, m.base, opts)
	})
}

func (m *manager) get(ctx context.Context, id string) (map[string]any, error) {
	return m.rt.Driver.Execute(ctx, "Fetching details", func(ctx context.Context) (map[string]any, error) {
		return m.rt.Session.Get(ctx, m.base+id+"/", nil)
	})
}

func (m *manager) create(ctx context.Context, payload map[string]any) (map[string]any, error) {
	return m.rt.Driver.Execute(ctx, "Creating", func(ctx context.Context) (map[string]any, error) {
		return m.rt.Session.Post(ctx, m.base, &api.RequestOptions{Body: payload})
	})
}

func (m *manager) update(ctx context.Context, id string, payload map[string]any) (map[string]any, error) {
	return m.rt.Driver.Execute(ctx, "Updating", func(ctx context.Context) (map[string]any, error) {
		return m.rt.Session.Patch(ctx, m.base+id+"/", &api.RequestOptions{Body: payload})
	})
}

func (m *manager) remove(ctx context.Context, id string) error {
	_, err := m.rt.Driver.Execute(ctx, "Deleting", func(ctx context.Context) (map[string]any, error) {
		return m.rt.Session.Delete(ctx, m.base+id+"/", nil)
	})
	return err
}

// showList renders a list response as a table with pagination metadata.
func (m *manager) showList(resp map[string]any) {
	rows := interact.Rows(resp, "results")
	if len(rows) == 0 {
		fmt.Println("No " + m.title + " found.")
		return
	}
	_ = interact.RenderTable(os.Stdout, m.title, m.columns, rows, nil)
	interact.RenderMeta(os.Stdout, resp)
}

// browse opens the paginated browser over a list response. Returns the
// selected item in select mode, nil on quit.
func (m *manager) browse(resp map[string]any, selectMode bool) (map[string]any, error) {
	rows := interact.Rows(resp, "results")
	if len(rows) == 0 {
		fmt.Println("No " + m.title + " found.")
		return nil, nil
	}
	browser := &interact.Browser{
		Title:      m.title,
		Columns:    m.columns,
		Fields:     m.fields,
		SelectMode: selectMode,
	}
	return browser.Run(rows, 10)
}

// pickByField lists the collection and runs the single-select picker over
// the named field's values. Returns the chosen item.
func (m *manager) pickByField(ctx context.Context, field, prompt string) (map[string]any, error) {
	resp, err := m.list(ctx, nil)
	if err != nil {
		return nil, err
	}
	rows := interact.Rows(resp, "results")
	if len(rows) == 0 {
		return nil, fmt.Errorf("no %s available", m.title)
	}

	byLabel := make(map[string]map[string]any, len(rows))
	labels := make([]string, 0, len(rows))
	for _, row := range rows {
		label := interact.Stringify(row[field])
		if label == "" {
			continue
		}
		if _, dup := byLabel[label]; !dup {
			byLabel[label] = row
			labels = append(labels, label)
		}
	}

	chosen, err := m.rt.Picker.Select(prompt, labels)
	if err != nil {
		return nil, err
	}
	return byLabel[chosen], nil
}

// itemID extracts the identifier of a backend entity.
func itemID(item map[string]any) string {
	return interact.Stringify(item["id"])
}
