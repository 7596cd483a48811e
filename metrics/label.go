// Package metrics holds the trill specific metric types and reporting on top
// of the go-ethereum metrics registry.
package metrics

import (
	"fmt"
	"io"
	"maps"
	"sort"
	"sync"

	gethmetrics "github.com/ethereum/go-ethereum/metrics"
	"github.com/olekukonko/tablewriter"
)

// LabelValue is a mapping of keys to values.
type LabelValue map[string]any

// Label carries descriptive session metadata, such as the transaction being
// replayed, next to the numeric metrics.
type Label struct {
	mu    sync.Mutex
	value LabelValue
}

// labels holds the registered labels. The go-ethereum registry only accepts
// its own metric kinds.
var labels sync.Map

// GetOrRegisterLabel returns an existing Label or constructs and registers a
// new one.
func GetOrRegisterLabel(name string) *Label {
	l, _ := labels.LoadOrStore(name, NewLabel())
	return l.(*Label)
}

// NewLabel constructs a new Label.
func NewLabel() *Label {
	return &Label{value: make(LabelValue)}
}

// Snapshot returns a copy of the current values.
func (l *Label) Snapshot() LabelValue {
	l.mu.Lock()
	defer l.mu.Unlock()
	return maps.Clone(l.value)
}

// Mark merges value into the label.
func (l *Label) Mark(value LabelValue) {
	if !gethmetrics.Enabled {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	maps.Copy(l.value, value)
}

// Report renders every metric of r, followed by the labels, as a table.
func Report(w io.Writer, r gethmetrics.Registry) {
	if r == nil {
		r = gethmetrics.DefaultRegistry
	}
	var rows [][]string
	r.Each(func(name string, i interface{}) {
		switch m := i.(type) {
		case gethmetrics.Counter:
			rows = append(rows, []string{name, "counter", fmt.Sprint(m.Snapshot().Count())})
		case gethmetrics.Timer:
			s := m.Snapshot()
			rows = append(rows, []string{name, "timer",
				fmt.Sprintf("count=%d mean=%.0fns max=%dns", s.Count(), s.Mean(), s.Max())})
		}
	})
	labels.Range(func(key, value any) bool {
		for k, v := range value.(*Label).Snapshot() {
			rows = append(rows, []string{key.(string) + "." + k, "label", fmt.Sprint(v)})
		}
		return true
	})
	sort.Slice(rows, func(i, j int) bool { return rows[i][0] < rows[j][0] })

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Metric", "Type", "Value"})
	table.AppendBulk(rows)
	table.Render()
}
