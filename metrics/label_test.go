package metrics

import (
	"bytes"
	"testing"
	"time"

	gethmetrics "github.com/ethereum/go-ethereum/metrics"
	"github.com/stretchr/testify/assert"
)

func enable(t *testing.T) {
	prev := gethmetrics.Enabled
	gethmetrics.Enabled = true
	t.Cleanup(func() { gethmetrics.Enabled = prev })
}

func TestLabel(t *testing.T) {
	enable(t)

	l := GetOrRegisterLabel("test/label")
	assert.Same(t, l, GetOrRegisterLabel("test/label"))

	l.Mark(LabelValue{"tx": "0x01"})
	l.Mark(LabelValue{"steps": 3})
	snap := l.Snapshot()
	assert.Equal(t, LabelValue{"tx": "0x01", "steps": 3}, snap)

	// Snapshots are copies.
	snap["tx"] = "changed"
	assert.Equal(t, "0x01", l.Snapshot()["tx"])
}

func TestLabelDisabled(t *testing.T) {
	prev := gethmetrics.Enabled
	gethmetrics.Enabled = false
	defer func() { gethmetrics.Enabled = prev }()

	l := NewLabel()
	l.Mark(LabelValue{"tx": "0x01"})
	assert.Empty(t, l.Snapshot())
}

func TestReport(t *testing.T) {
	enable(t)

	r := gethmetrics.NewRegistry()
	gethmetrics.NewRegisteredCounter("trill/test/counter", r).Inc(7)
	gethmetrics.NewRegisteredTimer("trill/test/timer", r).Update(time.Millisecond)
	GetOrRegisterLabel("trill/test/session").Mark(LabelValue{"mode": "versus"})

	var buf bytes.Buffer
	Report(&buf, r)
	out := buf.String()
	assert.Contains(t, out, "trill/test/counter")
	assert.Contains(t, out, "7")
	assert.Contains(t, out, "count=1")
	assert.Contains(t, out, "trill/test/session.mode")
	assert.Contains(t, out, "versus")
}
