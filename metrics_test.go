package eventx

import (
	"errors"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsSnapshot(t *testing.T) {
	m := newMetrics()
	h := NewHandler(func(Args) error { return nil })

	m.recordEmit()
	m.recordEmit()
	m.recordDelivery()
	m.recordFailure(NewCallbackError("tick", h, false, errors.New("x"), nil), false)
	m.recordFailure(NewCallbackError("tick", h, false, nil, "boom"), true)
	m.recordFailure(errors.New("plain"), false)
	m.recordDuplicate()
	m.recordOnceRemoval()
	m.recordOwnerClear()
	m.setGauges(4, 2)

	snap := m.getSnapshot()
	assert.Equal(t, uint64(2), snap["emits"])
	assert.Equal(t, uint64(1), snap["deliveries"])
	assert.Equal(t, uint64(3), snap["failures"])
	assert.Equal(t, uint64(1), snap["panics_recovered"])
	assert.Equal(t, uint64(1), snap["duplicates_rejected"])
	assert.Equal(t, uint64(1), snap["once_removals"])
	assert.Equal(t, uint64(1), snap["owner_clears"])
	assert.Equal(t, int64(4), snap["active_listeners"])
	assert.Equal(t, int64(2), snap["active_owners"])
	assert.NotEmpty(t, snap["last_emit"])
	assert.NotEmpty(t, snap["last_failure"])
	assert.True(t, strings.HasSuffix(snap["emit_rate"].(string), "/s"))

	errorTypes := snap["error_types"].(map[string]uint64)
	assert.Equal(t, uint64(1), errorTypes[CodeCallback])
	assert.Equal(t, uint64(1), errorTypes[CodePanic])
	assert.Equal(t, uint64(1), errorTypes["unknown"])
}

func TestMetricsNilSafe(t *testing.T) {
	var m *Metrics

	assert.NotPanics(t, func() {
		m.recordEmit()
		m.recordDelivery()
		m.recordFailure(errors.New("x"), true)
		m.recordDuplicate()
		m.recordOnceRemoval()
		m.recordOwnerClear()
		m.setGauges(1, 1)
	})
	assert.Empty(t, m.getSnapshot())
}

func TestMetricsNeverEmitted(t *testing.T) {
	snap := newMetrics().getSnapshot()
	assert.Equal(t, "", snap["last_emit"])
	assert.Equal(t, "", snap["last_failure"])
}

func TestPrometheusExporter(t *testing.T) {
	exporter := NewPrometheusExporter("eventx")
	out, err := exporter.Export(map[string]interface{}{
		"emits":            uint64(3),
		"active_listeners": int64(2),
		"ratio":            0.5,
		"count":            7,
		"uptime":           "1s",
		"error-types":      map[string]uint64{},
	})
	require.NoError(t, err)

	assert.Equal(t, "eventx_active_listeners 2\neventx_count 7\neventx_emits 3\neventx_ratio 0.500000\n", out)
}

func TestJSONExporter(t *testing.T) {
	metrics := map[string]interface{}{"emits": uint64(1)}

	out, err := NewJSONExporter(false).Export(metrics)
	require.NoError(t, err)
	assert.Equal(t, `{"emits":1}`, out)

	pretty, err := NewJSONExporter(true).Export(metrics)
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"emits\": 1\n}", pretty)
}

// gather 从注册表中收集指标值，键为"名称{标签值}"
func gather(t *testing.T, registry *prometheus.Registry) map[string]float64 {
	t.Helper()

	families, err := registry.Gather()
	require.NoError(t, err)

	values := make(map[string]float64)
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			key := mf.GetName()
			for _, lp := range m.GetLabel() {
				if lp.GetName() == "event" {
					key += "{" + lp.GetValue() + "}"
				}
			}
			switch {
			case m.GetCounter() != nil:
				values[key] = m.GetCounter().GetValue()
			case m.GetGauge() != nil:
				values[key] = m.GetGauge().GetValue()
			}
		}
	}
	return values
}

func TestCollector(t *testing.T) {
	d, _ := newTestDispatcher(t)
	registry := prometheus.NewRegistry()
	require.NoError(t, registry.Register(NewCollector(d, "game")))

	owner := &component{}
	require.NoError(t, d.On("tick", NewHandler(func(Args) error { return nil }), owner))
	require.NoError(t, d.Once("tick", NewHandler(func(Args) error { panic("x") }), nil))
	require.NoError(t, d.On("tock", NewHandler(func(Args) error { return errors.New("x") }), owner))

	d.Emit("tick")
	d.Emit("tock")

	values := gather(t, registry)
	assert.Equal(t, 2.0, values["game_eventx_emits_total"])
	assert.Equal(t, 1.0, values["game_eventx_deliveries_total"])
	assert.Equal(t, 2.0, values["game_eventx_callback_failures_total"])
	assert.Equal(t, 1.0, values["game_eventx_callback_panics_total"])
	assert.Equal(t, 1.0, values["game_eventx_once_removals_total"])
	assert.Equal(t, 2.0, values["game_eventx_listeners"])
	assert.Equal(t, 1.0, values["game_eventx_owners"])
	assert.Equal(t, 1.0, values["game_eventx_event_listeners{tick}"])
	assert.Equal(t, 1.0, values["game_eventx_event_listeners{tock}"])

	d.ClearOwner(owner)
	values = gather(t, registry)
	assert.Equal(t, 1.0, values["game_eventx_owner_clears_total"])
	assert.Equal(t, 0.0, values["game_eventx_listeners"])
	assert.NotContains(t, values, "game_eventx_event_listeners{tick}")
}
