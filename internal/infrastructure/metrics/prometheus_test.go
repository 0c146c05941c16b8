package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"vision-inspector/internal/domain/entity"
)

func TestPrometheus_Counters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewPrometheus(reg)

	m.ObserveMutation(entity.ActionAdd, entity.ProvenanceAI)
	m.ObserveMutation(entity.ActionAdd, entity.ProvenanceAI)
	m.ObserveMutation(entity.ActionDelete, entity.ProvenanceUser)
	m.ObserveImport("ok", 3, 120*time.Millisecond)
	m.ObserveImport("gateway_failure", 0, time.Second)

	require.Equal(t, 2.0, testutil.ToFloat64(m.mutations.WithLabelValues("add", "AI")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.mutations.WithLabelValues("delete", "User")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.imports.WithLabelValues("gateway_failure")))
	require.Equal(t, 3.0, testutil.ToFloat64(m.imported))
}

func TestPrometheus_Histograms(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewPrometheus(reg)

	m.ObserveNumberAttempts("I", 1)
	m.ObserveLogSize(12)

	families, err := reg.Gather()
	require.NoError(t, err)

	names := map[string]bool{}
	for _, f := range families {
		names[f.GetName()] = true
	}
	require.True(t, names["vision_inspector_number_generation_attempts"])
	require.True(t, names["vision_inspector_audit_log_entries"])
}
