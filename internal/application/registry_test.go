package app

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"vision-inspector/internal/domain/entity"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
}

func newTestRegistry() *Registry {
	clock := fixedClock(time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC))
	return NewRegistry(NewAuditRecorder(clock), sequentialIDs())
}

func TestRegistry_GetEmpty(t *testing.T) {
	r := newTestRegistry()
	got := r.Get(AnomalySet{})
	require.NotNil(t, got)
	require.Empty(t, got)
}

func TestRegistry_AddUserAnomaly(t *testing.T) {
	r := newTestRegistry()

	set, stored, err := r.Add(AnomalySet{}, entity.Anomaly{Box: entity.Box{1, 1, 3, 3}, ClassName: "wear"})
	require.NoError(t, err)

	require.Equal(t, "id-1", stored.ID)
	require.Equal(t, entity.ProvenanceUser, stored.MadeBy)
	require.Equal(t, entity.Box{1, 1, 3, 3}, stored.Box)

	require.Len(t, set.Anomalies, 1)
	require.Len(t, set.Log, 1)
	entry := set.Log[0]
	require.Equal(t, entity.ActionAdd, entry.Action)
	require.Equal(t, entity.ProvenanceUser, entry.MadeBy)
	require.Equal(t, "id-1", entry.ID)
	require.Equal(t, "wear", entry.ClassName)
	require.Equal(t, 0.0, entry.Confidence)
	require.Equal(t, "2025-03-01T12:00:00.000Z", entry.Timestamp)
}

func TestRegistry_AddGrowsBothByOne(t *testing.T) {
	r := newTestRegistry()
	set := AnomalySet{}

	for i := 0; i < 5; i++ {
		before := set
		next, _, err := r.Add(set, entity.Anomaly{Box: entity.Box{float64(i), 1, 2, 2}})
		require.NoError(t, err)
		require.Len(t, next.Anomalies, len(before.Anomalies)+1)
		require.Len(t, next.Log, len(before.Log)+1)
		require.Equal(t, entity.ActionAdd, next.Log[len(next.Log)-1].Action)
		set = next
	}
}

func TestRegistry_AddKeepsSuppliedIDAndProvenance(t *testing.T) {
	r := newTestRegistry()

	set, stored, err := r.Add(AnomalySet{}, entity.Anomaly{
		ID: "given", Box: entity.Box{5, 5, 2, 2}, MadeBy: entity.ProvenanceAI, Confidence: entity.Float(0.8),
	})
	require.NoError(t, err)
	require.Equal(t, "given", stored.ID)
	require.Equal(t, entity.ProvenanceAI, set.Log[0].MadeBy)
	require.Equal(t, 0.8, set.Log[0].Confidence)
}

func TestRegistry_AddRejectsInvalidInput(t *testing.T) {
	r := newTestRegistry()
	base, _, err := r.Add(AnomalySet{}, entity.Anomaly{ID: "a", Box: entity.Box{1, 1, 1, 1}})
	require.NoError(t, err)

	cases := map[string]entity.Anomaly{
		"short box":      {Box: entity.Box{1, 2, 3}},
		"negative width": {Box: entity.Box{1, 1, -2, 2}},
		"bad confidence": {Box: entity.Box{1, 1, 2, 2}, Confidence: entity.Float(1.2)},
		"bad provenance": {Box: entity.Box{1, 1, 2, 2}, MadeBy: "robot"},
		"duplicate id":   {ID: "a", Box: entity.Box{1, 1, 2, 2}},
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			next, _, err := r.Add(base, in)
			require.True(t, errors.Is(err, entity.ErrValidation))
			require.Equal(t, base, next)
		})
	}
}

func TestRegistry_AddDoesNotMutateInput(t *testing.T) {
	r := newTestRegistry()
	base, _, err := r.Add(AnomalySet{}, entity.Anomaly{Box: entity.Box{1, 1, 1, 1}})
	require.NoError(t, err)

	// Запас ёмкости не должен позволить второму Add перезаписать чужой срез.
	base.Anomalies = append(make([]entity.Anomaly, 0, 10), base.Anomalies...)
	first, _, err := r.Add(base, entity.Anomaly{ID: "x", Box: entity.Box{2, 2, 1, 1}})
	require.NoError(t, err)
	second, _, err := r.Add(base, entity.Anomaly{ID: "y", Box: entity.Box{3, 3, 1, 1}})
	require.NoError(t, err)

	require.Len(t, base.Anomalies, 1)
	require.Equal(t, "x", first.Anomalies[1].ID)
	require.Equal(t, "y", second.Anomalies[1].ID)
}

func TestRegistry_UpdatePinsIdentityAndProvenance(t *testing.T) {
	r := newTestRegistry()
	set, stored, err := r.Add(AnomalySet{}, entity.Anomaly{
		Box: entity.Box{1, 1, 2, 2}, ClassName: "rust", MadeBy: entity.ProvenanceAI, Confidence: entity.Float(0.9),
	})
	require.NoError(t, err)

	set, updated, err := r.Update(set, stored.ID, entity.Anomaly{
		ID:        "hijack",
		MadeBy:    entity.ProvenanceUser,
		Box:       entity.Box{4, 4, 3, 3},
		ClassName: "crack",
	})
	require.NoError(t, err)

	require.Equal(t, stored.ID, updated.ID)
	require.Equal(t, entity.ProvenanceAI, updated.MadeBy)
	require.Equal(t, entity.Box{4, 4, 3, 3}, updated.Box)
	require.Equal(t, "crack", updated.ClassName)
	require.Equal(t, 0.9, *updated.Confidence)

	require.Len(t, set.Anomalies, 1)
	require.Equal(t, updated, set.Anomalies[0])

	require.Len(t, set.Log, 2)
	edit := set.Log[1]
	require.Equal(t, entity.ActionEdit, edit.Action)
	require.Equal(t, stored.ID, edit.ID)
	require.Equal(t, entity.ProvenanceAI, edit.MadeBy)
	require.Equal(t, entity.Box{4, 4, 3, 3}, edit.Box)
	require.Equal(t, "crack", edit.ClassName)
}

func TestRegistry_UpdateUnknownLeavesSetUnchanged(t *testing.T) {
	r := newTestRegistry()
	set, _, err := r.Add(AnomalySet{}, entity.Anomaly{Box: entity.Box{1, 1, 2, 2}})
	require.NoError(t, err)

	next, _, err := r.Update(set, "missing", entity.Anomaly{ClassName: "x"})
	require.True(t, errors.Is(err, entity.ErrNotFound))
	require.Equal(t, set, next)
	require.Len(t, next.Log, 1)
}

func TestRegistry_UpdateRejectsBadBox(t *testing.T) {
	r := newTestRegistry()
	set, stored, err := r.Add(AnomalySet{}, entity.Anomaly{Box: entity.Box{1, 1, 2, 2}})
	require.NoError(t, err)

	next, _, err := r.Update(set, stored.ID, entity.Anomaly{Box: entity.Box{1, 2}})
	require.True(t, errors.Is(err, entity.ErrValidation))
	require.Equal(t, set, next)
}

func TestRegistry_DeleteLogsOriginalProvenance(t *testing.T) {
	r := newTestRegistry()
	set, stored, err := r.Add(AnomalySet{}, entity.Anomaly{
		Box: entity.Box{1, 1, 2, 2}, ClassName: "rust", MadeBy: entity.ProvenanceAI, Confidence: entity.Float(0.6),
	})
	require.NoError(t, err)

	set, removed, err := r.Delete(set, stored.ID)
	require.NoError(t, err)
	require.Equal(t, stored, removed)
	require.Empty(t, set.Anomalies)
	require.NotNil(t, set.Anomalies)

	require.Len(t, set.Log, 2)
	last := set.Log[1]
	require.Equal(t, entity.ActionDelete, last.Action)
	require.Equal(t, stored.ID, last.ID)
	require.Equal(t, entity.ProvenanceAI, last.MadeBy)
	require.Equal(t, "rust", last.ClassName)
	require.Equal(t, 0.6, last.Confidence)
	require.Equal(t, entity.Box{1, 1, 2, 2}, last.Box)
}

func TestRegistry_DeleteTwiceFailsWithNotFound(t *testing.T) {
	r := newTestRegistry()
	set, stored, err := r.Add(AnomalySet{}, entity.Anomaly{Box: entity.Box{1, 1, 2, 2}})
	require.NoError(t, err)

	set, _, err = r.Delete(set, stored.ID)
	require.NoError(t, err)

	next, _, err := r.Delete(set, stored.ID)
	require.True(t, errors.Is(err, entity.ErrNotFound))
	require.Equal(t, set, next)

	_, _, err = r.Update(set, stored.ID, entity.Anomaly{ClassName: "late"})
	require.True(t, errors.Is(err, entity.ErrNotFound))
}

func TestRegistry_DeleteKeepsOrder(t *testing.T) {
	r := newTestRegistry()
	set := AnomalySet{}
	for _, id := range []string{"a", "b", "c"} {
		var err error
		set, _, err = r.Add(set, entity.Anomaly{ID: id, Box: entity.Box{1, 1, 1, 1}})
		require.NoError(t, err)
	}

	set, _, err := r.Delete(set, "b")
	require.NoError(t, err)
	require.Equal(t, "a", set.Anomalies[0].ID)
	require.Equal(t, "c", set.Anomalies[1].ID)
}
