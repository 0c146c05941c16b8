package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"vision-inspector/internal/domain/entity"
)

func TestAuditRecorder_Defaults(t *testing.T) {
	rec := NewAuditRecorder(fixedClock(time.Date(2025, 1, 2, 3, 4, 5, 678_900_000, time.UTC)))

	log := rec.Record(nil, entity.ActionAdd, entity.Anomaly{ID: "a", MadeBy: entity.ProvenanceUser})
	require.Len(t, log, 1)

	e := log[0]
	require.Equal(t, "a", e.ID)
	require.Equal(t, 0.0, e.Confidence)
	require.Equal(t, "", e.ClassName)
	require.NotNil(t, e.Box)
	require.Empty(t, e.Box)
	require.Equal(t, "2025-01-02T03:04:05.678Z", e.Timestamp)
	require.Equal(t, entity.ActionAdd, e.Action)
}

func TestAuditRecorder_DoesNotTouchPriorEntries(t *testing.T) {
	rec := NewAuditRecorder(fixedClock(time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)))

	first := rec.Record(nil, entity.ActionAdd, entity.Anomaly{ID: "a", Box: entity.Box{1, 1, 1, 1}})
	second := rec.Record(first, entity.ActionEdit, entity.Anomaly{ID: "a", Box: entity.Box{2, 2, 2, 2}})

	require.Len(t, first, 1)
	require.Len(t, second, 2)
	require.Equal(t, first[0], second[0])
	require.Equal(t, entity.ActionEdit, second[1].Action)
}

func TestAuditRecorder_SnapshotIsCopied(t *testing.T) {
	rec := NewAuditRecorder(nil)
	a := entity.Anomaly{ID: "a", Box: entity.Box{1, 1, 1, 1}}

	log := rec.Record(nil, entity.ActionAdd, a)
	a.Box[0] = 42
	require.Equal(t, 1.0, log[0].Box[0])
}

func TestAuditRecorder_NonDecreasingUnderBackwardsClock(t *testing.T) {
	times := []time.Time{
		time.Date(2025, 1, 2, 10, 0, 0, 0, time.UTC),
		time.Date(2025, 1, 2, 9, 0, 0, 0, time.UTC),
		time.Date(2025, 1, 2, 11, 0, 0, 0, time.UTC),
	}
	i := 0
	rec := NewAuditRecorder(func() time.Time {
		t := times[i]
		i++
		return t
	})

	var log []entity.LogEntry
	for range times {
		log = rec.Record(log, entity.ActionAdd, entity.Anomaly{ID: "a"})
	}

	require.Equal(t, "2025-01-02T10:00:00.000Z", log[0].Timestamp)
	require.Equal(t, "2025-01-02T10:00:00.000Z", log[1].Timestamp)
	require.Equal(t, "2025-01-02T11:00:00.000Z", log[2].Timestamp)
	for k := 1; k < len(log); k++ {
		require.False(t, log[k].Time().Before(log[k-1].Time()))
	}
}

func TestAuditRecorder_LocalTimeIsStoredAsUTC(t *testing.T) {
	zone := time.FixedZone("UTC+5", 5*60*60)
	rec := NewAuditRecorder(fixedClock(time.Date(2025, 1, 2, 15, 0, 0, 0, zone)))

	log := rec.Record(nil, entity.ActionDelete, entity.Anomaly{ID: "a"})
	require.Equal(t, "2025-01-02T10:00:00.000Z", log[0].Timestamp)
}
