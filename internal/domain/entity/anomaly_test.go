package entity

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAnomaly_UnmarshalLegacyClassName(t *testing.T) {
	var a Anomaly
	err := json.Unmarshal([]byte(`{"id":"a1","box":[1,1,3,3],"className":"wear","madeBy":"User"}`), &a)
	require.NoError(t, err)
	require.Equal(t, "wear", a.ClassName)
	require.Equal(t, Box{1, 1, 3, 3}, a.Box)
	require.Nil(t, a.Confidence)
	require.Equal(t, ProvenanceUser, a.MadeBy)
}

func TestAnomaly_ClassWinsOverLegacyKey(t *testing.T) {
	var a Anomaly
	err := json.Unmarshal([]byte(`{"id":"a1","class":"rust","className":"wear","confidence":0.7,"madeBy":"AI"}`), &a)
	require.NoError(t, err)
	require.Equal(t, "rust", a.ClassName)
	require.NotNil(t, a.Confidence)
	require.Equal(t, 0.7, *a.Confidence)
}

func TestAnomaly_CloneIsIndependent(t *testing.T) {
	a := Anomaly{ID: "a1", Box: Box{1, 2, 3, 4}, Confidence: Float(0.5)}
	b := a.Clone()
	b.Box[0] = 99
	*b.Confidence = 0.9
	require.Equal(t, 1.0, a.Box[0])
	require.Equal(t, 0.5, *a.Confidence)
}

func TestProvenanceValid(t *testing.T) {
	require.True(t, ProvenanceAI.Valid())
	require.True(t, ProvenanceUser.Valid())
	require.False(t, Provenance("").Valid())
	require.False(t, Provenance("robot").Valid())
}
