package app

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/require"

	"vision-inspector/internal/domain/entity"
)

func existsIn(taken map[string]bool) func(context.Context, string) (bool, error) {
	return func(_ context.Context, n string) (bool, error) {
		return taken[n], nil
	}
}

func TestNumberGenerator_Format(t *testing.T) {
	g := NewNumberGenerator(InspectionPrefix, existsIn(nil))
	g.Intn = func(int) int { return 42 }

	n, err := g.Next(context.Background())
	require.NoError(t, err)
	require.Equal(t, "I-000042", n)
}

func TestNumberGenerator_RetriesOnCollision(t *testing.T) {
	seq := []int{1, 2, 3}
	calls := 0
	g := NewNumberGenerator("T", existsIn(map[string]bool{"T-000001": true, "T-000002": true}))
	g.Intn = func(int) int {
		v := seq[calls]
		calls++
		return v
	}

	n, err := g.Next(context.Background())
	require.NoError(t, err)
	require.Equal(t, "T-000003", n)
	require.Equal(t, 3, calls)
}

func TestNumberGenerator_ExhaustedRetries(t *testing.T) {
	g := NewNumberGenerator("M", existsIn(map[string]bool{"M-000007": true}))
	g.Intn = func(int) int { return 7 }
	g.MaxAttempts = 25

	_, err := g.Next(context.Background())
	require.True(t, errors.Is(err, entity.ErrExhaustedRetries))
}

func TestNumberGenerator_ExistsErrorAborts(t *testing.T) {
	storeDown := errors.New("store unavailable")
	calls := 0
	g := NewNumberGenerator(InspectionPrefix, func(context.Context, string) (bool, error) {
		calls++
		return false, storeDown
	})

	_, err := g.Next(context.Background())
	require.ErrorIs(t, err, storeDown)
	require.False(t, errors.Is(err, entity.ErrExhaustedRetries))
	require.Equal(t, 1, calls)
}

func TestNumberGenerator_NeverReturnsTakenNumber(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	taken := make(map[string]bool)
	for len(taken) < 2000 {
		taken[fmt.Sprintf("I-%06d", rng.IntN(numberSpace))] = true
	}

	g := NewNumberGenerator(InspectionPrefix, existsIn(taken))
	g.Intn = rng.IntN

	for i := 0; i < 500; i++ {
		n, err := g.Next(context.Background())
		require.NoError(t, err)
		require.False(t, taken[n], "generated taken number %s", n)
		taken[n] = true
	}
}

func TestNumberGenerator_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	g := NewNumberGenerator(InspectionPrefix, existsIn(nil))
	_, err := g.Next(ctx)
	require.ErrorIs(t, err, context.Canceled)
}
