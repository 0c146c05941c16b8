//go:build !gocv

package vision

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"vision-inspector/internal/domain/entity"
	"vision-inspector/internal/domain/port"
)

func TestStubDetectorFailsAsGateway(t *testing.T) {
	d := NewGoCVDetector()

	_, err := d.Detect(context.Background(), port.DetectionRequest{Image: []byte("img")})
	require.True(t, errors.Is(err, entity.ErrGateway))

	_, err = d.Highlight([]byte("img"), nil)
	require.Error(t, err)
}
