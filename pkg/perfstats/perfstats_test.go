package perfstats

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMovingAverage(t *testing.T) {
	m := MovingAverage{}
	require.Equal(t, int64(0), m.Value())

	m.Update(1000)
	require.Equal(t, int64(1000), m.Value())

	// Converges toward a steady stream of samples
	for i := 0; i < 1000; i++ {
		m.Update(2000)
	}
	require.InDelta(t, 2000, m.Value(), 20)
	require.InDelta(t, 2000.0/1e6, m.Milliseconds(), 0.001)
}
