package pipeline

import (
	"encoding/json"
	"testing"

	"github.com/capwatch/capwatch/pkg/nn"
	"github.com/stretchr/testify/require"
)

func TestAssociateClosures(t *testing.T) {
	containers := []Detection{
		{Kind: KindContainer, Box: nn.MakeRect(100, 100, 200, 400)},
		{Kind: KindContainer, Box: nn.MakeRect(300, 100, 400, 400)},
	}
	closures := []Detection{
		{Kind: KindClosure, Box: nn.MakeRect(120, 100, 180, 150)}, // on container 0
		{Kind: KindClosure, Box: nn.MakeRect(320, 100, 380, 150)}, // on container 1
		{Kind: KindClosure, Box: nn.MakeRect(500, 500, 560, 550)}, // orphan
	}
	associateClosures(containers, closures)
	require.Equal(t, 0, closures[0].Container)
	require.Equal(t, 1, closures[1].Container)
	require.Equal(t, -1, closures[2].Container)
}

func TestAssociateClosuresPicksBestOverlap(t *testing.T) {
	containers := []Detection{
		{Kind: KindContainer, Box: nn.MakeRect(0, 0, 100, 100)},
		{Kind: KindContainer, Box: nn.MakeRect(60, 0, 160, 100)},
	}
	// Sits inside both, but overlaps the second container far more
	closures := []Detection{
		{Kind: KindClosure, Box: nn.MakeRect(70, 10, 150, 90)},
	}
	associateClosures(containers, closures)
	require.Equal(t, 1, closures[0].Container)
}

// The association must report the container's position in the input slice,
// regardless of the order the spatial index returns its hits in.
func TestAssociateClosuresHitOrder(t *testing.T) {
	containers := []Detection{}
	for i := 0; i < 5; i++ {
		x := i * 200
		containers = append(containers, Detection{Kind: KindContainer, Box: nn.MakeRect(x, 0, x+100, 300)})
	}
	closures := []Detection{
		{Kind: KindClosure, Box: nn.MakeRect(820, 0, 880, 50)}, // over container 4 only
		{Kind: KindClosure, Box: nn.MakeRect(420, 0, 480, 50)}, // over container 2 only
	}
	associateClosures(containers, closures)
	require.Equal(t, 4, closures[0].Container)
	require.Equal(t, 2, closures[1].Container)
}

// A match against container 0 must survive JSON encoding, and must remain
// distinguishable from the unmatched -1.
func TestAssociationJSON(t *testing.T) {
	matched := Detection{Kind: KindClosure, Box: nn.MakeRect(0, 0, 10, 10), Container: 0}
	orphan := Detection{Kind: KindClosure, Box: nn.MakeRect(0, 0, 10, 10), Container: -1}

	for _, c := range []Detection{matched, orphan} {
		raw, err := json.Marshal(&c)
		require.NoError(t, err)
		decoded := map[string]any{}
		require.NoError(t, json.Unmarshal(raw, &decoded))
		require.Contains(t, decoded, "container")
		require.Equal(t, float64(c.Container), decoded["container"])
	}
}

func TestAssociateClosuresEmpty(t *testing.T) {
	closures := []Detection{{Kind: KindClosure, Box: nn.MakeRect(0, 0, 10, 10)}}
	associateClosures(nil, closures)
	// Untouched when there are no containers
	require.Equal(t, 0, closures[0].Container)

	associateClosures([]Detection{{Box: nn.MakeRect(0, 0, 10, 10)}}, nil)
}
