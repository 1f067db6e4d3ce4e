package pipeline

import (
	"sync"
	"testing"

	"github.com/capwatch/capwatch/pkg/nn"
	"github.com/cyclopcam/logs"
	"github.com/stretchr/testify/require"
)

func newTestPipeline(t *testing.T, containerBackend, closureBackend *fakeDetector, brandBackend *fakeClassifier) *Pipeline {
	logger := logs.NewTestingLog(t)
	var cb nn.ObjectDetector
	if containerBackend != nil {
		cb = containerBackend
	}
	var zb nn.ObjectDetector
	if closureBackend != nil {
		zb = closureBackend
	}
	var bb nn.ImageClassifier
	if brandBackend != nil {
		bb = brandBackend
	}
	return NewPipeline(logger,
		NewContainerDetector(logger, cb),
		NewClosureDetector(logger, zb),
		NewBrandClassifier(logger, bb, testBrands))
}

func TestProcessFrameEndToEnd(t *testing.T) {
	containerBackend := &fakeDetector{objects: []nn.ObjectDetection{
		rawDetection(ContainerClassID, 0.9, nn.MakeRect(100, 100, 200, 400)),
	}}
	closureBackend := &fakeDetector{objects: []nn.ObjectDetection{
		rawDetection(1, 0.8, nn.MakeRect(120, 100, 180, 150)),
	}}
	brandBackend := &fakeClassifier{probs: []float32{0.1, 0.1, 0.8}}

	p := newTestPipeline(t, containerBackend, closureBackend, brandBackend)
	result := p.ProcessFrame(testFrame(640, 480))

	require.Len(t, result.Containers, 1)
	require.Equal(t, KindContainer, result.Containers[0].Kind)
	require.Equal(t, nn.MakeRect(100, 100, 200, 400), result.Containers[0].Box)
	require.NotNil(t, result.Containers[0].Brand)
	require.Equal(t, "cosmo", result.Containers[0].Brand.Label)

	require.Len(t, result.Closures, 1)
	require.Equal(t, CategoryWithClosure, result.Closures[0].Category)
	require.Equal(t, 0, result.Closures[0].Container)

	require.Equal(t, 640, result.FrameWidth)
	require.Equal(t, 480, result.FrameHeight)
}

func TestProcessFrameNeverNilSlices(t *testing.T) {
	p := newTestPipeline(t, nil, nil, nil)
	result := p.ProcessFrame(testFrame(640, 480))
	require.NotNil(t, result.Containers)
	require.NotNil(t, result.Closures)
	require.Empty(t, result.Containers)
	require.Empty(t, result.Closures)
}

func TestProcessFrameToggles(t *testing.T) {
	containerBackend := &fakeDetector{objects: []nn.ObjectDetection{
		rawDetection(ContainerClassID, 0.9, nn.MakeRect(100, 100, 200, 400)),
	}}
	closureBackend := &fakeDetector{objects: []nn.ObjectDetection{
		rawDetection(1, 0.8, nn.MakeRect(120, 100, 180, 150)),
	}}
	brandBackend := &fakeClassifier{probs: []float32{0.9, 0.05, 0.05}}
	p := newTestPipeline(t, containerBackend, closureBackend, brandBackend)

	cfg := DefaultConfig()
	cfg.EnableBrandClassification = false
	p.SetConfig(cfg)
	result := p.ProcessFrame(testFrame(640, 480))
	require.Len(t, result.Containers, 1)
	require.Nil(t, result.Containers[0].Brand)
	require.Equal(t, 0, brandBackend.calls)

	cfg.EnableContainerDetection = false
	cfg.EnableClosureDetection = false
	p.SetConfig(cfg)
	calls := containerBackend.calls
	result = p.ProcessFrame(testFrame(640, 480))
	require.Empty(t, result.Containers)
	require.Empty(t, result.Closures)
	require.Equal(t, calls, containerBackend.calls)
}

func TestUpdateConfigPartial(t *testing.T) {
	p := newTestPipeline(t, nil, nil, nil)

	newThreshold := float32(0.7)
	off := false
	err := p.UpdateConfig(&ConfigUpdate{
		ContainerThreshold:     &newThreshold,
		EnableClosureDetection: &off,
	})
	require.NoError(t, err)

	cfg := p.Config()
	require.Equal(t, float32(0.7), cfg.ContainerThreshold)
	require.False(t, cfg.EnableClosureDetection)
	// Untouched fields keep their previous values
	require.Equal(t, float32(DefaultClosureThreshold), cfg.ClosureThreshold)
	require.Equal(t, float32(DefaultNmsIouThreshold), cfg.NmsIouThreshold)
	require.True(t, cfg.EnableContainerDetection)
}

// Two writers hammering disjoint fields must both land: a stale
// load-then-store would let one writer revert the other's field.
func TestUpdateConfigConcurrent(t *testing.T) {
	p := newTestPipeline(t, nil, nil, nil)

	const iterations = 500
	wg := sync.WaitGroup{}
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < iterations; i++ {
			v := float32(i%10) / 10
			require.NoError(t, p.UpdateConfig(&ConfigUpdate{ContainerThreshold: &v}))
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < iterations; i++ {
			v := float32(i%10) / 10
			require.NoError(t, p.UpdateConfig(&ConfigUpdate{BrandThreshold: &v}))
		}
	}()
	wg.Wait()

	cfg := p.Config()
	require.Equal(t, float32((iterations-1)%10)/10, cfg.ContainerThreshold)
	require.Equal(t, float32((iterations-1)%10)/10, cfg.BrandThreshold)
}

func TestUpdateConfigRejectsOutOfRange(t *testing.T) {
	p := newTestPipeline(t, nil, nil, nil)
	before := p.Config()

	bad := float32(1.5)
	good := float32(0.3)
	err := p.UpdateConfig(&ConfigUpdate{
		ContainerThreshold: &good,
		ClosureThreshold:   &bad,
	})
	require.Error(t, err)
	// The whole update is rejected, including the valid part
	require.Equal(t, before, p.Config())

	negative := float32(-0.1)
	require.Error(t, p.UpdateConfig(&ConfigUpdate{BrandThreshold: &negative}))
	require.Equal(t, before, p.Config())
}

func TestModels(t *testing.T) {
	p := newTestPipeline(t, &fakeDetector{}, nil, &fakeClassifier{})
	info := p.Models()
	require.True(t, info.ContainerDetector)
	require.False(t, info.ClosureDetector)
	require.True(t, info.BrandClassifier)
	require.Equal(t, testBrands, info.Brands)
}
