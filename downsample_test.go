package datascope

import (
	"math"
	"math/rand/v2"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nao1215/datascope/domain/model"
)

func TestEvenlySampleIndices(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		n         int
		threshold int
		want      []int
	}{
		{"empty", 0, 5, []int{}},
		{"threshold covers all", 4, 10, []int{0, 1, 2, 3}},
		{"threshold equals n", 3, 3, []int{0, 1, 2}},
		{"single", 10, 1, []int{0}},
		{"zero threshold", 10, 0, []int{0}},
		{"integer stride", 10, 4, []int{0, 3, 6, 9}},
		{"rounded stride", 10, 3, []int{0, 5, 9}},
		{"two", 100, 2, []int{0, 99}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, EvenlySampleIndices(tt.n, tt.threshold))
		})
	}
}

func randomWalk(r *rand.Rand, n int) []Point {
	points := make([]Point, n)
	y := 0.0
	for i := range points {
		y += r.NormFloat64()
		points[i] = Point{X: float64(i), Y: y}
	}
	return points
}

func TestLTTBIndices_Invariants(t *testing.T) {
	t.Parallel()

	r := rand.New(rand.NewPCG(3, 5))
	for _, n := range []int{3, 10, 101, 1000, 5000} {
		points := randomWalk(r, n)
		for _, threshold := range []int{3, 4, 10, 100, 999} {
			got := LTTBIndices(points, threshold)
			if threshold >= n {
				assert.Len(t, got, n)
				continue
			}
			assert.LessOrEqual(t, len(got), threshold, "n=%d threshold=%d", n, threshold)
			assert.Equal(t, 0, got[0])
			assert.Equal(t, n-1, got[len(got)-1])
			for i := 1; i < len(got); i++ {
				if got[i] <= got[i-1] {
					t.Fatalf("n=%d threshold=%d: indices not strictly ascending at %d: %v", n, threshold, i, got[i-1:i+1])
				}
			}
		}
	}
}

func TestLTTBIndices_KeepsSpike(t *testing.T) {
	t.Parallel()

	points := make([]Point, 100)
	for i := range points {
		points[i] = Point{X: float64(i)}
	}
	points[50].Y = 100

	got := LTTBIndices(points, 10)
	assert.Contains(t, got, 50)
}

func TestLTTBIndices_SmallThreshold(t *testing.T) {
	t.Parallel()

	points := randomWalk(rand.New(rand.NewPCG(1, 1)), 20)
	assert.Len(t, LTTBIndices(points, 2), 20)
	assert.Len(t, LTTBIndices(points, 0), 20)
	assert.Empty(t, LTTBIndices(nil, 10))
}

func TestLTTBIndices_NonFinite(t *testing.T) {
	t.Parallel()

	points := randomWalk(rand.New(rand.NewPCG(2, 2)), 200)
	points[17].Y = math.NaN()
	points[90].Y = math.Inf(1)

	assert.NotPanics(t, func() {
		got := LTTBIndices(points, 20)
		assert.True(t, slices.IsSorted(got))
	})
}

func TestDownsample(t *testing.T) {
	t.Parallel()

	points := randomWalk(rand.New(rand.NewPCG(9, 9)), 10)

	t.Run("below threshold", func(t *testing.T) {
		t.Parallel()
		indices, downsampled := Downsample(points, 20, model.AxisTypeValue)
		assert.False(t, downsampled)
		assert.Len(t, indices, 10)
	})

	t.Run("category uses even spacing", func(t *testing.T) {
		t.Parallel()
		indices, downsampled := Downsample(points, 4, model.AxisTypeCategory)
		assert.True(t, downsampled)
		assert.Equal(t, []int{0, 3, 6, 9}, indices)
	})

	t.Run("value uses lttb", func(t *testing.T) {
		t.Parallel()
		indices, downsampled := Downsample(points, 4, model.AxisTypeTime)
		assert.True(t, downsampled)
		assert.Equal(t, LTTBIndices(points, 4), indices)
	})

	t.Run("threshold two keeps everything", func(t *testing.T) {
		t.Parallel()
		indices, downsampled := Downsample(points, 2, model.AxisTypeValue)
		assert.False(t, downsampled)
		assert.Len(t, indices, 10)
	})
}
