package datascope

import (
	"math"
	"slices"

	"github.com/nao1215/datascope/domain/model"
)

// Point is one sample fed to the downsampling engine.
type Point struct {
	X float64
	Y float64
}

// allIndices returns 0..n-1.
func allIndices(n int) []int {
	indices := make([]int, n)
	for i := range indices {
		indices[i] = i
	}
	return indices
}

// EvenlySampleIndices picks threshold indices of [0,n) at a uniform stride,
// always keeping the first and the last one.
func EvenlySampleIndices(n, threshold int) []int {
	if n <= 0 {
		return []int{}
	}
	if threshold >= n {
		return allIndices(n)
	}
	if threshold <= 1 {
		return []int{0}
	}

	step := float64(n-1) / float64(threshold-1)
	indices := make([]int, threshold)
	for i := range threshold {
		idx := int(math.Floor(float64(i)*step + 0.5))
		indices[i] = min(idx, n-1)
	}
	indices[0] = 0
	indices[len(indices)-1] = n - 1

	slices.Sort(indices)
	return slices.Compact(indices)
}

// LTTBIndices selects at most threshold indices with the
// Largest-Triangle-Three-Buckets algorithm. The first and last points are
// always kept and the result is strictly ascending. A threshold of 2 or less,
// or one that is not smaller than len(points), returns every index.
func LTTBIndices(points []Point, threshold int) []int {
	n := len(points)
	if threshold >= n || threshold <= 2 {
		return allIndices(n)
	}

	sampled := make([]int, 0, threshold)
	sampled = append(sampled, 0)
	every := float64(n-2) / float64(threshold-2)
	a := 0

	for i := range threshold - 2 {
		avgStart := int(math.Floor(float64(i+1)*every)) + 1
		avgEnd := min(int(math.Floor(float64(i+2)*every))+1, n)

		var avgX, avgY float64
		if avgLen := avgEnd - avgStart; avgLen > 0 {
			for j := avgStart; j < avgEnd; j++ {
				avgX += points[j].X
				avgY += points[j].Y
			}
			avgX /= float64(avgLen)
			avgY /= float64(avgLen)
		} else {
			p := points[min(avgStart, n-1)]
			avgX, avgY = p.X, p.Y
		}

		rangeStart := max(int(math.Floor(float64(i)*every))+1, 1)
		rangeEnd := min(int(math.Floor(float64(i+1)*every))+1, n-1)
		if rangeStart >= rangeEnd {
			rangeStart = max(rangeEnd-1, 1)
		}

		maxArea := -1.0
		maxIdx := rangeStart
		pa := points[a]
		for j := rangeStart; j < rangeEnd; j++ {
			area := math.Abs((pa.X-avgX)*(points[j].Y-pa.Y) - (pa.X-points[j].X)*(avgY-pa.Y))
			if area > maxArea {
				maxArea = area
				maxIdx = j
			}
		}

		sampled = append(sampled, maxIdx)
		a = maxIdx
	}
	sampled = append(sampled, n-1)

	slices.Sort(sampled)
	return slices.Compact(sampled)
}

// Downsample reduces points to at most threshold indices: evenly spaced for
// a category axis, LTTB otherwise. downsampled reports whether any index was
// dropped.
func Downsample(points []Point, threshold int, axis model.AxisType) (indices []int, downsampled bool) {
	n := len(points)
	if threshold >= n || threshold <= 2 {
		return allIndices(n), false
	}
	if axis == model.AxisTypeCategory {
		indices = EvenlySampleIndices(n, threshold)
	} else {
		indices = LTTBIndices(points, threshold)
	}
	return indices, len(indices) < n
}
