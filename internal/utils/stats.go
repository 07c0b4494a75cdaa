package utils

import "sort"

// Median returns the middle element of the sorted copy of values, or 0 when
// the list is empty. For even-length lists the upper middle element is used;
// the baseline is a coarse reference, not a precise statistic.
func Median(values []int) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := append([]int(nil), values...)
	sort.Ints(sorted)
	return float64(sorted[len(sorted)/2])
}

// Percentile returns the p-th percentile (0-100) of values, or 0 when empty.
func Percentile(values []float64, p float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	index := int((p / 100.0) * float64(len(sorted)-1))
	if index < 0 {
		index = 0
	}
	if index >= len(sorted) {
		index = len(sorted) - 1
	}
	return sorted[index]
}
