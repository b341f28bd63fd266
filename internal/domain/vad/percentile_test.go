package vad

import (
	"math"
	"testing"
)

func TestPercentile(t *testing.T) {
	tests := []struct {
		name    string
		values  []int
		percent float64
		want    float64
	}{
		{"interpolated", []int{1, 2, 3, 4, 5}, 0.2, 1.8},
		{"unsorted input", []int{5, 3, 1, 4, 2}, 0.2, 1.8},
		{"single element", []int{10}, 0.2, 10},
		{"exact rank", []int{1, 2, 3, 4, 5}, 0.5, 3},
		{"max", []int{7, 1, 9}, 1, 9},
		{"empty", nil, 0.2, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Percentile(tt.values, tt.percent)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Fatalf("Percentile(%v, %v) = %v, want %v", tt.values, tt.percent, got, tt.want)
			}
		})
	}
}

func TestPercentile_DoesNotMutateInput(t *testing.T) {
	in := []int{3, 1, 2}
	_ = Percentile(in, 0.2)
	if in[0] != 3 || in[1] != 1 || in[2] != 2 {
		t.Fatalf("input was reordered: %v", in)
	}
}
