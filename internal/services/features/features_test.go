package features

import (
	"math"
	"testing"
	"time"

	"BoundaryLab/internal/domain/models"
)

var t0 = time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)

func mv(i int, measurement, atr float64) models.PriceMovement {
	return models.NewPriceMovement(t0.Add(time.Duration(i)*time.Minute), measurement, atr)
}

func TestStatsInRange(t *testing.T) {
	rows := []models.PriceMovement{
		mv(0, 1.0, 3.0),
		mv(1, 1.5, 2.5),
		mv(2, 2.0, -0.5),
		mv(3, 2.5, 0.2),
		mv(4, 9.0, 5.0), // outside
	}

	st := StatsInRange(rows, 1.0, 2.5, 2.0)
	if st.Count != 4 {
		t.Fatalf("Count = %d, want 4", st.Count)
	}
	if st.Positives != 2 {
		t.Errorf("Positives = %d, want 2", st.Positives)
	}
	if st.ExpectedATRMove != 2.75 {
		t.Errorf("ExpectedATRMove = %v, want 2.75", st.ExpectedATRMove)
	}
	if st.Direction != 1 || st.Hits != 2 || st.HitRate != 0.5 {
		t.Errorf("got direction=%d hits=%d rate=%v", st.Direction, st.Hits, st.HitRate)
	}
}

func TestStatsInRangeShortSide(t *testing.T) {
	rows := []models.PriceMovement{
		mv(0, 1, -3),
		mv(1, 1, -2.5),
		mv(2, 1, 2.1),
		mv(3, 1, -0.1),
	}
	st := StatsInRange(rows, 0, 2, 2)
	// positives: -3, -2.5, 2.1 -> mean -1.1333 -> short
	if st.Direction != -1 {
		t.Fatalf("Direction = %d, want -1", st.Direction)
	}
	if st.Hits != 2 || st.HitRate != 0.5 {
		t.Errorf("hits=%d rate=%v, want 2 and 0.5", st.Hits, st.HitRate)
	}
}

func TestHitRateOfMatchesStats(t *testing.T) {
	rows := make([]models.PriceMovement, 0, 50)
	for i := 0; i < 50; i++ {
		atr := math.Sin(float64(i)) * 4
		rows = append(rows, mv(i, float64(i%10), atr))
	}
	st := StatsInRange(rows, 2, 6, 1.5)
	b := NewBoundary(2, 6, st, models.MethodClustering)

	rate, n := HitRateOf(b, rows, 1.5)
	if n != st.Count {
		t.Fatalf("in-range count = %d, want %d", n, st.Count)
	}
	if math.Abs(rate-b.HitRate) > 1e-12 {
		t.Errorf("HitRateOf = %v, boundary HitRate = %v", rate, b.HitRate)
	}
	if b.Confidence < 0 || b.Confidence > 1 {
		t.Errorf("Confidence = %v out of range", b.Confidence)
	}
}

func TestEvaluateBoundariesWeighted(t *testing.T) {
	rows := []models.PriceMovement{
		mv(0, 1, 3), mv(1, 1, 3), mv(2, 1, 0), // 2/3 in [0,2]
		mv(3, 5, 3), // 1/1 in [4,6]
	}
	bs := []models.OptimalBoundary{
		{RangeLow: 0, RangeHigh: 2, ExpectedATRMove: 3},
		{RangeLow: 4, RangeHigh: 6, ExpectedATRMove: 3},
	}
	got := EvaluateBoundaries(bs, rows, 2)
	if want := 3.0 / 4.0; math.Abs(got-want) > 1e-12 {
		t.Errorf("EvaluateBoundaries = %v, want %v", got, want)
	}
	if EvaluateBoundaries(bs, []models.PriceMovement{mv(0, 100, 3)}, 2) != 0 {
		t.Error("expected 0 when no row is covered")
	}
}

func TestRemoveOverlaps(t *testing.T) {
	tests := []struct {
		name string
		in   []models.OptimalBoundary
		want []float64 // RangeLow of survivors
	}{
		{
			name: "disjoint kept",
			in:   []models.OptimalBoundary{{RangeLow: 0, RangeHigh: 1, HitRate: .2}, {RangeLow: 2, RangeHigh: 3, HitRate: .3}},
			want: []float64{0, 2},
		},
		{
			name: "higher hit rate wins",
			in:   []models.OptimalBoundary{{RangeLow: 0, RangeHigh: 2, HitRate: .2}, {RangeLow: 1, RangeHigh: 3, HitRate: .6}},
			want: []float64{1},
		},
		{
			name: "chain keeps both ends",
			in: []models.OptimalBoundary{
				{RangeLow: 0, RangeHigh: 2, HitRate: .5},
				{RangeLow: 1.5, RangeHigh: 3.5, HitRate: .4},
				{RangeLow: 3, RangeHigh: 5, HitRate: .6},
			},
			want: []float64{0, 3},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RemoveOverlaps(tt.in)
			if len(got) != len(tt.want) {
				t.Fatalf("got %d boundaries, want %d", len(got), len(tt.want))
			}
			for i := range got {
				if got[i].RangeLow != tt.want[i] {
					t.Errorf("boundary %d RangeLow = %v, want %v", i, got[i].RangeLow, tt.want[i])
				}
			}
		})
	}
}

func TestStatsHelpers(t *testing.T) {
	if StdDev([]float64{1}) != 0 {
		t.Error("StdDev of one value should be 0")
	}
	if got := StdDev([]float64{1, 2, 3, 4}); math.Abs(got-1.2909944487358056) > 1e-12 {
		t.Errorf("StdDev = %v", got)
	}
	if got := Slope([]float64{1, 3, 5, 7}); math.Abs(got-2) > 1e-12 {
		t.Errorf("Slope = %v, want 2", got)
	}
	if got := ZScore(0.95); math.Abs(got-1.959963984540054) > 1e-9 {
		t.Errorf("ZScore(0.95) = %v", got)
	}
	if _, ok := Correlation([]float64{1, 1, 1}, []float64{1, 2, 3}); ok {
		t.Error("constant series should be indeterminate")
	}
	if r, ok := Correlation([]float64{1, 2, 3, 4}, []float64{2, 4, 6, 8}); !ok || math.Abs(r-1) > 1e-12 {
		t.Errorf("Correlation = %v, %v", r, ok)
	}
}

func TestSortByTimeDoesNotMutate(t *testing.T) {
	rows := []models.PriceMovement{mv(2, 1, 1), mv(0, 2, 1), mv(1, 3, 1)}
	sorted := SortByTime(rows)
	if rows[0].MeasurementValue != 1 {
		t.Fatal("input mutated")
	}
	for i := 1; i < len(sorted); i++ {
		if sorted[i].StartTimestamp.Before(sorted[i-1].StartTimestamp) {
			t.Fatalf("not sorted at %d", i)
		}
	}
	span, ok := Span(rows)
	if !ok || !span.Contains(rows[0].StartTimestamp) {
		t.Errorf("span %v should contain last timestamp", span)
	}
}

func TestCountNonFinite(t *testing.T) {
	tests := []struct {
		name string
		rows []models.PriceMovement
		want int
	}{
		{"all finite", []models.PriceMovement{mv(0, 1, 2), mv(1, -3, 0)}, 0},
		{"NaN measurement", []models.PriceMovement{mv(0, math.NaN(), 2), mv(1, 1, 1)}, 1},
		{"infinite moves", []models.PriceMovement{mv(0, 1, math.Inf(1)), mv(1, 1, math.Inf(-1))}, 2},
		{"both bad in one row", []models.PriceMovement{mv(0, math.Inf(1), math.NaN())}, 1},
		{"empty", nil, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CountNonFinite(tt.rows); got != tt.want {
				t.Fatalf("CountNonFinite() = %d, want %d", got, tt.want)
			}
		})
	}
}
