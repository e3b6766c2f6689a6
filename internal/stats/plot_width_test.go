package stats

import "testing"

func TestPlotWidthFor(t *testing.T) {
	cases := []struct {
		total int
		want  int
	}{
		{total: 80, want: 80 - len("100%") - len([]rune(" │ "))},
		{total: 12, want: minPlotWidth},
		{total: 0, want: minPlotWidth},
		{total: -5, want: minPlotWidth},
	}
	for _, tc := range cases {
		if got := PlotWidthFor(tc.total); got != tc.want {
			t.Fatalf("PlotWidthFor(%d) = %d, want %d", tc.total, got, tc.want)
		}
	}
}

func TestResampleSeries(t *testing.T) {
	shrunk := resampleSeries([]float64{1, 3, 5, 7}, 2)
	if len(shrunk) != 2 || shrunk[0] != 2 || shrunk[1] != 6 {
		t.Fatalf("expected bucket averages [2 6], got %v", shrunk)
	}
	stretched := resampleSeries([]float64{0, 10}, 3)
	if len(stretched) != 3 || stretched[0] != 0 || stretched[1] != 5 || stretched[2] != 10 {
		t.Fatalf("expected interpolation [0 5 10], got %v", stretched)
	}
	flat := resampleSeries([]float64{4}, 3)
	for _, v := range flat {
		if v != 4 {
			t.Fatalf("expected constant series, got %v", flat)
		}
	}
	if resampleSeries(nil, 3) != nil {
		t.Fatalf("expected nil for empty input")
	}
}

func TestValueRangeDot(t *testing.T) {
	r := valueRange{lo: 0, hi: 100}
	if got := r.dot(100, 8); got != 0 {
		t.Fatalf("expected top row, got %d", got)
	}
	if got := r.dot(0, 8); got != 7 {
		t.Fatalf("expected bottom row, got %d", got)
	}
	if got := r.dot(250, 8); got != 0 {
		t.Fatalf("expected clamp to top, got %d", got)
	}
}
