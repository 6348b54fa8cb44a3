package services

import "testing"

func TestScoreBandEdges(t *testing.T) {
	// Market average fixed at 100 so listing price == ratio.
	tests := []struct {
		ratio float64
		want  int
	}{
		{10, 100},
		{30, 100},
		{31, 80},
		{39, 80},
		{40, 80},
		{41, 79},
		{50, 79},
		{51, 60},
		{59, 60},
		{60, 60},
		{61, 59},
		{75, 59},
		{76, 40},
		{90, 40},
		{91, 39},
		{100, 39},
		{104, 39},
		{105, 39},
		{106, 20},
		{119, 20},
		{120, 20},
		{121, 19},
		{185, 15},
		{199, 1},
		{250, 1},
	}

	for _, tt := range tests {
		got := Score(tt.ratio, 100)
		if got != tt.want {
			t.Errorf("Score(%.0f, 100) = %d; want %d", tt.ratio, got, tt.want)
		}
	}
}

func TestScoreConcreteExamples(t *testing.T) {
	if got := Score(100, 250); got != 80 {
		t.Errorf("Score(100, 250) = %d; want 80 (ratio 40)", got)
	}
	if got := Score(100, 100); got != 39 {
		t.Errorf("Score(100, 100) = %d; want 39 (ratio 100)", got)
	}
}

func TestScoreZeroMarketAverage(t *testing.T) {
	if got := Score(100, 0); got != 1 {
		t.Errorf("Score(100, 0) = %d; want 1", got)
	}
	if got := Score(100, -5); got != 1 {
		t.Errorf("Score(100, -5) = %d; want 1", got)
	}
}

func TestScoreAlwaysInRange(t *testing.T) {
	prices := []float64{0.01, 1, 25, 99.99, 100, 250, 1000, 99999}
	for _, listing := range prices {
		for _, market := range prices {
			got := Score(listing, market)
			if got < 1 || got > 100 {
				t.Errorf("Score(%.2f, %.2f) = %d; out of [1,100]", listing, market, got)
			}
		}
	}
}
