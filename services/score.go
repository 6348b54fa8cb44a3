package services

// Score rates the bargain quality of a listing price against the average
// market price on a 1–100 scale. The mapping is a deliberately coarse step
// function over the price ratio (listing as a percentage of market):
//
//	 80–100  excellent deal (≤40% of market price)
//	 60–79   good deal      (41–60%)
//	 40–59   fair price     (61–90%)
//	 20–39   above market   (91–120%)
//	  1–19   significantly overpriced (>120%)
//
// A market average of zero (or less) cannot produce a ratio; those listings
// score 1, the floor, rather than failing the stage.
func Score(listingPrice, marketAvgPrice float64) int {
	if marketAvgPrice <= 0 {
		return 1
	}

	ratio := listingPrice / marketAvgPrice * 100

	switch {
	case ratio <= 30:
		return 100
	case ratio <= 40:
		return 80
	case ratio <= 50:
		return 79
	case ratio <= 60:
		return 60
	case ratio <= 75:
		return 59
	case ratio <= 90:
		return 40
	case ratio <= 105:
		return 39
	case ratio <= 120:
		return 20
	}

	// Linear decay past 120%: int truncation matches the scoring table.
	s := int(200 - ratio)
	if s < 1 {
		return 1
	}
	if s > 19 {
		return 19
	}
	return s
}
