package report

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"dealsense/models"
)

// writeCSV exports the ranked results as one row per analyzed item, joined
// with its listing, research, and message data.
func writeCSV(path string, in Input) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("csv: create file %q: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)

	if err := w.Write([]string{
		"rank", "item_id", "title", "price", "currency", "score",
		"avg_market_price", "value_assessment", "offer_price", "success_rate", "url",
	}); err != nil {
		return fmt.Errorf("csv: write header: %w", err)
	}

	listings := listingByID(in.Listings)
	research := researchByID(in.Research)

	for i, a := range in.Ranked {
		id := models.NormalizeID(a.ItemID)

		currency := ""
		url := ""
		if l, ok := listings[id]; ok {
			currency = l.Currency
			url = l.URL
		}

		avgPrice, assessment := "", ""
		if r, ok := research[id]; ok {
			avgPrice = strconv.FormatFloat(r.AveragePrice, 'f', 2, 64)
			assessment = r.ValueAssessment
		}

		offer, successRate := "", ""
		if m, ok := in.Messages[id]; ok {
			offer = strconv.FormatFloat(m.OfferPrice, 'f', 2, 64)
			successRate = strconv.Itoa(m.ExpectedSuccessRate)
		}

		row := []string{
			strconv.Itoa(i + 1),
			id,
			a.Title,
			strconv.FormatFloat(a.Price, 'f', 2, 64),
			currency,
			strconv.Itoa(a.Score),
			avgPrice,
			assessment,
			offer,
			successRate,
			url,
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("csv: write row: %w", err)
		}
	}

	w.Flush()
	return w.Error()
}
