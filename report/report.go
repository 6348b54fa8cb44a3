// Package report renders the run's collected records into shareable
// artifacts: an HTML report for reading and a CSV export for spreadsheets.
package report

import (
	"time"

	"dealsense/models"
)

// Input is everything the builders need, assembled by the pipeline.
// Ranked is sorted by score descending; Messages is keyed by normalized
// item identifier.
type Input struct {
	Query       string
	GeneratedAt time.Time
	Listings    []*models.Listing
	Ranked      []*models.ItemAnalysis
	Research    []*models.MarketResearch
	Messages    map[string]*models.DealMessage
}

// Artifacts holds the paths of the rendered outputs. CSVPath may be empty
// when the CSV export failed; the HTML report is the primary artifact.
type Artifacts struct {
	HTMLPath string
	CSVPath  string
}

// Builder renders report artifacts from a run's records.
type Builder interface {
	Build(Input) (Artifacts, error)
}

// listingByID re-keys the listings by normalized identifier.
func listingByID(listings []*models.Listing) map[string]*models.Listing {
	m := make(map[string]*models.Listing, len(listings))
	for _, l := range listings {
		id := models.NormalizeID(l.ID)
		if _, ok := m[id]; !ok {
			m[id] = l
		}
	}
	return m
}

// researchByID re-keys the research records by normalized identifier.
func researchByID(research []*models.MarketResearch) map[string]*models.MarketResearch {
	m := make(map[string]*models.MarketResearch, len(research))
	for _, r := range research {
		id := models.NormalizeID(r.ItemID)
		if _, ok := m[id]; !ok {
			m[id] = r
		}
	}
	return m
}
