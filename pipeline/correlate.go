package pipeline

import (
	"dealsense/models"
)

// Correlator joins the run's collections by normalized identifier. Once a
// stage has dropped items, positional joins are no longer valid; everything
// downstream of analysis resolves records through here instead.
type Correlator struct {
	listings []*models.Listing
	research []*models.MarketResearch
	messages map[string]*models.DealMessage
}

func NewCorrelator(listings []*models.Listing, research []*models.MarketResearch, messages map[string]*models.DealMessage) *Correlator {
	return &Correlator{listings: listings, research: research, messages: messages}
}

// Listing resolves the listing for an identifier. First match wins. A miss
// returns an empty projection carrying only the id, so callers never deal
// with nil.
func (c *Correlator) Listing(id string) *models.Listing {
	want := models.NormalizeID(id)
	for _, l := range c.listings {
		if models.NormalizeID(l.ID) == want {
			return l
		}
	}
	return &models.Listing{ID: want}
}

// Research resolves the research record for an identifier, or nil when no
// record matches. A nil result means "no market context", not an error.
func (c *Correlator) Research(id string) *models.MarketResearch {
	want := models.NormalizeID(id)
	for _, r := range c.research {
		if models.NormalizeID(r.ItemID) == want {
			return r
		}
	}
	return nil
}

// Message resolves the drafted message for an identifier, or nil when
// drafting failed or was skipped.
func (c *Correlator) Message(id string) *models.DealMessage {
	if c.messages == nil {
		return nil
	}
	return c.messages[models.NormalizeID(id)]
}
