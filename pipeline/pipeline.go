// Package pipeline sequences the bargain-hunting run: fetch listings,
// research market values, score bargains, draft negotiation messages, then
// rank the results and render the report. Stages run strictly in order and
// each consumes the full output of the previous one; failures inside a
// stage are isolated per item.
package pipeline

import (
	"context"
	"fmt"
	"sort"
	"time"

	"dealsense/agents"
	"dealsense/config"
	"dealsense/models"
	"dealsense/report"
	"dealsense/services"
	"dealsense/utils"
)

// ListingSource fetches raw listings for a query. Zero results is not an
// error; a failed search is fatal to the run.
type ListingSource interface {
	Search(ctx context.Context, query string, maxItems int) ([]models.RawItem, error)
}

// ReportBuilder renders the run's collected records into report artifacts.
type ReportBuilder interface {
	Build(input report.Input) (report.Artifacts, error)
}

// Result is everything a completed run produced. Errors holds the per-item
// failures that were recovered during the run; Partial marks a run cut
// short by cancellation.
type Result struct {
	Query    string
	Summary  string
	Listings []*models.Listing
	Research []*models.MarketResearch
	Ranked   []*models.ItemAnalysis
	Messages map[string]*models.DealMessage
	Errors   []*StageError
	HTMLPath string
	CSVPath  string
	Partial  bool
}

// Pipeline wires the stages together. All collaborators are injected at
// construction; the pipeline itself holds no ambient state between runs.
type Pipeline struct {
	cfg         *config.Config
	logger      *utils.Logger
	source      ListingSource
	normalizer  *services.Normalizer
	researcher  *agents.ResearchAgent
	analyst     *agents.Analyst
	dealmaker   *agents.DealMaker
	recommender *services.Recommender
	reporter    ReportBuilder
}

func New(cfg *config.Config, logger *utils.Logger, source ListingSource,
	normalizer *services.Normalizer, researcher *agents.ResearchAgent,
	analyst *agents.Analyst, dealmaker *agents.DealMaker,
	recommender *services.Recommender, reporter ReportBuilder) *Pipeline {

	return &Pipeline{
		cfg:         cfg,
		logger:      logger,
		source:      source,
		normalizer:  normalizer,
		researcher:  researcher,
		analyst:     analyst,
		dealmaker:   dealmaker,
		recommender: recommender,
		reporter:    reporter,
	}
}

func (p *Pipeline) stage(name string) stage {
	return stage{
		name:    name,
		logger:  p.logger,
		timeout: time.Duration(p.cfg.RequestTimeoutSec) * time.Second,
		workers: p.cfg.MaxConcurrency,
		rateMs:  p.cfg.RateLimitMs,
	}
}

// Run executes the full pipeline for one query. A search failure is the
// only fatal error; everything after that point degrades per item. On
// cancellation the completed portion is returned alongside the context
// error, with Result.Partial set.
func (p *Pipeline) Run(ctx context.Context, query string, maxItems int) (*Result, error) {
	if maxItems < 1 {
		maxItems = p.cfg.DefaultMaxItems
	}
	res := &Result{Query: query, Messages: map[string]*models.DealMessage{}}

	// FETCH
	p.logger.Info("[pipeline] FETCH — query %q, max %d items", query, maxItems)
	raw, err := p.source.Search(ctx, query, maxItems)
	if err != nil {
		return nil, fmt.Errorf("fetching listings: %w", err)
	}
	res.Listings = p.normalizer.Normalize(raw)
	if len(res.Listings) == 0 {
		p.logger.Warn("[pipeline] No listings fetched — continuing with empty collections")
	}

	// RESEARCH: one record per listing, in listing order. Failures are
	// substituted with a fallback so the positional pairing below holds.
	p.logger.Info("[pipeline] RESEARCH — %d listings", len(res.Listings))
	research, researchErrs, ctxErr := runAll(ctx, p.stage("research"), res.Listings,
		func(l *models.Listing) string { return l.ID },
		p.researcher.Research,
		p.researcher.FallbackResearch,
	)
	res.Research = research
	res.Errors = append(res.Errors, researchErrs...)
	if ctxErr != nil {
		return p.cancelled(res, ctxErr)
	}

	// ANALYZE: listings pair positionally with their research records.
	// Analysis failures drop the item rather than inventing a score.
	p.logger.Info("[pipeline] ANALYZE — %d listing/research pairs", len(res.Listings))
	pairs := make([]analysisPair, len(res.Listings))
	for i, l := range res.Listings {
		pairs[i] = analysisPair{listing: l, research: res.Research[i]}
	}
	analyses, analyzeErrs, ctxErr := runSurviving(ctx, p.stage("analyze"), pairs,
		func(pr analysisPair) string { return pr.listing.ID },
		func(ctx context.Context, pr analysisPair) (*models.ItemAnalysis, error) {
			return p.analyst.Analyze(ctx, pr.listing, pr.research)
		},
	)
	res.Errors = append(res.Errors, analyzeErrs...)
	if ctxErr != nil {
		res.Ranked = rank(analyses)
		return p.cancelled(res, ctxErr)
	}

	// MESSAGE: analysis may have dropped items, so the original listing and
	// research are re-correlated by identifier rather than by position.
	p.logger.Info("[pipeline] MESSAGE — %d analyzed items", len(analyses))
	correlator := NewCorrelator(res.Listings, res.Research, nil)
	messages, messageErrs, ctxErr := runSurviving(ctx, p.stage("message"), analyses,
		func(a *models.ItemAnalysis) string { return a.ItemID },
		func(ctx context.Context, a *models.ItemAnalysis) (*models.DealMessage, error) {
			listing := correlator.Listing(a.ItemID)
			research := correlator.Research(a.ItemID)
			return p.dealmaker.Draft(ctx, listing, a, research)
		},
	)
	res.Errors = append(res.Errors, messageErrs...)
	for _, m := range messages {
		res.Messages[models.NormalizeID(m.ItemID)] = m
	}
	if ctxErr != nil {
		res.Ranked = rank(analyses)
		return p.cancelled(res, ctxErr)
	}

	// RANK_AND_REPORT
	res.Ranked = rank(analyses)
	res.Summary = p.recommender.Build(res.Ranked)

	artifacts, err := p.reporter.Build(report.Input{
		Query:       query,
		GeneratedAt: time.Now(),
		Listings:    res.Listings,
		Ranked:      res.Ranked,
		Research:    res.Research,
		Messages:    res.Messages,
	})
	if err != nil {
		// Report failure never fails the run; the summary still stands.
		p.logger.Error("[pipeline] Report generation failed: %v", err)
		res.Errors = append(res.Errors, &StageError{Stage: "report", Err: err})
	} else {
		res.HTMLPath = artifacts.HTMLPath
		res.CSVPath = artifacts.CSVPath
	}

	// DONE
	p.logger.Info("[pipeline] DONE — %d ranked items, %d recovered failures",
		len(res.Ranked), len(res.Errors))
	return res, nil
}

type analysisPair struct {
	listing  *models.Listing
	research *models.MarketResearch
}

// rank sorts analyses by score descending. The sort is stable so ties keep
// their stage order.
func rank(analyses []*models.ItemAnalysis) []*models.ItemAnalysis {
	ranked := make([]*models.ItemAnalysis, len(analyses))
	copy(ranked, analyses)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})
	return ranked
}

func (p *Pipeline) cancelled(res *Result, ctxErr error) (*Result, error) {
	res.Partial = true
	res.Summary = p.recommender.Build(res.Ranked)
	p.logger.Warn("[pipeline] Run cancelled — returning partial results (%d listings, %d ranked)",
		len(res.Listings), len(res.Ranked))
	return res, ctxErr
}
