package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dealsense/agents"
	"dealsense/config"
	"dealsense/genai"
	"dealsense/models"
	"dealsense/report"
	"dealsense/services"
	"dealsense/utils"
)

func testConfig() *config.Config {
	return &config.Config{
		VintedBaseURL:     "https://www.vinted.it",
		DefaultMaxItems:   5,
		MaxConcurrency:    1,
		RateLimitMs:       0,
		MaxRetries:        1,
		SourceTimeoutSec:  5,
		RequestTimeoutSec: 5,
	}
}

// fakeSource serves canned raw items or a fixed error.
type fakeSource struct {
	items []models.RawItem
	err   error
}

func (s *fakeSource) Search(_ context.Context, _ string, maxItems int) ([]models.RawItem, error) {
	if s.err != nil {
		return nil, s.err
	}
	if len(s.items) > maxItems {
		return s.items[:maxItems], nil
	}
	return s.items, nil
}

// failingGen wraps the deterministic generator and fails selected
// (schema, item id) combinations.
type failingGen struct {
	inner genai.Generator
	fail  map[genai.SchemaName]map[string]bool
}

func newFailingGen() *failingGen {
	return &failingGen{
		inner: genai.NewStubGenerator(),
		fail:  map[genai.SchemaName]map[string]bool{},
	}
}

func (g *failingGen) failFor(schema genai.SchemaName, id string) {
	if g.fail[schema] == nil {
		g.fail[schema] = map[string]bool{}
	}
	g.fail[schema][id] = true
}

func (g *failingGen) Generate(ctx context.Context, req genai.Request) (json.RawMessage, error) {
	item, _ := req.Payload["item_data"].(map[string]any)
	if item == nil {
		item, _ = req.Payload["item_info"].(map[string]any)
	}
	id := models.NormalizeID(item["id"])
	if g.fail[req.Schema][id] {
		return nil, fmt.Errorf("induced %s failure for item %s", req.Schema, id)
	}
	return g.inner.Generate(ctx, req)
}

// fakeReporter records the input it was handed.
type fakeReporter struct {
	input report.Input
	calls int
	err   error
}

func (r *fakeReporter) Build(in report.Input) (report.Artifacts, error) {
	r.calls++
	r.input = in
	if r.err != nil {
		return report.Artifacts{}, r.err
	}
	return report.Artifacts{HTMLPath: "output/test.html", CSVPath: "output/test.csv"}, nil
}

func newTestPipeline(source ListingSource, gen genai.Generator, reporter ReportBuilder) *Pipeline {
	cfg := testConfig()
	logger := utils.NewLogger()
	return New(cfg, logger,
		source,
		services.NewNormalizer(logger, cfg.VintedBaseURL),
		agents.NewResearchAgent(gen, logger, 1, "amazon"),
		agents.NewAnalyst(gen, logger),
		agents.NewDealMaker(gen, logger),
		services.NewRecommender(logger),
		reporter,
	)
}

func rawItems(n int) []models.RawItem {
	items := make([]models.RawItem, 0, n)
	for i := 1; i <= n; i++ {
		items = append(items, models.RawItem{
			"id":    json.Number(fmt.Sprintf("%d", i)),
			"title": fmt.Sprintf("Item %d", i),
			"price": fmt.Sprintf("%d.00", i*10),
			"url":   fmt.Sprintf("/items/%d", i),
		})
	}
	return items
}

func TestPipelineFullRun(t *testing.T) {
	reporter := &fakeReporter{}
	p := newTestPipeline(&fakeSource{items: rawItems(3)}, newFailingGen(), reporter)

	res, err := p.Run(context.Background(), "ssd", 5)
	require.NoError(t, err)

	assert.Len(t, res.Listings, 3)
	assert.Len(t, res.Research, 3)
	assert.Len(t, res.Ranked, 3)
	assert.Len(t, res.Messages, 3)
	assert.Empty(t, res.Errors)
	assert.False(t, res.Partial)

	// Ranked is sorted by score descending.
	for i := 1; i < len(res.Ranked); i++ {
		assert.GreaterOrEqual(t, res.Ranked[i-1].Score, res.Ranked[i].Score)
	}

	assert.Contains(t, res.Summary, "# Recommended Items")
	assert.Equal(t, 1, reporter.calls)
	assert.Equal(t, "ssd", reporter.input.Query)
	assert.Equal(t, "output/test.html", res.HTMLPath)
}

func TestPipelineResearchFailureSubstitutesFallback(t *testing.T) {
	gen := newFailingGen()
	gen.failFor(genai.SchemaMarketResearch, "2")

	p := newTestPipeline(&fakeSource{items: rawItems(5)}, gen, &fakeReporter{})

	res, err := p.Run(context.Background(), "ssd", 5)
	require.NoError(t, err)

	// Research output keeps the listing order and length; index 1 (item id
	// "2") carries the fallback record.
	require.Len(t, res.Research, 5)
	for i, r := range res.Research {
		assert.Equal(t, res.Listings[i].ID, r.ItemID, "research[%d] must pair with listing[%d]", i, i)
	}
	fallback := res.Research[1]
	assert.Equal(t, "Could not determine due to error", fallback.ValueAssessment)
	assert.Zero(t, fallback.AveragePrice)
	assert.Equal(t, 1, fallback.Confidence.Score)
	assert.Contains(t, fallback.Notes, "induced")

	// All other indices hold normal records.
	for i, r := range res.Research {
		if i == 1 {
			continue
		}
		assert.NotZero(t, r.AveragePrice, "research[%d] should be a real record", i)
	}

	// The failed-research item still flows through analysis with a floor score.
	require.Len(t, res.Ranked, 5)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, "research", res.Errors[0].Stage)
	assert.Equal(t, "2", res.Errors[0].ItemID)
}

func TestPipelineAnalysisFailureDropsItem(t *testing.T) {
	gen := newFailingGen()
	gen.failFor(genai.SchemaItemAnalysis, "2")

	reporter := &fakeReporter{}
	p := newTestPipeline(&fakeSource{items: rawItems(4)}, gen, reporter)

	res, err := p.Run(context.Background(), "ssd", 5)
	require.NoError(t, err)

	assert.Len(t, res.Listings, 4)
	assert.Len(t, res.Research, 4)
	require.Len(t, res.Ranked, 3, "failed analysis drops the item")
	for _, a := range res.Ranked {
		assert.NotEqual(t, "2", a.ItemID)
	}

	assert.Contains(t, res.Summary, "# Recommended Items")
	assert.Equal(t, 1, reporter.calls)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, "analyze", res.Errors[0].Stage)
}

func TestPipelineMessageFailureLeavesAbsent(t *testing.T) {
	gen := newFailingGen()
	gen.failFor(genai.SchemaDealMessage, "3")

	p := newTestPipeline(&fakeSource{items: rawItems(3)}, gen, &fakeReporter{})

	res, err := p.Run(context.Background(), "ssd", 5)
	require.NoError(t, err)

	assert.Len(t, res.Ranked, 3, "message failure must not drop the analysis")
	assert.Len(t, res.Messages, 2)
	assert.NotContains(t, res.Messages, "3")
	require.Len(t, res.Errors, 1)
	assert.Equal(t, "message", res.Errors[0].Stage)
}

func TestPipelineEmptyInputCompletes(t *testing.T) {
	reporter := &fakeReporter{}
	p := newTestPipeline(&fakeSource{items: nil}, newFailingGen(), reporter)

	res, err := p.Run(context.Background(), "nothing", 5)
	require.NoError(t, err)

	assert.Empty(t, res.Listings)
	assert.Empty(t, res.Ranked)
	assert.Equal(t, "No analysis results available to prepare recommendations.", res.Summary)
	assert.Equal(t, 1, reporter.calls, "report is still rendered for an empty run")
}

func TestPipelineSourceFailureIsFatal(t *testing.T) {
	p := newTestPipeline(&fakeSource{err: errors.New("connection refused")}, newFailingGen(), &fakeReporter{})

	res, err := p.Run(context.Background(), "ssd", 5)
	require.Error(t, err)
	assert.Nil(t, res)
}

func TestPipelineReportFailureIsNotFatal(t *testing.T) {
	reporter := &fakeReporter{err: errors.New("disk full")}
	p := newTestPipeline(&fakeSource{items: rawItems(2)}, newFailingGen(), reporter)

	res, err := p.Run(context.Background(), "ssd", 5)
	require.NoError(t, err)

	assert.Contains(t, res.Summary, "# Recommended Items")
	assert.Empty(t, res.HTMLPath)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, "report", res.Errors[0].Stage)
}

func TestPipelineCancellationReturnsPartial(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := newTestPipeline(&fakeSource{items: rawItems(3)}, newFailingGen(), &fakeReporter{})

	res, err := p.Run(ctx, "ssd", 5)
	require.Error(t, err)
	require.NotNil(t, res)
	assert.True(t, res.Partial)
}
