package report

import (
	"embed"
	"fmt"
	"html/template"
	"os"
	"path/filepath"

	"dealsense/models"
	"dealsense/utils"
)

//go:embed template/report.html
var templateFS embed.FS

// Service renders the HTML report and the CSV export into the output
// directory. It implements Builder.
type Service struct {
	logger    *utils.Logger
	outputDir string
	tmpl      *template.Template
}

func NewService(logger *utils.Logger, outputDir string) (*Service, error) {
	tmpl, err := template.ParseFS(templateFS, "template/report.html")
	if err != nil {
		return nil, fmt.Errorf("report: parsing template: %w", err)
	}
	return &Service{logger: logger, outputDir: outputDir, tmpl: tmpl}, nil
}

// templateItem is one item card in the rendered report.
type templateItem struct {
	ID          string
	Title       string
	Price       float64
	Currency    string
	Brand       string
	Status      string
	Description string
	PhotoURL    string
	ItemURL     string
	Seller      string
	Location    string
	Score       int
	ScoreClass  string
	Notes       string
	Research    *models.MarketResearch
	Message     *models.DealMessage
}

type templateData struct {
	Query     string
	Timestamp string
	Date      string
	Items     []templateItem
}

// Build renders both artifacts. The HTML report is required; a CSV failure
// is logged and leaves Artifacts.CSVPath empty.
func (s *Service) Build(in Input) (Artifacts, error) {
	if err := os.MkdirAll(s.outputDir, 0755); err != nil {
		return Artifacts{}, fmt.Errorf("report: create output dir: %w", err)
	}

	stamp := in.GeneratedAt.Format("20060102_150405")
	htmlPath := filepath.Join(s.outputDir, fmt.Sprintf("vinted_analysis_%s.html", stamp))

	data := s.prepare(in)

	f, err := os.Create(htmlPath)
	if err != nil {
		return Artifacts{}, fmt.Errorf("report: create %q: %w", htmlPath, err)
	}
	if err := s.tmpl.Execute(f, data); err != nil {
		_ = f.Close()
		return Artifacts{}, fmt.Errorf("report: render: %w", err)
	}
	if err := f.Close(); err != nil {
		return Artifacts{}, fmt.Errorf("report: close %q: %w", htmlPath, err)
	}
	s.logger.Info("[report] HTML report generated: %s", htmlPath)

	artifacts := Artifacts{HTMLPath: htmlPath}

	csvPath := filepath.Join(s.outputDir, fmt.Sprintf("vinted_analysis_%s.csv", stamp))
	if err := writeCSV(csvPath, in); err != nil {
		s.logger.Warn("[report] CSV export failed: %v", err)
	} else {
		s.logger.Info("[report] CSV export generated: %s", csvPath)
		artifacts.CSVPath = csvPath
	}

	return artifacts, nil
}

func (s *Service) prepare(in Input) templateData {
	listings := listingByID(in.Listings)
	research := researchByID(in.Research)

	data := templateData{
		Query:     in.Query,
		Timestamp: in.GeneratedAt.Format("2006-01-02 15:04:05"),
		Date:      in.GeneratedAt.Format("2006-01-02 at 15:04:05"),
	}

	for _, a := range in.Ranked {
		id := models.NormalizeID(a.ItemID)

		item := templateItem{
			ID:         id,
			Title:      a.Title,
			Price:      a.Price,
			Currency:   "EUR",
			Status:     a.Status,
			Score:      a.Score,
			ScoreClass: scoreClass(a.Score),
			Notes:      a.Notes,
			Research:   research[id],
			Message:    in.Messages[id],
		}

		if l, ok := listings[id]; ok {
			if l.Title != "" {
				item.Title = l.Title
			}
			if l.Price > 0 {
				item.Price = l.Price
			}
			if l.Currency != "" {
				item.Currency = l.Currency
			}
			item.Brand = l.Brand
			item.Description = l.Description
			item.PhotoURL = l.PhotoURL
			item.ItemURL = l.URL
			item.Seller = l.Seller
			item.Location = l.Location
			if item.Status == "" {
				item.Status = l.Status
			}
		}

		data.Items = append(data.Items, item)
	}

	return data
}

// scoreClass maps a bargain score onto the report's color classes.
func scoreClass(score int) string {
	switch {
	case score >= 70:
		return "high-score"
	case score >= 40:
		return "medium-score"
	default:
		return "low-score"
	}
}
