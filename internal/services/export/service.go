// Package export renders campaign coverage reports as PDF documents.
package export

import (
	"bytes"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/linklens/internal/models"
)

// maxReportRecords caps the record table to keep reports readable
const maxReportRecords = 25

// Service builds coverage report PDFs
type Service struct {
	logger arbor.ILogger
}

// NewService creates a report export service
func NewService(logger arbor.ILogger) *Service {
	return &Service{logger: logger}
}

// CoverageReport renders one campaign's coverage into a PDF: header,
// summary metrics, destination breakdown, the top records by confidence
// and any risk alerts.
func (s *Service) CoverageReport(campaign *models.Campaign, summary *models.CampaignCoverageSummary, records []*models.BacklinkRecord, assessment models.RiskAssessment) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(10, 10, 10)
	pdf.SetAutoPageBreak(true, 10)
	pdf.AddPage()

	s.writeHeader(pdf, campaign)
	s.writeSummary(pdf, summary)
	s.writeDestinationBreakdown(pdf, summary)
	s.writeRecords(pdf, records)
	s.writeRiskAlerts(pdf, assessment)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to generate report PDF: %w", err)
	}

	s.logger.Debug().
		Str("campaign_id", campaign.ID).
		Int("pdf_size", buf.Len()).
		Msg("Coverage report generated")

	return buf.Bytes(), nil
}

func (s *Service) writeHeader(pdf *fpdf.Fpdf, campaign *models.Campaign) {
	pdf.SetFont("Arial", "B", 16)
	pdf.CellFormat(0, 10, fmt.Sprintf("%s - %s", campaign.ClientName, campaign.CampaignName), "", 1, "L", false, 0, "")

	pdf.SetFont("Arial", "", 9)
	pdf.CellFormat(0, 5, fmt.Sprintf("Domain: %s", campaign.ClientDomain), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 5, fmt.Sprintf("Status: %s", campaign.MonitoringStatus), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 5, fmt.Sprintf("Generated: %s", time.Now().UTC().Format("2006-01-02 15:04 UTC")), "", 1, "L", false, 0, "")
	pdf.Ln(4)
}

func (s *Service) writeSummary(pdf *fpdf.Fpdf, summary *models.CampaignCoverageSummary) {
	s.sectionTitle(pdf, "Coverage Summary")

	rows := [][2]string{
		{"Total results", fmt.Sprintf("%d", summary.TotalResults)},
		{"Verified coverage", fmt.Sprintf("%d", summary.VerifiedCoverage)},
		{"Potential coverage", fmt.Sprintf("%d", summary.PotentialCoverage)},
		{"Verification rate", fmt.Sprintf("%.1f%%", summary.VerificationRate)},
		{"Average domain rating", fmt.Sprintf("%.1f", summary.AverageDomainRating)},
		{"Average confidence", fmt.Sprintf("%.1f", summary.AverageConfidence)},
		{"SERP rankings tracked", fmt.Sprintf("%d", summary.SerpRankings)},
	}

	pdf.SetFont("Arial", "", 9)
	for _, row := range rows {
		pdf.CellFormat(60, 6, row[0], "1", 0, "L", false, 0, "")
		pdf.CellFormat(40, 6, row[1], "1", 1, "R", false, 0, "")
	}
	pdf.Ln(4)
}

func (s *Service) writeDestinationBreakdown(pdf *fpdf.Fpdf, summary *models.CampaignCoverageSummary) {
	if len(summary.DestinationBreakdown) == 0 {
		return
	}
	s.sectionTitle(pdf, "Link Destinations")

	destinations := make([]string, 0, len(summary.DestinationBreakdown))
	for destination := range summary.DestinationBreakdown {
		destinations = append(destinations, string(destination))
	}
	sort.Strings(destinations)

	pdf.SetFont("Arial", "", 9)
	for _, destination := range destinations {
		count := summary.DestinationBreakdown[models.LinkDestination(destination)]
		pdf.CellFormat(60, 6, destination, "1", 0, "L", false, 0, "")
		pdf.CellFormat(40, 6, fmt.Sprintf("%d", count), "1", 1, "R", false, 0, "")
	}
	pdf.Ln(4)
}

func (s *Service) writeRecords(pdf *fpdf.Fpdf, records []*models.BacklinkRecord) {
	if len(records) == 0 {
		return
	}
	s.sectionTitle(pdf, fmt.Sprintf("Top Records (by confidence, max %d)", maxReportRecords))

	sorted := make([]*models.BacklinkRecord, len(records))
	copy(sorted, records)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].ConfidenceScore > sorted[j].ConfidenceScore
	})
	if len(sorted) > maxReportRecords {
		sorted = sorted[:maxReportRecords]
	}

	pdf.SetFont("Arial", "B", 8)
	pdf.SetFillColor(230, 230, 230)
	pdf.CellFormat(90, 6, "Source", "1", 0, "L", true, 0, "")
	pdf.CellFormat(25, 6, "Status", "1", 0, "L", true, 0, "")
	pdf.CellFormat(15, 6, "DR", "1", 0, "R", true, 0, "")
	pdf.CellFormat(25, 6, "Confidence", "1", 0, "R", true, 0, "")
	pdf.CellFormat(30, 6, "Provenance", "1", 1, "L", true, 0, "")

	pdf.SetFont("Arial", "", 8)
	for _, record := range sorted {
		pdf.CellFormat(90, 6, truncate(record.SourceURL, 60), "1", 0, "L", false, 0, "")
		pdf.CellFormat(25, 6, string(record.CoverageStatus), "1", 0, "L", false, 0, "")
		pdf.CellFormat(15, 6, fmt.Sprintf("%d", record.DomainRating), "1", 0, "R", false, 0, "")
		pdf.CellFormat(25, 6, fmt.Sprintf("%d", record.ConfidenceScore), "1", 0, "R", false, 0, "")
		pdf.CellFormat(30, 6, record.SourceAPI, "1", 1, "L", false, 0, "")
	}
	pdf.Ln(4)
}

func (s *Service) writeRiskAlerts(pdf *fpdf.Fpdf, assessment models.RiskAssessment) {
	s.sectionTitle(pdf, "Risk Assessment")

	pdf.SetFont("Arial", "", 9)
	if len(assessment.Alerts) == 0 {
		pdf.CellFormat(0, 6, fmt.Sprintf("No risk signals across %d records.", assessment.ScannedRecords), "", 1, "L", false, 0, "")
		return
	}

	for _, alert := range assessment.Alerts {
		pdf.SetFont("Arial", "B", 9)
		pdf.CellFormat(0, 6, fmt.Sprintf("[%s] %s", strings.ToUpper(string(alert.Severity)), alert.Type), "", 1, "L", false, 0, "")
		pdf.SetFont("Arial", "", 9)
		pdf.MultiCell(0, 5, alert.Description, "", "L", false)
		pdf.MultiCell(0, 5, "Recommendation: "+alert.Recommendation, "", "L", false)
		pdf.Ln(2)
	}
}

func (s *Service) sectionTitle(pdf *fpdf.Fpdf, title string) {
	pdf.SetFont("Arial", "B", 12)
	pdf.CellFormat(0, 8, title, "", 1, "L", false, 0, "")
	pdf.SetFont("Arial", "", 9)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
