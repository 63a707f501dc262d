package excel

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"github.com/eventra/event-registration-backend/internal/database/repository"
	"github.com/eventra/event-registration-backend/internal/models"
)

// Service handles Excel import of participants and export of campaign
// delivery reports
type Service struct {
	participantRepo *repository.ParticipantRepository
	campaignRepo    *repository.EmailCampaignRepository
	logRepo         *repository.EmailLogRepository
	exportsDir      string
}

// NewExcelService creates a new Excel service instance
func NewExcelService(
	participantRepo *repository.ParticipantRepository,
	campaignRepo *repository.EmailCampaignRepository,
	logRepo *repository.EmailLogRepository,
	exportsDir string) *Service {
	if _, err := os.Stat(exportsDir); os.IsNotExist(err) {
		os.MkdirAll(exportsDir, 0755)
	}

	return &Service{
		participantRepo: participantRepo,
		campaignRepo:    campaignRepo,
		logRepo:         logRepo,
		exportsDir:      exportsDir,
	}
}

// ImportResult contains the result of an import operation
type ImportResult struct {
	Success      bool     `json:"success"`
	Message      string   `json:"message"`
	RecordsCount int      `json:"records_count"`
	SkippedRows  []int    `json:"skipped_rows,omitempty"`
	Columns      []string `json:"columns"`
}

// ExportResult contains the result of an export operation
type ExportResult struct {
	Success  bool   `json:"success"`
	Message  string `json:"message"`
	Filename string `json:"filename"`
	FilePath string `json:"-"`
}

// Expected header order for participant imports
var participantColumns = []string{"name", "email", "phone", "company", "job_title"}

// ImportParticipants reads participants from an .xlsx upload and registers
// them in one batch. Rows without a name or email are skipped, not fatal.
func (s *Service) ImportParticipants(eventID string, reader io.Reader) (*ImportResult, error) {
	f, err := excelize.OpenReader(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	sheetName := f.GetSheetName(0)
	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", sheetName, err)
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("sheet %s has no data rows", sheetName)
	}

	// Map header names to column indexes so column order doesn't matter
	colIndex := make(map[string]int)
	for i, header := range rows[0] {
		key := strings.ToLower(strings.TrimSpace(header))
		key = strings.ReplaceAll(key, " ", "_")
		colIndex[key] = i
	}
	for _, required := range []string{"name", "email"} {
		if _, ok := colIndex[required]; !ok {
			return nil, fmt.Errorf("missing required column %q", required)
		}
	}

	cell := func(row []string, column string) string {
		idx, ok := colIndex[column]
		if !ok || idx >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[idx])
	}

	var participants []*models.Participant
	var skipped []int
	for i, row := range rows[1:] {
		name := cell(row, "name")
		email := cell(row, "email")
		if name == "" || email == "" {
			skipped = append(skipped, i+2)
			continue
		}
		participants = append(participants, &models.Participant{
			EventID:  eventID,
			Name:     name,
			Email:    email,
			Phone:    cell(row, "phone"),
			Company:  cell(row, "company"),
			JobTitle: cell(row, "job_title"),
		})
	}

	if len(participants) == 0 {
		return nil, fmt.Errorf("no valid participant rows found")
	}

	if err := s.participantRepo.CreateBatch(participants); err != nil {
		return nil, fmt.Errorf("failed to import participants: %w", err)
	}

	return &ImportResult{
		Success:      true,
		Message:      fmt.Sprintf("Imported %d participants", len(participants)),
		RecordsCount: len(participants),
		SkippedRows:  skipped,
		Columns:      participantColumns,
	}, nil
}

// ExportCampaignReport exports the per-recipient delivery report of a
// campaign to an Excel file
func (s *Service) ExportCampaignReport(campaignID string) (*ExportResult, error) {
	campaign, err := s.campaignRepo.GetByID(campaignID)
	if err != nil {
		return nil, fmt.Errorf("campaign with id %s not found", campaignID)
	}

	logs, err := s.logRepo.GetByCampaignID(campaignID)
	if err != nil {
		return nil, fmt.Errorf("failed to get campaign logs: %w", err)
	}

	f := excelize.NewFile()

	failedStyle, _ := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"FFC7CE"}, // Light red
			Pattern: 1,
		},
	})
	openedStyle, _ := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"C6EFCE"}, // Light green
			Pattern: 1,
		},
	})

	sheetName := "Deliveries"
	if err := f.SetSheetName(f.GetSheetName(0), sheetName); err != nil {
		return nil, fmt.Errorf("failed to rename sheet: %w", err)
	}
	f.SetActiveSheet(0)

	columns := []string{
		"recipient", "participant_id", "template", "subject",
		"status", "error_message", "sent_at", "opened_at",
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"FFFF00"},
			Pattern: 1,
		},
	})
	for i, col := range columns {
		f.SetCellValue(sheetName, fmt.Sprintf("%s1", columnToLetter(i+1)), col)
	}
	if err == nil {
		f.SetCellStyle(sheetName, "A1", columnToLetter(len(columns))+"1", headerStyle)
	}

	for i, col := range columns {
		colLetter := columnToLetter(i + 1)
		width := 20.0
		switch col {
		case "recipient", "subject":
			width = 30.0
		case "participant_id":
			width = 38.0
		case "error_message":
			width = 50.0
		}
		f.SetColWidth(sheetName, colLetter, colLetter, width)
	}

	formatTime := func(t *time.Time) string {
		if t == nil {
			return ""
		}
		return t.Format(time.RFC3339)
	}

	for j, entry := range logs {
		rowNum := j + 2
		f.SetCellValue(sheetName, fmt.Sprintf("A%d", rowNum), entry.Recipient)
		f.SetCellValue(sheetName, fmt.Sprintf("B%d", rowNum), entry.ParticipantID)
		f.SetCellValue(sheetName, fmt.Sprintf("C%d", rowNum), entry.TemplateName)
		f.SetCellValue(sheetName, fmt.Sprintf("D%d", rowNum), entry.Subject)
		f.SetCellValue(sheetName, fmt.Sprintf("E%d", rowNum), entry.Status)
		f.SetCellValue(sheetName, fmt.Sprintf("F%d", rowNum), entry.ErrorMessage)
		f.SetCellValue(sheetName, fmt.Sprintf("G%d", rowNum), formatTime(entry.SentAt))
		f.SetCellValue(sheetName, fmt.Sprintf("H%d", rowNum), formatTime(entry.OpenedAt))

		switch entry.Status {
		case models.EmailStatusFailed:
			f.SetCellStyle(sheetName, fmt.Sprintf("A%d", rowNum), fmt.Sprintf("%s%d", columnToLetter(len(columns)), rowNum), failedStyle)
		case models.EmailStatusOpened, models.EmailStatusClicked:
			f.SetCellStyle(sheetName, fmt.Sprintf("A%d", rowNum), fmt.Sprintf("%s%d", columnToLetter(len(columns)), rowNum), openedStyle)
		}
	}

	filename := fmt.Sprintf("campaign_report_%s_%s.xlsx", campaign.ID, uuid.New().String()[:8])
	filePath := filepath.Join(s.exportsDir, filename)
	if err := f.SaveAs(filePath); err != nil {
		return nil, fmt.Errorf("failed to save Excel file: %w", err)
	}

	return &ExportResult{
		Success:  true,
		Message:  fmt.Sprintf("Exported %d delivery records for campaign %s", len(logs), campaign.ID),
		Filename: filename,
		FilePath: filePath,
	}, nil
}

// Helper function to convert column number to Excel column letter
func columnToLetter(col int) string {
	var result string
	for col > 0 {
		col--
		result = string(rune('A'+col%26)) + result
		col /= 26
	}
	return result
}
