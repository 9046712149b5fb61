package services

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/Rao-Faizan/my-gamil-automation/internal/database/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// requiredColumns are the CSV columns every import row must provide
var requiredColumns = []string{"sender", "subject", "original_body"}

// ImportService loads reply records from CSV uploads
type ImportService struct {
	store      *ReplyStore
	logService *LogService
	logger     *zap.Logger
}

// NewImportService creates a new ImportService instance
func NewImportService(store *ReplyStore, logService *LogService, logger *zap.Logger) *ImportService {
	return &ImportService{
		store:      store,
		logService: logService,
		logger:     logger,
	}
}

// ImportResult summarizes one CSV import
type ImportResult struct {
	Imported int `json:"imported"`
	Skipped  int `json:"skipped"`
}

// ImportCSV reads rows from r and inserts them as unread records. Rows missing
// a required value are skipped and counted; the batch continues. The header
// row must name at least sender, subject and original_body.
func (s *ImportService) ImportCSV(r io.Reader) (*ImportResult, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("%w: cannot read CSV header: %v", ErrValidation, err)
	}

	colIndex := make(map[string]int, len(header))
	for i, name := range header {
		colIndex[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, required := range requiredColumns {
		if _, ok := colIndex[required]; !ok {
			return nil, fmt.Errorf("%w: CSV header missing required column %q", ErrValidation, required)
		}
	}

	result := &ImportResult{}
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			// Malformed row, keep going with the rest of the file
			result.Skipped++
			s.logger.Warn("skipping malformed CSV row", zap.Error(err))
			continue
		}

		record, ok := s.rowToRecord(row, colIndex)
		if !ok {
			result.Skipped++
			continue
		}

		inserted, err := s.store.InsertIfNew(record)
		if err != nil {
			result.Skipped++
			s.logger.Warn("failed to insert imported row",
				zap.String("sender", record.Sender),
				zap.Error(err))
			continue
		}
		if inserted {
			result.Imported++
		} else {
			result.Skipped++
		}
	}

	s.logService.LogImport(result.Imported, result.Skipped)
	return result, nil
}

// rowToRecord converts one CSV row; returns false when a required value is
// missing
func (s *ImportService) rowToRecord(row []string, colIndex map[string]int) (*models.ReplyRecord, bool) {
	get := func(name string) string {
		idx, ok := colIndex[name]
		if !ok || idx >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[idx])
	}

	sender := get("sender")
	subject := get("subject")
	body := get("original_body")
	if sender == "" || subject == "" || body == "" {
		return nil, false
	}

	emailDate := time.Now().UTC()
	if raw := get("email_date"); raw != "" {
		for _, layout := range []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"} {
			if t, err := time.Parse(layout, raw); err == nil {
				emailDate = t
				break
			}
		}
	}

	return &models.ReplyRecord{
		MessageID:    "csv:" + uuid.NewString(),
		Sender:       sender,
		Contact:      get("contact"),
		Subject:      subject,
		EmailDate:    emailDate,
		OriginalBody: body,
		Status:       ClassifySender(sender),
	}, true
}
