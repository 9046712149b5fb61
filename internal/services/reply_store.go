package services

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Rao-Faizan/my-gamil-automation/internal/database/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	// ErrRecordNotFound indicates no record matches the message ID
	ErrRecordNotFound = errors.New("record not found")
	// ErrInvalidTransition indicates a status change the lifecycle forbids
	ErrInvalidTransition = errors.New("invalid status transition")
	// ErrInvalidRecord indicates a record missing required fields
	ErrInvalidRecord = errors.New("invalid record")
)

// ReplyStore persists reply records and enforces the lifecycle rules on every
// write
type ReplyStore struct {
	db *gorm.DB
	mu sync.Mutex
}

// NewReplyStore creates a new ReplyStore instance
func NewReplyStore(db *gorm.DB) *ReplyStore {
	return &ReplyStore{db: db}
}

// InsertIfNew inserts the record unless one with the same message ID already
// exists. Returns true when a row was inserted. Re-inserting an existing
// message ID is a no-op, never an error.
func (s *ReplyStore) InsertIfNew(record *models.ReplyRecord) (bool, error) {
	if record.MessageID == "" || record.Sender == "" {
		return false, fmt.Errorf("%w: message_id and sender are required", ErrInvalidRecord)
	}
	if record.Status == "" {
		record.Status = models.StatusUnread
	}
	if !record.Status.IsValid() {
		return false, fmt.Errorf("%w: unknown status %q", ErrInvalidRecord, record.Status)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	result := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "message_id"}},
		DoNothing: true,
	}).Create(record)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// Get returns the record with the given message ID
func (s *ReplyStore) Get(messageID string) (*models.ReplyRecord, error) {
	var record models.ReplyRecord
	err := s.db.Where("message_id = ?", messageID).First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrRecordNotFound, messageID)
		}
		return nil, err
	}
	return &record, nil
}

// UpdateReply sets the reply body, reply date and draft ID together. The three
// fields always change as a unit so a record never carries a reply without its
// date.
func (s *ReplyStore) UpdateReply(messageID, reply string, replyDate time.Time, draftID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	result := s.db.Model(&models.ReplyRecord{}).
		Where("message_id = ?", messageID).
		Updates(map[string]interface{}{
			"reply":      reply,
			"reply_date": replyDate,
			"draft_id":   draftID,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: %s", ErrRecordNotFound, messageID)
	}
	return nil
}

// UpdateStatus moves the record to the given status, enforcing the forward-only
// lifecycle. Setting the current status again is a no-op. replyDate, when
// non-nil, is written with the status.
func (s *ReplyStore) UpdateStatus(messageID string, status models.Status, replyDate *time.Time) error {
	if !status.IsValid() {
		return fmt.Errorf("%w: unknown status %q", ErrInvalidRecord, status)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	record, err := s.getLocked(messageID)
	if err != nil {
		return err
	}

	if record.Status == status {
		return nil
	}
	if !record.Status.CanTransitionTo(status) {
		return fmt.Errorf("%w: %s -> %s for %s",
			ErrInvalidTransition, record.Status, status, messageID)
	}

	updates := map[string]interface{}{"status": status}
	if replyDate != nil {
		updates["reply_date"] = *replyDate
	}

	return s.db.Model(&models.ReplyRecord{}).
		Where("message_id = ?", messageID).
		Updates(updates).Error
}

// getLocked fetches a record while the store mutex is held
func (s *ReplyStore) getLocked(messageID string) (*models.ReplyRecord, error) {
	var record models.ReplyRecord
	err := s.db.Where("message_id = ?", messageID).First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrRecordNotFound, messageID)
		}
		return nil, err
	}
	return &record, nil
}

// Query returns records filtered by status, newest email first. An empty
// status returns everything.
func (s *ReplyStore) Query(status models.Status) ([]models.ReplyRecord, error) {
	query := s.db.Order("email_date DESC")
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var records []models.ReplyRecord
	if err := query.Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

// CountByStatus returns record counts per status
func (s *ReplyStore) CountByStatus() (map[string]int64, error) {
	type statusCount struct {
		Status string
		Count  int64
	}

	var rows []statusCount
	err := s.db.Model(&models.ReplyRecord{}).
		Select("status, COUNT(*) as count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}

// ExistingMessageIDs returns the subset of ids already stored, as a set.
// Lookups run in batches to keep the IN clause bounded.
func (s *ReplyStore) ExistingMessageIDs(ids []string) (map[string]bool, error) {
	existing := make(map[string]bool, len(ids))
	const batchSize = 500

	for start := 0; start < len(ids); start += batchSize {
		end := start + batchSize
		if end > len(ids) {
			end = len(ids)
		}

		var found []string
		err := s.db.Model(&models.ReplyRecord{}).
			Where("message_id IN ?", ids[start:end]).
			Pluck("message_id", &found).Error
		if err != nil {
			return nil, err
		}
		for _, id := range found {
			existing[id] = true
		}
	}
	return existing, nil
}

// DeleteByMessageID removes a single record, returning the number of rows
// removed
func (s *ReplyStore) DeleteByMessageID(messageID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	result := s.db.Where("message_id = ?", messageID).Delete(&models.ReplyRecord{})
	return result.RowsAffected, result.Error
}

// DeleteByStatus removes every record in the given status
func (s *ReplyStore) DeleteByStatus(status models.Status) (int64, error) {
	if !status.IsValid() {
		return 0, fmt.Errorf("%w: unknown status %q", ErrInvalidRecord, status)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	result := s.db.Where("status = ?", status).Delete(&models.ReplyRecord{})
	return result.RowsAffected, result.Error
}

// DeleteBulk removes the selected records
func (s *ReplyStore) DeleteBulk(messageIDs []string) (int64, error) {
	if len(messageIDs) == 0 {
		return 0, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	result := s.db.Where("message_id IN ?", messageIDs).Delete(&models.ReplyRecord{})
	return result.RowsAffected, result.Error
}

// DeleteAll removes every record
func (s *ReplyStore) DeleteAll() (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	result := s.db.Where("1 = 1").Delete(&models.ReplyRecord{})
	return result.RowsAffected, result.Error
}
