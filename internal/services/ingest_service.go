package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Rao-Faizan/my-gamil-automation/internal/database/models"
	"github.com/Rao-Faizan/my-gamil-automation/internal/mailapi"
	"github.com/Rao-Faizan/my-gamil-automation/internal/sanitize"
	"go.uber.org/zap"
)

var (
	// ErrDecodeFailed indicates a message body could not be decoded
	ErrDecodeFailed = errors.New("message decode failed")
)

// noReplyPatterns are the automated-sender substrings. A sender matching any
// of them never gets a generated reply.
var noReplyPatterns = []string{
	"noreply@",
	"no-reply@",
	"donotreply@",
	"do-not-reply@",
	"mailer-daemon@",
	"postmaster@",
	"notifications@",
	"bounce",
}

// IngestService pulls messages from the mail provider and turns them into
// reply records
type IngestService struct {
	store      *ReplyStore
	provider   mailapi.Provider
	logService *LogService
	logger     *zap.Logger
}

// NewIngestService creates a new IngestService instance
func NewIngestService(store *ReplyStore, provider mailapi.Provider, logService *LogService, logger *zap.Logger) *IngestService {
	return &IngestService{
		store:      store,
		provider:   provider,
		logService: logService,
		logger:     logger,
	}
}

// ClassifySender returns no-reply for automated sender addresses, unread
// otherwise
func ClassifySender(sender string) models.Status {
	lowered := strings.ToLower(sender)
	for _, pattern := range noReplyPatterns {
		if strings.Contains(lowered, pattern) {
			return models.StatusNoReply
		}
	}
	return models.StatusUnread
}

// IngestResult summarizes one ingestion batch
type IngestResult struct {
	Inserted int `json:"inserted"`
	Skipped  int `json:"skipped"`
	Failed   int `json:"failed"`
}

// FetchNew queries the provider inbox, skips messages already stored, and
// inserts the rest. A failure on one message is logged and skipped; it never
// aborts the batch.
func (s *IngestService) FetchNew(maxResults int) (*IngestResult, error) {
	refs, err := s.provider.ListMessages("in:inbox", maxResults)
	if err != nil {
		s.logService.LogIngestBatch(0, 0, 0, err)
		return nil, err
	}

	result := &IngestResult{}
	if len(refs) == 0 {
		s.logService.LogIngestBatch(0, 0, 0, nil)
		return result, nil
	}

	ids := make([]string, 0, len(refs))
	for _, ref := range refs {
		ids = append(ids, ref.ID)
	}
	existing, err := s.store.ExistingMessageIDs(ids)
	if err != nil {
		return nil, err
	}

	for _, ref := range refs {
		if existing[ref.ID] {
			result.Skipped++
			continue
		}

		record, err := s.buildRecord(ref.ID)
		if err != nil {
			result.Failed++
			s.logger.Warn("skipping message",
				zap.String("message_id", ref.ID),
				zap.Error(err))
			s.logService.LogWarn(models.LogModuleIngest, "fetch", "Message skipped", map[string]string{
				"message_id": ref.ID,
				"error":      err.Error(),
			})
			continue
		}

		inserted, err := s.store.InsertIfNew(record)
		if err != nil {
			result.Failed++
			s.logger.Error("failed to store record",
				zap.String("message_id", ref.ID),
				zap.Error(err))
			continue
		}
		if inserted {
			result.Inserted++
		} else {
			result.Skipped++
		}
	}

	s.logger.Info("ingestion batch completed",
		zap.Int("inserted", result.Inserted),
		zap.Int("skipped", result.Skipped),
		zap.Int("failed", result.Failed))
	s.logService.LogIngestBatch(result.Inserted, result.Skipped, result.Failed, nil)

	return result, nil
}

// buildRecord fetches one message and converts it into a reply record
func (s *IngestService) buildRecord(messageID string) (*models.ReplyRecord, error) {
	msg, err := s.provider.GetMessage(messageID)
	if err != nil {
		return nil, err
	}

	sender := msg.HeaderValue("From")
	if sender == "" {
		return nil, fmt.Errorf("%w: message %s has no From header", ErrDecodeFailed, messageID)
	}

	body, isHTML, err := mailapi.ExtractBody(&msg.Payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecodeFailed, err)
	}
	if isHTML {
		body = sanitize.HTML(body)
	} else {
		body = strings.TrimSpace(body)
	}

	return &models.ReplyRecord{
		MessageID:    messageID,
		Sender:       sender,
		Contact:      msg.HeaderValue("Reply-To"),
		Subject:      msg.HeaderValue("Subject"),
		EmailDate:    msg.Date(),
		OriginalBody: body,
		Status:       ClassifySender(sender),
	}, nil
}
