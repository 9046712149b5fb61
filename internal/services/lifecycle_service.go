package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/Rao-Faizan/my-gamil-automation/internal/database/models"
	"github.com/Rao-Faizan/my-gamil-automation/internal/genai"
	"github.com/Rao-Faizan/my-gamil-automation/internal/mailapi"
	"go.uber.org/zap"
)

var (
	// ErrValidation indicates a request rejected before any side effect
	ErrValidation = errors.New("validation failed")
	// ErrProviderCall indicates a mail-provider call failed
	ErrProviderCall = errors.New("mail provider call failed")
)

const (
	// BulkSendMin is the smallest accepted bulk selection
	BulkSendMin = 2
	// BulkSendMax is the largest accepted bulk selection
	BulkSendMax = 400
	// DefaultSendDelay is the fixed pause before each send in bulk operations
	DefaultSendDelay = 10 * time.Second
)

// LifecycleService drives reply records through unread -> draft -> sent
type LifecycleService struct {
	store      *ReplyStore
	provider   mailapi.Provider
	ai         *genai.Client
	logService *LogService
	logger     *zap.Logger
	sendDelay  time.Duration
}

// NewLifecycleService creates a new LifecycleService instance
func NewLifecycleService(store *ReplyStore, provider mailapi.Provider, ai *genai.Client, logService *LogService, logger *zap.Logger) *LifecycleService {
	return &LifecycleService{
		store:      store,
		provider:   provider,
		ai:         ai,
		logService: logService,
		logger:     logger,
		sendDelay:  DefaultSendDelay,
	}
}

// SetSendDelay overrides the inter-send delay for bulk operations
func (s *LifecycleService) SetSendDelay(d time.Duration) {
	s.sendDelay = d
}

// replyAddress prefers the Reply-To contact over the envelope sender
func replyAddress(record *models.ReplyRecord) string {
	if record.Contact != "" {
		return record.Contact
	}
	return record.Sender
}

// GenerateReply generates an AI reply for a record, creates a provider draft
// and moves the record to draft. Terminal records are rejected.
func (s *LifecycleService) GenerateReply(messageID, customPrompt string) (*models.ReplyRecord, error) {
	record, err := s.store.Get(messageID)
	if err != nil {
		return nil, err
	}

	if record.Status.IsTerminal() {
		return nil, fmt.Errorf("%w: cannot generate reply for %s record %s",
			ErrInvalidTransition, record.Status, messageID)
	}

	reply := s.ai.GenerateReply(record.Subject, record.OriginalBody, customPrompt)

	// Regenerating replaces any previous draft; remove it best-effort
	if record.DraftID != "" {
		if err := s.provider.DeleteDraft(record.DraftID); err != nil && !errors.Is(err, mailapi.ErrNotFound) {
			s.logger.Warn("failed to delete stale draft",
				zap.String("message_id", messageID),
				zap.String("draft_id", record.DraftID),
				zap.Error(err))
		}
	}

	draftID, err := s.provider.CreateDraft(replyAddress(record), "Re: "+record.Subject, reply)
	if err != nil {
		s.logService.LogReplyGenerated(messageID, record.Sender, "", err)
		return nil, fmt.Errorf("%w: create draft: %v", ErrProviderCall, err)
	}

	now := time.Now().UTC()
	if err := s.store.UpdateReply(messageID, reply, now, draftID); err != nil {
		return nil, err
	}
	if err := s.store.UpdateStatus(messageID, models.StatusDraft, nil); err != nil {
		return nil, err
	}

	s.logService.LogReplyGenerated(messageID, record.Sender, draftID, nil)
	return s.store.Get(messageID)
}

// Send sends the reply for a single record, creating or reusing its draft,
// and marks the record sent.
func (s *LifecycleService) Send(messageID string) (*models.ReplyRecord, error) {
	record, err := s.store.Get(messageID)
	if err != nil {
		return nil, err
	}

	if !record.Status.CanTransitionTo(models.StatusSent) {
		return nil, fmt.Errorf("%w: cannot send %s record %s",
			ErrInvalidTransition, record.Status, messageID)
	}

	if err := s.sendOne(record, "", false, ""); err != nil {
		s.logService.LogReplySent(messageID, record.Sender, err)
		return nil, err
	}

	s.logService.LogReplySent(messageID, record.Sender, nil)
	return s.store.Get(messageID)
}

// BulkFailure describes one failed record of a bulk send
type BulkFailure struct {
	MessageID string `json:"message_id"`
	Sender    string `json:"sender"`
	Error     string `json:"error"`
}

// BulkSendResult reports partial-failure semantics: already-sent records stay
// sent even when later records fail.
type BulkSendResult struct {
	Sent   int           `json:"sent"`
	Failed []BulkFailure `json:"failed"`
}

// BulkSend sends replies for a bounded selection of records with a fixed
// inter-send delay. Selection size is validated before any provider call.
// Per-record failures are collected; they never abort the remaining sends.
func (s *LifecycleService) BulkSend(messageIDs []string, sharedBody string, useAI bool, customPrompt string) (*BulkSendResult, error) {
	if len(messageIDs) < BulkSendMin || len(messageIDs) > BulkSendMax {
		return nil, fmt.Errorf("%w: bulk selection must contain %d to %d messages, got %d",
			ErrValidation, BulkSendMin, BulkSendMax, len(messageIDs))
	}
	if sharedBody == "" && !useAI {
		return nil, fmt.Errorf("%w: either a shared body or AI generation is required", ErrValidation)
	}

	result := &BulkSendResult{}
	for i, messageID := range messageIDs {
		record, err := s.store.Get(messageID)
		if err != nil {
			result.Failed = append(result.Failed, BulkFailure{
				MessageID: messageID,
				Error:     err.Error(),
			})
			continue
		}

		if !record.Status.CanTransitionTo(models.StatusSent) {
			result.Failed = append(result.Failed, BulkFailure{
				MessageID: messageID,
				Sender:    record.Sender,
				Error:     fmt.Sprintf("cannot send %s record", record.Status),
			})
			continue
		}

		// Fixed pause before each send after the first, to respect
		// provider rate limits
		if i > 0 && s.sendDelay > 0 {
			time.Sleep(s.sendDelay)
		}

		if err := s.sendOne(record, sharedBody, useAI, customPrompt); err != nil {
			s.logger.Warn("bulk send item failed",
				zap.String("message_id", messageID),
				zap.Error(err))
			result.Failed = append(result.Failed, BulkFailure{
				MessageID: messageID,
				Sender:    record.Sender,
				Error:     err.Error(),
			})
			continue
		}
		result.Sent++
	}

	s.logService.LogBulkSend(result.Sent, len(result.Failed))
	return result, nil
}

// sendOne resolves a valid draft for the record, sends it and marks the
// record sent
func (s *LifecycleService) sendOne(record *models.ReplyRecord, sharedBody string, useAI bool, customPrompt string) error {
	draftID, reply, created, err := s.resolveDraft(record, sharedBody, useAI, customPrompt)
	if err != nil {
		return err
	}

	if created {
		now := time.Now().UTC()
		if err := s.store.UpdateReply(record.MessageID, reply, now, draftID); err != nil {
			return err
		}
	}

	if err := s.provider.SendDraft(draftID); err != nil {
		return fmt.Errorf("%w: send draft: %v", ErrProviderCall, err)
	}

	now := time.Now().UTC()
	return s.store.UpdateStatus(record.MessageID, models.StatusSent, &now)
}

// resolveDraft verifies the record's draft still exists at the provider and
// creates a fresh one when it is missing or stale. The reply body comes from,
// in order: the stored reply, the shared bulk body, or AI generation.
func (s *LifecycleService) resolveDraft(record *models.ReplyRecord, sharedBody string, useAI bool, customPrompt string) (draftID, reply string, created bool, err error) {
	if record.DraftID != "" {
		if s.verifyDraft(record.DraftID) {
			return record.DraftID, record.Reply, false, nil
		}
		s.logger.Info("stale draft, recreating",
			zap.String("message_id", record.MessageID),
			zap.String("draft_id", record.DraftID))
	}

	reply = record.Reply
	switch {
	case useAI:
		reply = s.ai.GenerateReply(record.Subject, record.OriginalBody, customPrompt)
	case sharedBody != "":
		reply = sharedBody
	case reply == "":
		reply = s.ai.GenerateReply(record.Subject, record.OriginalBody, "")
	}

	draftID, err = s.provider.CreateDraft(replyAddress(record), "Re: "+record.Subject, reply)
	if err != nil {
		return "", "", false, fmt.Errorf("%w: create draft: %v", ErrProviderCall, err)
	}
	return draftID, reply, true, nil
}

// verifyDraft reports whether the draft still exists at the provider
func (s *LifecycleService) verifyDraft(draftID string) bool {
	draft, err := s.provider.GetDraft(draftID)
	return err == nil && draft != nil && draft.ID != ""
}
