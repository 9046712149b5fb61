package services

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Rao-Faizan/my-gamil-automation/internal/database/models"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupTestDB creates a test database for store tests
func setupTestDB(t *testing.T) (*gorm.DB, func()) {
	tempDir, err := os.MkdirTemp("", "reply_store_test_*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}

	dbPath := filepath.Join(tempDir, "test.db")
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		os.RemoveAll(tempDir)
		t.Fatalf("Failed to open database: %v", err)
	}

	db.AutoMigrate(&models.ReplyRecord{}, &models.Log{})

	cleanup := func() {
		sqlDB, _ := db.DB()
		if sqlDB != nil {
			sqlDB.Close()
		}
		os.RemoveAll(tempDir)
	}

	return db, cleanup
}

// newTestRecord builds a valid record with the given message ID and status
func newTestRecord(messageID string, status models.Status) *models.ReplyRecord {
	return &models.ReplyRecord{
		MessageID:    messageID,
		Sender:       "someone@example.com",
		Subject:      "Question about the invoice",
		EmailDate:    time.Now().UTC(),
		OriginalBody: "Hi, could you resend the invoice?",
		Status:       status,
	}
}

// Inserting the same message ID any number of times must leave exactly one
// row, and repeats must report not-inserted without error.
func TestProperty_InsertIsIdempotentPerMessageID(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 20
	properties := gopter.NewProperties(parameters)

	db, cleanup := setupTestDB(t)
	defer cleanup()
	store := NewReplyStore(db)

	properties.Property("repeated_insert_keeps_one_row", prop.ForAll(
		func(suffix uint, repeats uint8) bool {
			messageID := fmt.Sprintf("msg-%d", suffix)
			attempts := int(repeats%5) + 2

			var insertedCount int
			for i := 0; i < attempts; i++ {
				inserted, err := store.InsertIfNew(newTestRecord(messageID, models.StatusUnread))
				if err != nil {
					return false
				}
				if inserted {
					insertedCount++
				}
			}

			// Later attempts may race with the first run of the same suffix,
			// so at most one insert over the whole lifetime
			var count int64
			db.Model(&models.ReplyRecord{}).Where("message_id = ?", messageID).Count(&count)
			return count == 1 && insertedCount <= 1
		},
		gen.UIntRange(1, 100000),
		gen.UInt8(),
	))

	properties.TestingRun(t)
}

// Status changes must follow the forward-only lifecycle: unread -> draft,
// unread -> sent, draft -> sent. Everything else is rejected and a rejected
// change leaves the stored record untouched.
func TestProperty_ForwardOnlyTransitions(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 30
	properties := gopter.NewProperties(parameters)

	db, cleanup := setupTestDB(t)
	defer cleanup()
	store := NewReplyStore(db)

	allStatuses := []models.Status{
		models.StatusUnread, models.StatusNoReply, models.StatusDraft, models.StatusSent,
	}

	var seq uint64

	properties.Property("transition_allowed_iff_lifecycle_permits", prop.ForAll(
		func(fromIdx, toIdx uint) bool {
			from := allStatuses[fromIdx%uint(len(allStatuses))]
			to := allStatuses[toIdx%uint(len(allStatuses))]

			seq++
			messageID := fmt.Sprintf("transition-%d", seq)
			if _, err := store.InsertIfNew(newTestRecord(messageID, from)); err != nil {
				return false
			}

			err := store.UpdateStatus(messageID, to, nil)

			record, getErr := store.Get(messageID)
			if getErr != nil {
				return false
			}

			if from == to {
				// Same-status update is a no-op, never an error
				return err == nil && record.Status == from
			}
			if from.CanTransitionTo(to) {
				return err == nil && record.Status == to
			}
			// Rejected: error surfaced and state unchanged
			return err != nil && record.Status == from
		},
		gen.UIntRange(0, 3),
		gen.UIntRange(0, 3),
	))

	properties.TestingRun(t)
}

// Saving a generated reply must set the body, the reply date and the draft ID
// in one step; a record never carries a reply without its date.
func TestProperty_ReplyAndDateSetTogether(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 20
	properties := gopter.NewProperties(parameters)

	db, cleanup := setupTestDB(t)
	defer cleanup()
	store := NewReplyStore(db)

	var seq uint64

	properties.Property("update_reply_sets_all_three_fields", prop.ForAll(
		func(reply string, draftSuffix uint) bool {
			if reply == "" {
				return true
			}

			seq++
			messageID := fmt.Sprintf("reply-%d", seq)
			if _, err := store.InsertIfNew(newTestRecord(messageID, models.StatusUnread)); err != nil {
				return false
			}

			replyDate := time.Now().UTC().Truncate(time.Second)
			draftID := fmt.Sprintf("draft-%d", draftSuffix)
			if err := store.UpdateReply(messageID, reply, replyDate, draftID); err != nil {
				return false
			}

			record, err := store.Get(messageID)
			if err != nil {
				return false
			}

			return record.Reply == reply &&
				record.ReplyDate != nil &&
				record.ReplyDate.Unix() == replyDate.Unix() &&
				record.DraftID == draftID
		},
		gen.AlphaString(),
		gen.UIntRange(1, 100000),
	))

	properties.TestingRun(t)
}

// Updating a missing record must fail with ErrRecordNotFound, not invent a row
func TestReplyStore_MissingRecord(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()
	store := NewReplyStore(db)

	if err := store.UpdateReply("ghost", "hello", time.Now(), "d1"); err == nil {
		t.Fatal("expected error updating reply on missing record")
	}
	if err := store.UpdateStatus("ghost", models.StatusDraft, nil); err == nil {
		t.Fatal("expected error updating status on missing record")
	}
	if _, err := store.Get("ghost"); err == nil {
		t.Fatal("expected error getting missing record")
	}
}

// ExistingMessageIDs must return exactly the stored subset
func TestReplyStore_ExistingMessageIDs(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()
	store := NewReplyStore(db)

	for i := 0; i < 5; i++ {
		if _, err := store.InsertIfNew(newTestRecord(fmt.Sprintf("stored-%d", i), models.StatusUnread)); err != nil {
			t.Fatalf("insert failed: %v", err)
		}
	}

	existing, err := store.ExistingMessageIDs([]string{"stored-0", "stored-3", "absent-1", "absent-2"})
	if err != nil {
		t.Fatalf("lookup failed: %v", err)
	}

	if len(existing) != 2 || !existing["stored-0"] || !existing["stored-3"] {
		t.Fatalf("unexpected existing set: %v", existing)
	}
}
