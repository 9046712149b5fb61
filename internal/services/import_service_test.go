package services

import (
	"strings"
	"testing"

	"github.com/Rao-Faizan/my-gamil-automation/internal/database/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestImport(t *testing.T) (*ImportService, *ReplyStore, func()) {
	db, cleanup := setupTestDB(t)
	store := NewReplyStore(db)
	svc := NewImportService(store, NewLogService(db), zap.NewNop())
	return svc, store, cleanup
}

func TestImport_ValidCSV(t *testing.T) {
	svc, store, cleanup := newTestImport(t)
	defer cleanup()

	csvData := `sender,subject,original_body,email_date
alice@example.com,Invoice question,Where is my invoice?,2024-03-01
noreply@shop.com,Order shipped,Your order is on its way,2024-03-02
`
	result, err := svc.ImportCSV(strings.NewReader(csvData))
	require.NoError(t, err)
	assert.Equal(t, 2, result.Imported)
	assert.Equal(t, 0, result.Skipped)

	records, err := store.Query("")
	require.NoError(t, err)
	require.Len(t, records, 2)

	byStatus := make(map[models.Status]int)
	for _, r := range records {
		byStatus[r.Status]++
		assert.True(t, strings.HasPrefix(r.MessageID, "csv:"), "imported rows get synthetic message IDs")
	}
	assert.Equal(t, 1, byStatus[models.StatusUnread])
	assert.Equal(t, 1, byStatus[models.StatusNoReply])
}

func TestImport_RowMissingRequiredValueIsSkipped(t *testing.T) {
	svc, store, cleanup := newTestImport(t)
	defer cleanup()

	csvData := `sender,subject,original_body
alice@example.com,Hello,First body
bob@example.com,,Missing subject here
,No sender,Another body
carol@example.com,Fine,Third body
`
	result, err := svc.ImportCSV(strings.NewReader(csvData))
	require.NoError(t, err)
	assert.Equal(t, 2, result.Imported)
	assert.Equal(t, 2, result.Skipped)

	records, err := store.Query("")
	require.NoError(t, err)
	assert.Len(t, records, 2)
}

func TestImport_MissingRequiredColumnRejectsFile(t *testing.T) {
	svc, _, cleanup := newTestImport(t)
	defer cleanup()

	csvData := `sender,subject
alice@example.com,Hello
`
	_, err := svc.ImportCSV(strings.NewReader(csvData))
	assert.ErrorIs(t, err, ErrValidation)
}

func TestImport_HeaderIsCaseInsensitive(t *testing.T) {
	svc, _, cleanup := newTestImport(t)
	defer cleanup()

	csvData := `Sender,SUBJECT,Original_Body
alice@example.com,Hello,Body text
`
	result, err := svc.ImportCSV(strings.NewReader(csvData))
	require.NoError(t, err)
	assert.Equal(t, 1, result.Imported)
}

func TestImport_OptionalContactColumn(t *testing.T) {
	svc, store, cleanup := newTestImport(t)
	defer cleanup()

	csvData := `sender,contact,subject,original_body
bot@example.com,human@example.com,Digest,Weekly digest body
`
	result, err := svc.ImportCSV(strings.NewReader(csvData))
	require.NoError(t, err)
	require.Equal(t, 1, result.Imported)

	records, err := store.Query("")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "human@example.com", records[0].Contact)
}

func TestImport_EmptyFile(t *testing.T) {
	svc, _, cleanup := newTestImport(t)
	defer cleanup()

	_, err := svc.ImportCSV(strings.NewReader(""))
	assert.ErrorIs(t, err, ErrValidation)
}
