package services

import (
	"testing"

	"github.com/Rao-Faizan/my-gamil-automation/internal/database/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogService_LevelFiltering(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	svc := NewLogServiceWithLevel(db, "WARN")

	require.NoError(t, svc.LogDebug(models.LogModuleIngest, "fetch", "debug msg", nil))
	require.NoError(t, svc.LogInfo(models.LogModuleIngest, "fetch", "info msg", nil))
	require.NoError(t, svc.LogWarn(models.LogModuleIngest, "fetch", "warn msg", nil))
	require.NoError(t, svc.LogError(models.LogModuleIngest, "fetch", "error msg", nil))

	logs, err := svc.ListLogs(10)
	require.NoError(t, err)
	assert.Len(t, logs, 2, "below-threshold entries are dropped")
}

func TestLogService_DomainHelpers(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	svc := NewLogService(db)

	require.NoError(t, svc.LogIngestBatch(3, 2, 1, nil))
	require.NoError(t, svc.LogReplyGenerated("m1", "alice@example.com", "draft-1", nil))
	require.NoError(t, svc.LogReplySent("m1", "alice@example.com", nil))
	require.NoError(t, svc.LogBulkSend(5, 2))
	require.NoError(t, svc.LogImport(10, 3))
	require.NoError(t, svc.LogDelete("status:sent", 4))

	logs, err := svc.ListLogs(20)
	require.NoError(t, err)
	assert.Len(t, logs, 6)

	modules := make(map[string]bool)
	for _, l := range logs {
		modules[l.Module] = true
	}
	assert.True(t, modules[string(models.LogModuleIngest)])
	assert.True(t, modules[string(models.LogModuleReply)])
	assert.True(t, modules[string(models.LogModuleImport)])
}

func TestLogService_ListLimitBounds(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	svc := NewLogService(db)
	for i := 0; i < 5; i++ {
		require.NoError(t, svc.LogInfo(models.LogModuleAPI, "request", "entry", nil))
	}

	logs, err := svc.ListLogs(0)
	require.NoError(t, err)
	assert.Len(t, logs, 5, "non-positive limit falls back to the default")

	logs, err = svc.ListLogs(2)
	require.NoError(t, err)
	assert.Len(t, logs, 2)
}
