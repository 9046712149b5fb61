package services

import (
	"encoding/json"
	"strings"

	"github.com/Rao-Faizan/my-gamil-automation/internal/database/models"
	"gorm.io/gorm"
)

// LogService persists an audit trail of pipeline operations
type LogService struct {
	db       *gorm.DB
	logLevel models.LogLevel
}

// NewLogService creates a new LogService instance
func NewLogService(db *gorm.DB) *LogService {
	return &LogService{
		db:       db,
		logLevel: models.LogLevelInfo,
	}
}

// NewLogServiceWithLevel creates a new LogService instance with specified log level
func NewLogServiceWithLevel(db *gorm.DB, level string) *LogService {
	return &LogService{
		db:       db,
		logLevel: parseLogLevel(level),
	}
}

// parseLogLevel converts a string to LogLevel
func parseLogLevel(level string) models.LogLevel {
	switch strings.ToUpper(level) {
	case "DEBUG":
		return models.LogLevelDebug
	case "INFO":
		return models.LogLevelInfo
	case "WARN", "WARNING":
		return models.LogLevelWarn
	case "ERROR":
		return models.LogLevelError
	default:
		return models.LogLevelInfo
	}
}

// shouldLog checks if a log entry should be recorded based on log level
func (s *LogService) shouldLog(level models.LogLevel) bool {
	levelPriority := map[models.LogLevel]int{
		models.LogLevelDebug: 0,
		models.LogLevelInfo:  1,
		models.LogLevelWarn:  2,
		models.LogLevelError: 3,
	}
	return levelPriority[level] >= levelPriority[s.logLevel]
}

// LogEntry represents a log entry to be created
type LogEntry struct {
	Level   models.LogLevel
	Module  models.LogModule
	Action  string
	Message string
	Details interface{} // Will be serialized to JSON
}

// Log creates a new log entry
func (s *LogService) Log(entry LogEntry) error {
	if !s.shouldLog(entry.Level) {
		return nil
	}

	var detailsJSON string
	if entry.Details != nil {
		bytes, err := json.Marshal(entry.Details)
		if err != nil {
			detailsJSON = "{}"
		} else {
			detailsJSON = string(bytes)
		}
	}

	log := &models.Log{
		Level:   string(entry.Level),
		Module:  string(entry.Module),
		Action:  entry.Action,
		Message: entry.Message,
		Details: detailsJSON,
	}

	return s.db.Create(log).Error
}

// LogInfo creates an INFO level log entry
func (s *LogService) LogInfo(module models.LogModule, action, message string, details interface{}) error {
	return s.Log(LogEntry{
		Level:   models.LogLevelInfo,
		Module:  module,
		Action:  action,
		Message: message,
		Details: details,
	})
}

// LogWarn creates a WARN level log entry
func (s *LogService) LogWarn(module models.LogModule, action, message string, details interface{}) error {
	return s.Log(LogEntry{
		Level:   models.LogLevelWarn,
		Module:  module,
		Action:  action,
		Message: message,
		Details: details,
	})
}

// LogError creates an ERROR level log entry
func (s *LogService) LogError(module models.LogModule, action, message string, details interface{}) error {
	return s.Log(LogEntry{
		Level:   models.LogLevelError,
		Module:  module,
		Action:  action,
		Message: message,
		Details: details,
	})
}

// LogDebug creates a DEBUG level log entry
func (s *LogService) LogDebug(module models.LogModule, action, message string, details interface{}) error {
	return s.Log(LogEntry{
		Level:   models.LogLevelDebug,
		Module:  module,
		Action:  action,
		Message: message,
		Details: details,
	})
}

// RecordOperationDetails carries the identifying keys of a record operation
type RecordOperationDetails struct {
	MessageID string `json:"message_id,omitempty"`
	Sender    string `json:"sender,omitempty"`
	Subject   string `json:"subject,omitempty"`
	Status    string `json:"status,omitempty"`
	DraftID   string `json:"draft_id,omitempty"`
	ErrorMsg  string `json:"error_msg,omitempty"`
	Count     int    `json:"count,omitempty"`
}

// LogIngestBatch logs the outcome of an ingestion batch
func (s *LogService) LogIngestBatch(inserted, skipped, failed int, err error) error {
	level := models.LogLevelInfo
	message := "Ingestion batch completed"
	details := map[string]interface{}{
		"inserted": inserted,
		"skipped":  skipped,
		"failed":   failed,
	}
	if err != nil {
		level = models.LogLevelError
		message = "Ingestion batch failed"
		details["error"] = err.Error()
	}

	return s.Log(LogEntry{
		Level:   level,
		Module:  models.LogModuleIngest,
		Action:  "fetch",
		Message: message,
		Details: details,
	})
}

// LogReplyGenerated logs a generated reply and its draft
func (s *LogService) LogReplyGenerated(messageID, sender, draftID string, err error) error {
	details := RecordOperationDetails{
		MessageID: messageID,
		Sender:    sender,
		DraftID:   draftID,
	}

	level := models.LogLevelInfo
	message := "Reply drafted"
	if err != nil {
		level = models.LogLevelError
		message = "Reply generation failed"
		details.ErrorMsg = err.Error()
	}

	return s.Log(LogEntry{
		Level:   level,
		Module:  models.LogModuleReply,
		Action:  "generate",
		Message: message,
		Details: details,
	})
}

// LogReplySent logs a send attempt
func (s *LogService) LogReplySent(messageID, sender string, err error) error {
	details := RecordOperationDetails{
		MessageID: messageID,
		Sender:    sender,
		Status:    "sent",
	}

	level := models.LogLevelInfo
	message := "Reply sent"
	if err != nil {
		level = models.LogLevelError
		message = "Reply send failed"
		details.Status = "failed"
		details.ErrorMsg = err.Error()
	}

	return s.Log(LogEntry{
		Level:   level,
		Module:  models.LogModuleReply,
		Action:  "send",
		Message: message,
		Details: details,
	})
}

// LogBulkSend logs the aggregate outcome of a bulk send
func (s *LogService) LogBulkSend(sent, failed int) error {
	level := models.LogLevelInfo
	if failed > 0 {
		level = models.LogLevelWarn
	}
	return s.Log(LogEntry{
		Level:   level,
		Module:  models.LogModuleReply,
		Action:  "bulk_send",
		Message: "Bulk send completed",
		Details: map[string]int{"sent": sent, "failed": failed},
	})
}

// LogDelete logs record deletions
func (s *LogService) LogDelete(scope string, count int64) error {
	return s.LogInfo(models.LogModuleReply, "delete", "Records deleted", map[string]interface{}{
		"scope": scope,
		"count": count,
	})
}

// LogImport logs the outcome of a CSV import
func (s *LogService) LogImport(imported, skipped int) error {
	return s.LogInfo(models.LogModuleImport, "csv", "CSV import completed", map[string]int{
		"imported": imported,
		"skipped":  skipped,
	})
}

// APIRequestDetails represents details for API request logs
type APIRequestDetails struct {
	Method     string `json:"method"`
	Path       string `json:"path"`
	StatusCode int    `json:"status_code"`
	Duration   int64  `json:"duration_ms"`
	ClientIP   string `json:"client_ip"`
}

// LogAPIRequest logs an API request
func (s *LogService) LogAPIRequest(method, path string, statusCode int, durationMs int64, clientIP string) error {
	level := models.LogLevelInfo
	if statusCode >= 400 && statusCode < 500 {
		level = models.LogLevelWarn
	} else if statusCode >= 500 {
		level = models.LogLevelError
	}

	return s.Log(LogEntry{
		Level:   level,
		Module:  models.LogModuleAPI,
		Action:  "request",
		Message: method + " " + path,
		Details: APIRequestDetails{
			Method:     method,
			Path:       path,
			StatusCode: statusCode,
			Duration:   durationMs,
			ClientIP:   clientIP,
		},
	})
}

// ListLogs returns recent log entries, newest first
func (s *LogService) ListLogs(limit int) ([]models.Log, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	var logs []models.Log
	if err := s.db.Order("created_at DESC").Limit(limit).Find(&logs).Error; err != nil {
		return nil, err
	}
	return logs, nil
}
