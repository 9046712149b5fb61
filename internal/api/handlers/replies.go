package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/Rao-Faizan/my-gamil-automation/internal/database/models"
	"github.com/Rao-Faizan/my-gamil-automation/internal/services"
	"github.com/gin-gonic/gin"
)

// ReplyHandler handles reply-record requests
type ReplyHandler struct {
	store      *services.ReplyStore
	lifecycle  *services.LifecycleService
	ingest     *services.IngestService
	logService *services.LogService
}

// NewReplyHandler creates a new ReplyHandler instance
func NewReplyHandler(store *services.ReplyStore, lifecycle *services.LifecycleService, ingest *services.IngestService, logService *services.LogService) *ReplyHandler {
	return &ReplyHandler{
		store:      store,
		lifecycle:  lifecycle,
		ingest:     ingest,
		logService: logService,
	}
}

// ReplyResponse represents one record in API responses
type ReplyResponse struct {
	ID           uint   `json:"id"`
	MessageID    string `json:"message_id"`
	Sender       string `json:"sender"`
	Contact      string `json:"contact,omitempty"`
	Subject      string `json:"subject"`
	EmailDate    int64  `json:"email_date"`
	OriginalBody string `json:"original_body"`
	Reply        string `json:"reply,omitempty"`
	ReplyDate    int64  `json:"reply_date,omitempty"`
	Status       string `json:"status"`
	DraftID      string `json:"draft_id,omitempty"`
}

// toReplyResponse converts a ReplyRecord model to ReplyResponse
func toReplyResponse(record *models.ReplyRecord) ReplyResponse {
	response := ReplyResponse{
		ID:           record.ID,
		MessageID:    record.MessageID,
		Sender:       record.Sender,
		Contact:      record.Contact,
		Subject:      record.Subject,
		EmailDate:    record.EmailDate.Unix(),
		OriginalBody: record.OriginalBody,
		Reply:        record.Reply,
		Status:       string(record.Status),
		DraftID:      record.DraftID,
	}
	if record.ReplyDate != nil {
		response.ReplyDate = record.ReplyDate.Unix()
	}
	return response
}

// respondServiceError maps service errors onto the response envelope while
// preserving the specific failure message
func respondServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrRecordNotFound):
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "NOT_FOUND",
				"message": err.Error(),
			},
		})
	case errors.Is(err, services.ErrInvalidTransition):
		c.JSON(http.StatusConflict, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_TRANSITION",
				"message": err.Error(),
			},
		})
	case errors.Is(err, services.ErrValidation), errors.Is(err, services.ErrInvalidRecord):
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "VALIDATION_ERROR",
				"message": err.Error(),
			},
		})
	default:
		c.JSON(http.StatusBadGateway, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "PROVIDER_ERROR",
				"message": err.Error(),
			},
		})
	}
}

// ListReplies returns records partitioned by status
// GET /api/replies?status=unread
func (h *ReplyHandler) ListReplies(c *gin.Context) {
	status := models.Status(c.Query("status"))
	if status != "" && !status.IsValid() {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "VALIDATION_ERROR",
				"message": "Unknown status filter: " + string(status),
			},
		})
		return
	}

	records, err := h.store.Query(status)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	counts, err := h.store.CountByStatus()
	if err != nil {
		respondServiceError(c, err)
		return
	}

	replies := make([]ReplyResponse, 0, len(records))
	for i := range records {
		replies = append(replies, toReplyResponse(&records[i]))
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"replies": replies,
			"counts":  counts,
			"total":   len(replies),
		},
	})
}

// GetReply returns a single record
// GET /api/replies/:message_id
func (h *ReplyHandler) GetReply(c *gin.Context) {
	record, err := h.store.Get(c.Param("message_id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    toReplyResponse(record),
	})
}

// GenerateRequest represents the generate-reply request body
type GenerateRequest struct {
	CustomPrompt string `json:"custom_prompt"`
}

// GenerateReply drafts an AI reply for a record
// POST /api/replies/:message_id/generate
func (h *ReplyHandler) GenerateReply(c *gin.Context) {
	var req GenerateRequest
	// Body is optional
	_ = c.ShouldBindJSON(&req)

	record, err := h.lifecycle.GenerateReply(c.Param("message_id"), req.CustomPrompt)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    toReplyResponse(record),
	})
}

// SendReply sends the reply for a single record
// POST /api/replies/:message_id/send
func (h *ReplyHandler) SendReply(c *gin.Context) {
	record, err := h.lifecycle.Send(c.Param("message_id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    toReplyResponse(record),
	})
}

// BulkSendRequest represents the bulk-send request body
type BulkSendRequest struct {
	MessageIDs   []string `json:"message_ids" binding:"required"`
	Body         string   `json:"body"`
	UseAI        bool     `json:"use_ai"`
	CustomPrompt string   `json:"custom_prompt"`
}

// BulkSend sends a bounded batch of replies
// POST /api/replies/bulk-send
func (h *ReplyHandler) BulkSend(c *gin.Context) {
	var req BulkSendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "VALIDATION_ERROR",
				"message": "message_ids is required",
			},
		})
		return
	}

	result, err := h.lifecycle.BulkSend(req.MessageIDs, req.Body, req.UseAI, req.CustomPrompt)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	failedSenders := make([]string, 0, len(result.Failed))
	for _, f := range result.Failed {
		failedSenders = append(failedSenders, f.Sender)
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"sent":           result.Sent,
			"failed":         result.Failed,
			"failed_senders": failedSenders,
		},
	})
}

// IngestRequest represents a manual ingestion trigger
type IngestRequest struct {
	MaxResults int `json:"max_results"`
}

// Ingest runs one ingestion batch on demand
// POST /api/ingest
func (h *ReplyHandler) Ingest(c *gin.Context) {
	var req IngestRequest
	_ = c.ShouldBindJSON(&req)
	if req.MaxResults <= 0 {
		req.MaxResults = 10
	}

	result, err := h.ingest.FetchNew(req.MaxResults)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    result,
	})
}

// DeleteReply removes a single record
// DELETE /api/replies/:message_id
func (h *ReplyHandler) DeleteReply(c *gin.Context) {
	messageID := c.Param("message_id")
	count, err := h.store.DeleteByMessageID(messageID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	if count == 0 {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "NOT_FOUND",
				"message": "No record with message_id " + messageID,
			},
		})
		return
	}

	h.logService.LogDelete("single", count)
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    gin.H{"deleted": count},
	})
}

// DeleteReplies removes records by status category, or everything
// DELETE /api/replies?status=sent  |  DELETE /api/replies?all=true
func (h *ReplyHandler) DeleteReplies(c *gin.Context) {
	if all, _ := strconv.ParseBool(c.Query("all")); all {
		count, err := h.store.DeleteAll()
		if err != nil {
			respondServiceError(c, err)
			return
		}
		h.logService.LogDelete("all", count)
		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"data":    gin.H{"deleted": count},
		})
		return
	}

	status := models.Status(c.Query("status"))
	if status == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "VALIDATION_ERROR",
				"message": "Either status or all=true is required",
			},
		})
		return
	}

	count, err := h.store.DeleteByStatus(status)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	h.logService.LogDelete("status:"+string(status), count)
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    gin.H{"deleted": count},
	})
}

// BulkDeleteRequest represents the bulk-delete request body
type BulkDeleteRequest struct {
	MessageIDs []string `json:"message_ids" binding:"required"`
}

// BulkDelete removes the selected records
// POST /api/replies/bulk-delete
func (h *ReplyHandler) BulkDelete(c *gin.Context) {
	var req BulkDeleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "VALIDATION_ERROR",
				"message": "message_ids is required",
			},
		})
		return
	}

	count, err := h.store.DeleteBulk(req.MessageIDs)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	h.logService.LogDelete("bulk", count)
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    gin.H{"deleted": count},
	})
}

// ListLogs returns recent audit log entries
// GET /api/logs?limit=100
func (h *ReplyHandler) ListLogs(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
	logs, err := h.logService.ListLogs(limit)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    gin.H{"logs": logs},
	})
}
