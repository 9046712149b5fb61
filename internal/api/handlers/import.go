package handlers

import (
	"net/http"

	"github.com/Rao-Faizan/my-gamil-automation/internal/services"
	"github.com/gin-gonic/gin"
)

// maxImportSize bounds CSV uploads to 8 MiB
const maxImportSize = 8 << 20

// ImportHandler handles CSV bulk imports
type ImportHandler struct {
	importService *services.ImportService
}

// NewImportHandler creates a new ImportHandler instance
func NewImportHandler(importService *services.ImportService) *ImportHandler {
	return &ImportHandler{importService: importService}
}

// ImportCSV accepts a multipart CSV upload of reply records
// POST /api/replies/import (field name: file)
func (h *ImportHandler) ImportCSV(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "VALIDATION_ERROR",
				"message": "A CSV file upload named 'file' is required",
			},
		})
		return
	}
	if fileHeader.Size > maxImportSize {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "VALIDATION_ERROR",
				"message": "CSV upload exceeds the 8 MiB limit",
			},
		})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "VALIDATION_ERROR",
				"message": "Cannot read uploaded file: " + err.Error(),
			},
		})
		return
	}
	defer file.Close()

	result, err := h.importService.ImportCSV(file)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    result,
	})
}
