package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/letter5700/backend/internal/services"
)

type RecordHandler struct {
	recordService services.RecordService
}

func NewRecordHandler(recordService services.RecordService) *RecordHandler {
	return &RecordHandler{recordService: recordService}
}

type createRecordRequest struct {
	Username string `json:"username" binding:"required"`
	Content  string `json:"content" binding:"required"`
	FCMToken string `json:"fcm_token"`
}

// Create accepts the journal entry and returns as soon as it is stored.
// The emotion and the advice letter are filled in asynchronously; clients
// poll Get for them.
func (rh *RecordHandler) Create(c *gin.Context) {
	var req createRecordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	record, err := rh.recordService.Create(c.Request.Context(), req.Username, req.Content, req.FCMToken)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"record": record})
}

func (rh *RecordHandler) Get(c *gin.Context) {
	recordID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid record id"})
		return
	}

	record, err := rh.recordService.Get(c.Request.Context(), recordID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if record == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "record not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"record": record})
}

func (rh *RecordHandler) List(c *gin.Context) {
	username := c.Query("username")
	if username == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username query parameter is required"})
		return
	}

	records, err := rh.recordService.ListByUsername(c.Request.Context(), username)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"records": records})
}

func (rh *RecordHandler) DeleteAll(c *gin.Context) {
	username := c.Query("username")
	if username == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username query parameter is required"})
		return
	}

	if err := rh.recordService.DeleteAllByUsername(c.Request.Context(), username); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}
