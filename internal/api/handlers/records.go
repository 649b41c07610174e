package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/your-org/presence/internal/models"
	"github.com/your-org/presence/pkg/dto"
)

// RecordReader reads persisted participation records.
type RecordReader interface {
	Get(ctx context.Context, email, date string) (*models.ParticipationRecord, error)
	List(ctx context.Context, email string) ([]models.ParticipationRecord, error)
}

type RecordHandler struct {
	records RecordReader
}

func NewRecordHandler(records RecordReader) *RecordHandler {
	return &RecordHandler{records: records}
}

// List handles GET /v1/records?email=...
func (h *RecordHandler) List(c *gin.Context) {
	records, err := h.records.List(c.Request.Context(), c.Query("email"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "record_read_failed"})
		return
	}

	resp := make([]dto.RecordResponse, 0, len(records))
	for _, rec := range records {
		resp = append(resp, toRecordResponse(rec))
	}

	c.JSON(http.StatusOK, dto.RecordListResponse{Records: resp, Total: len(resp)})
}

// Get handles GET /v1/records/:email/:date
func (h *RecordHandler) Get(c *gin.Context) {
	email := c.Param("email")
	date := c.Param("date")

	rec, err := h.records.Get(c.Request.Context(), email, date)
	if err != nil {
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "record_read_failed"})
		return
	}
	if rec == nil {
		c.JSON(http.StatusNotFound, dto.ErrorResponse{Error: "record_not_found"})
		return
	}

	c.JSON(http.StatusOK, toRecordResponse(*rec))
}

func toRecordResponse(rec models.ParticipationRecord) dto.RecordResponse {
	return dto.RecordResponse{
		Email:        rec.Email,
		Date:         rec.Date,
		Name:         rec.Name,
		Participated: rec.Participated,
		CreatedAt:    rec.CreatedAt.Format(time.RFC3339),
		UpdatedAt:    rec.UpdatedAt.Format(time.RFC3339),
	}
}
