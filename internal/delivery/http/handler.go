package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ledgerlens/backend/internal/domain"
)

// Handler holds dependencies for HTTP handlers
type Handler struct {
	parser domain.InvoiceParser
}

// NewHandler creates a new HTTP handler
func NewHandler(parser domain.InvoiceParser) *Handler {
	return &Handler{parser: parser}
}

// parseRequest is the body of POST /api/v1/invoices/parse
type parseRequest struct {
	Text  string `json:"text" binding:"required"`
	Debug bool   `json:"debug"`
}

// parseFileRequest is the body of POST /api/v1/invoices/parse-file
type parseFileRequest struct {
	Handle string `json:"handle" binding:"required"`
	Debug  bool   `json:"debug"`
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "ledgerlens-backend",
		"version": "1.0.0",
	})
}

// ParseInvoice handles raw invoice text parse requests
func (h *Handler) ParseInvoice(c *gin.Context) {
	var req parseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "invalid request: text is required",
		})
		return
	}

	result, err := h.parser.ParseInvoice(c.Request.Context(), req.Text, domain.ParseOptions{Debug: req.Debug})
	if err != nil {
		h.renderParseError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// ParseFile handles parse requests addressed by document handle
func (h *Handler) ParseFile(c *gin.Context) {
	var req parseFileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "invalid request: handle is required",
		})
		return
	}

	result, err := h.parser.ParseDocument(c.Request.Context(), req.Handle, domain.ParseOptions{Debug: req.Debug})
	if err != nil {
		h.renderParseError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// renderParseError maps pipeline errors onto HTTP statuses. Unparseable and
// unreadable documents are the client's problem, everything else is ours.
func (h *Handler) renderParseError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrEmptyInput), errors.Is(err, domain.ErrInvalidRequest):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrUnparseable), errors.Is(err, domain.ErrUnreadableDocument):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
