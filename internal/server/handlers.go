package server

import (
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"growdash/internal/analytics"
	"growdash/internal/auditlog"
	"growdash/internal/interfaces"
	"growdash/internal/logger"
	"growdash/internal/parser"
	"growdash/internal/types"
)

const maxUploadBytes = 20 << 20

// Handler serves the API endpoints from the trade store and advisor.
type Handler struct {
	trades  interfaces.TradeStore
	advisor interfaces.Advisor
}

func NewHandler(trades interfaces.TradeStore, advisor interfaces.Advisor) *Handler {
	return &Handler{trades: trades, advisor: advisor}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	t := r.Group("/trades")
	{
		t.POST("/upload", h.UploadTradebook)
		t.GET("", h.ListTrades)
	}

	a := r.Group("/analytics")
	{
		a.GET("", h.FullAnalytics)
		a.GET("/summary", h.Summary)
		a.GET("/daily-pnl", h.DailyPnl)
		a.GET("/monthly-pnl", h.MonthlyPnl)
		a.GET("/ce-vs-pe", h.CeVsPe)
		a.GET("/most-traded-strike", h.MostTradedStrike)
		a.GET("/holding-time", h.HoldingTime)
	}

	ai := r.Group("/ai")
	{
		ai.POST("/copilot", h.Copilot)
	}
}

// UploadTradebook ingests a CSV tradebook. Parse failures are client errors;
// duplicate trades are counted as skipped, not errors.
func (h *Handler) UploadTradebook(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing file upload field 'file'"})
		return
	}

	if !strings.EqualFold(filepath.Ext(fileHeader.Filename), ".csv") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "only .csv files are supported"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unable to read uploaded file"})
		return
	}
	defer file.Close()

	fileBytes, err := io.ReadAll(io.LimitReader(file, maxUploadBytes+1))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unable to read uploaded file"})
		return
	}
	// A truncated tradebook must never be ingested, so oversized files are
	// refused outright instead of being cut at the limit.
	if len(fileBytes) > maxUploadBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "uploaded file exceeds the 20MB limit"})
		return
	}

	trades, err := parser.ParseTradebook(fileBytes)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()
	inserted, err := h.trades.SaveTrades(ctx, trades)
	if err != nil {
		logger.ErrorWithErr(ctx, "Failed to store uploaded trades", err, "filename", fileHeader.Filename)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store trades"})
		return
	}

	summary := types.UploadSummary{
		TotalRows:    len(trades),
		ImportedRows: inserted,
		SkippedRows:  len(trades) - inserted,
	}

	logger.Upload(ctx, "csv", summary.TotalRows, summary.ImportedRows, summary.SkippedRows,
		"filename", fileHeader.Filename)
	if err := auditlog.Append(auditlog.Entry{
		Source:       "csv",
		Filename:     fileHeader.Filename,
		TotalRows:    summary.TotalRows,
		ImportedRows: summary.ImportedRows,
		SkippedRows:  summary.SkippedRows,
	}); err != nil {
		logger.ErrorWithErr(ctx, "Failed to append ingestion audit entry", err)
	}

	c.JSON(http.StatusOK, summary)
}

// ListTrades returns stored trades newest first, paginated.
func (h *Handler) ListTrades(c *gin.Context) {
	limit := parseIntQuery(c, "limit", 100)
	offset := parseIntQuery(c, "offset", 0)

	if limit < 1 {
		limit = 1
	}
	if limit > 1000 {
		limit = 1000
	}
	if offset < 0 {
		offset = 0
	}

	trades, err := h.trades.ListTrades(c.Request.Context(), limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list trades"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"trades": trades, "limit": limit, "offset": offset})
}

// computeAnalytics rebuilds the snapshot from the full ledger on every call.
func (h *Handler) computeAnalytics(c *gin.Context) (types.Analytics, bool) {
	trades, err := h.trades.AllTrades(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load trades"})
		return types.Analytics{}, false
	}
	return analytics.Compute(trades), true
}

func (h *Handler) FullAnalytics(c *gin.Context) {
	snapshot, ok := h.computeAnalytics(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, snapshot)
}

func (h *Handler) Summary(c *gin.Context) {
	snapshot, ok := h.computeAnalytics(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, snapshot.Summary)
}

func (h *Handler) DailyPnl(c *gin.Context) {
	snapshot, ok := h.computeAnalytics(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, snapshot.DailyPnl)
}

func (h *Handler) MonthlyPnl(c *gin.Context) {
	snapshot, ok := h.computeAnalytics(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, snapshot.MonthlyPnl)
}

func (h *Handler) CeVsPe(c *gin.Context) {
	snapshot, ok := h.computeAnalytics(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, snapshot.CeVsPe)
}

func (h *Handler) MostTradedStrike(c *gin.Context) {
	snapshot, ok := h.computeAnalytics(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, snapshot.MostTradedStrike)
}

func (h *Handler) HoldingTime(c *gin.Context) {
	snapshot, ok := h.computeAnalytics(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, snapshot.HoldingTime)
}

type CopilotReq struct {
	Question string `json:"question" binding:"required"`
}

// Copilot answers a trader question against the current analytics snapshot.
func (h *Handler) Copilot(c *gin.Context) {
	var req CopilotReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	snapshot, ok := h.computeAnalytics(c)
	if !ok {
		return
	}

	advice, err := h.advisor.Advise(c.Request.Context(), req.Question, snapshot)
	if err != nil {
		if errors.Is(err, interfaces.ErrEmptyQuestion) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate advice"})
		return
	}

	c.JSON(http.StatusOK, advice)
}

func parseIntQuery(c *gin.Context, name string, fallback int) int {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return n
}
