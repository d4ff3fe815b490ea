package server

import (
	"context"
	"errors"
	"mime"
	"net/http"
	"net/url"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/flarebyte/shiftlog/internal/export"
	"github.com/flarebyte/shiftlog/internal/form"
	"github.com/flarebyte/shiftlog/internal/hub"
	"github.com/flarebyte/shiftlog/internal/kv"
	"github.com/flarebyte/shiftlog/internal/log"
	"github.com/flarebyte/shiftlog/internal/record"
	"github.com/flarebyte/shiftlog/internal/reminder"
	"github.com/flarebyte/shiftlog/internal/store"
)

// AdvisoryHeader carries the URL-escaped "nothing to export" text on 204s.
const AdvisoryHeader = "X-Shiftlog-Advisory"

func fail(c *gin.Context, status int, err error) {
	c.JSON(status, gin.H{"error": err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, form.ErrMissingEmployee), errors.Is(err, form.ErrRejected):
		return http.StatusUnprocessableEntity
	case errors.Is(err, kv.ErrQuotaExceeded):
		return http.StatusInsufficientStorage
	case errors.Is(err, store.ErrCorruptLog), errors.Is(err, export.ErrNotConfirmed):
		return http.StatusConflict
	case errors.Is(err, reminder.ErrUnknownAction), errors.Is(err, record.ErrInvalidValue):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func categoryParam(c *gin.Context) (record.Category, bool) {
	cat, err := record.Parse(c.Param("category"))
	if err != nil {
		fail(c, http.StatusNotFound, err)
		return "", false
	}
	return cat, true
}

func (s *Server) handleGetProfile(c *gin.Context) {
	c.JSON(http.StatusOK, s.deps.Store.ReadProfile())
}

func (s *Server) handlePutProfile(c *gin.Context) {
	var p store.Profile
	if err := c.ShouldBindJSON(&p); err != nil {
		fail(c, http.StatusBadRequest, err)
		return
	}
	if err := s.deps.Store.WriteProfile(p); err != nil {
		fail(c, statusFor(err), err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (s *Server) handleListRecords(c *gin.Context) {
	cat, ok := categoryParam(c)
	if !ok {
		return
	}
	l, err := s.deps.Store.Load(cat)
	if err != nil {
		fail(c, statusFor(err), err)
		return
	}
	c.JSON(http.StatusOK, l)
}

// handleAddRecord takes the submitted form as a flat JSON object; key order
// is kept so the stored record lists fields as the form did.
func (s *Server) handleAddRecord(c *gin.Context) {
	cat, ok := categoryParam(c)
	if !ok {
		return
	}
	var submitted record.Record
	if err := c.ShouldBindJSON(&submitted); err != nil {
		fail(c, http.StatusBadRequest, err)
		return
	}
	fields := make([]record.Field, 0, submitted.Len())
	for _, k := range submitted.Keys() {
		v, _ := submitted.Get(k)
		fields = append(fields, record.Field{Key: k, Value: v})
	}
	if s.deps.Admitter != nil {
		if err := s.deps.Admitter.Admit(c.Request.Context(), cat, fields, s.deps.Store.ReadProfile()); err != nil {
			fail(c, statusFor(err), err)
			return
		}
	}
	rec, err := s.deps.Store.Append(cat, fields)
	if err != nil {
		fail(c, statusFor(err), err)
		return
	}
	c.JSON(http.StatusCreated, rec)
}

func (s *Server) handleSummary(c *gin.Context) {
	sum, err := s.deps.Exports.Summary()
	if err != nil {
		fail(c, statusFor(err), err)
		return
	}
	c.JSON(http.StatusOK, sum)
}

func (s *Server) handlePreview(c *gin.Context) {
	limit := export.DefaultPreviewLimit
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			fail(c, http.StatusBadRequest, errors.New("limit must be a positive integer"))
			return
		}
		limit = n
	}
	items, err := s.deps.Exports.PreviewRecent(c.Request.Context(), limit)
	if err != nil {
		fail(c, statusFor(err), err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

func (s *Server) handleExportAll(c *gin.Context) {
	d, err := s.deps.Exports.ExportAll(c.Request.Context())
	s.writeDownload(c, d, err, export.AdvisoryAll)
}

func (s *Server) handleExportCategory(c *gin.Context) {
	cat, ok := categoryParam(c)
	if !ok {
		return
	}
	d, err := s.deps.Exports.ExportCategory(c.Request.Context(), cat)
	s.writeDownload(c, d, err, export.AdvisoryCategory)
}

func (s *Server) writeDownload(c *gin.Context, d export.Download, err error, advisory string) {
	if errors.Is(err, export.ErrNothingToExport) {
		c.Header(AdvisoryHeader, url.PathEscape(advisory))
		c.Status(http.StatusNoContent)
		return
	}
	if err != nil {
		fail(c, statusFor(err), err)
		return
	}
	c.Header("Content-Disposition", contentDisposition(d.Filename))
	c.Data(http.StatusOK, d.ContentType, d.Body)
}

// contentDisposition names the attachment. Non-ASCII names go out as an
// RFC 2231 filename* value with every tspecial percent-encoded.
func contentDisposition(filename string) string {
	if v := mime.FormatMediaType("attachment", map[string]string{"filename": filename}); v != "" {
		return v
	}
	return "attachment"
}

type clearRequest struct {
	Confirm bool `json:"confirm"`
}

func (s *Server) handleClear(c *gin.Context) {
	var req clearRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			fail(c, http.StatusBadRequest, err)
			return
		}
	}
	confirm := export.ConfirmFunc(func(context.Context, string) (bool, error) { return req.Confirm, nil })
	if err := s.deps.Exports.ClearAll(c.Request.Context(), confirm); err != nil {
		fail(c, statusFor(err), err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"cleared": true, "message": export.ClearedMessage})
}

func (s *Server) handleClick(c *gin.Context) {
	var click reminder.Click
	if err := c.ShouldBindJSON(&click); err != nil {
		fail(c, http.StatusBadRequest, err)
		return
	}
	opened, err := s.deps.Clicks.Handle(c.Request.Context(), click)
	if errors.Is(err, hub.ErrNoSubscribers) {
		log.GetLogger().WithField("id", click.NotificationID).Warn("no window to open")
		err = nil
	}
	if err != nil {
		fail(c, statusFor(err), err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"opened": opened})
}
