package httpserver

import (
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"cardapio/internal"
	"cardapio/internal/config"
	"cardapio/internal/pipeline"
	"cardapio/internal/storage"
	"cardapio/internal/util"
)

type Handler struct {
	proc *pipeline.ProcessingService
	cfg  config.Config
	log  *zap.Logger
}

func NewRouter(proc *pipeline.ProcessingService, cfg config.Config, log *zap.Logger) *gin.Engine {
	if log == nil {
		log = zap.NewNop()
	}
	h := &Handler{proc: proc, cfg: cfg, log: log}

	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(log))
	r.MaxMultipartMemory = 8 << 20

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")
	api.POST("/parse", h.Parse)
	api.GET("/runs", h.ListRuns)
	api.GET("/runs/:id", h.GetRun)
	api.GET("/runs/:id/export.xlsx", h.ExportRun)
	return r
}

func requestLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("took", time.Since(start)),
		)
	}
}

// Parse accepts one menu document in the multipart field "file" and an
// optional "mode". Each request gets its own scratch directory.
func (h *Handler) Parse(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.cfg.MaxUploadBytes())

	header, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "file exceeds the upload limit"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}

	kind, err := pipeline.DetectKind(header.Filename)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "only .pdf, .xlsx and .html files are accepted"})
		return
	}
	mode := c.PostForm("mode")
	if _, err := h.proc.Engine().ParseMode(mode); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	dir := filepath.Join(h.cfg.ScratchDir, "cardapio-"+uuid.NewString())
	if err := os.MkdirAll(dir, 0o700); err != nil {
		h.fail(c, err)
		return
	}
	defer os.RemoveAll(dir)

	dst := filepath.Join(dir, util.SafeFileName(header.Filename, 120))
	if err := c.SaveUploadedFile(header, dst); err != nil {
		h.fail(c, err)
		return
	}
	blob, err := os.ReadFile(dst)
	if err != nil {
		h.fail(c, err)
		return
	}

	doc := internal.MenuDocument{Name: header.Filename, Kind: kind, Blob: blob}
	run, err := h.proc.ProcessDocument(c.Request.Context(), doc, mode, nil)
	if err != nil {
		h.fail(c, err)
		return
	}

	status := http.StatusOK
	if !run.Result.Success {
		status = http.StatusUnprocessableEntity
	}
	c.JSON(status, gin.H{"runId": run.RunID, "result": run.Result})
}

func (h *Handler) ListRuns(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil || limit <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
		return
	}
	runs, err := h.proc.Store().ListRuns(c.Request.Context(), limit)
	if err != nil {
		h.fail(c, err)
		return
	}
	if runs == nil {
		runs = []internal.RunRow{}
	}
	c.JSON(http.StatusOK, gin.H{"runs": runs})
}

func (h *Handler) GetRun(c *gin.Context) {
	run, res, err := storage.LoadResult(c.Request.Context(), h.proc.Store(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"run": run, "result": res})
}

func (h *Handler) ExportRun(c *gin.Context) {
	id := c.Param("id")
	_, res, err := storage.LoadResult(c.Request.Context(), h.proc.Store(), id)
	if err != nil {
		h.fail(c, err)
		return
	}

	dir := filepath.Join(h.cfg.ScratchDir, "cardapio-"+uuid.NewString())
	if err := os.MkdirAll(dir, 0o700); err != nil {
		h.fail(c, err)
		return
	}
	defer os.RemoveAll(dir)

	name := "cardapio-" + util.SafeFileName(strings.TrimSuffix(res.Meta.SourceFileName, filepath.Ext(res.Meta.SourceFileName)), 80) + ".xlsx"
	path := filepath.Join(dir, name)
	if err := pipeline.ExportEntriesToXLSX(res, path); err != nil {
		h.fail(c, err)
		return
	}
	c.FileAttachment(path, name)
}

func (h *Handler) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, storage.ErrRunNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, pipeline.ErrUnsupportedInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		h.log.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
