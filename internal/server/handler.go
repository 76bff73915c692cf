package server

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"rehearse/internal/analysis"
	"rehearse/internal/history"
	"rehearse/internal/route"
)

// maxRouteBytes bounds the size of an uploaded routing result.
const maxRouteBytes = 10 << 20

// SessionStore is the read side of the history store.
type SessionStore interface {
	List(ctx context.Context, limit int) ([]history.Session, error)
	Get(ctx context.Context, id string) (*history.Session, error)
	MostLingered(ctx context.Context, n int) ([]history.LingeredJunction, error)
}

// Handler serves the API endpoints.
type Handler struct {
	analyzer *analysis.Analyzer
	store    SessionStore
}

// NewHandler creates a Handler. store may be nil when history is disabled.
func NewHandler(analyzer *analysis.Analyzer, store SessionStore) *Handler {
	return &Handler{analyzer: analyzer, store: store}
}

// Health handles GET /health.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"history": h.store != nil,
	})
}

// Analyze handles POST /api/v1/analyze. The body is a routing result; the
// reply is the analysis report. A result without routes is not an error.
func (h *Handler) Analyze(c *gin.Context) {
	body := http.MaxBytesReader(c.Writer, c.Request.Body, maxRouteBytes)
	result, err := route.Read(body)
	if err != nil {
		Error(c, http.StatusBadRequest, "Invalid route document", err)
		return
	}
	Success(c, h.analyzer.Analyze(result))
}

// ListSessions handles GET /api/v1/sessions?limit=N.
func (h *Handler) ListSessions(c *gin.Context) {
	if !h.requireStore(c) {
		return
	}
	limit, ok := queryInt(c, "limit", 20)
	if !ok {
		return
	}
	sessions, err := h.store.List(c.Request.Context(), limit)
	if err != nil {
		Error(c, http.StatusInternalServerError, "Failed to list sessions", err)
		return
	}
	Success(c, gin.H{
		"sessions": sessions,
		"total":    len(sessions),
	})
}

// GetSession handles GET /api/v1/sessions/:id.
func (h *Handler) GetSession(c *gin.Context) {
	if !h.requireStore(c) {
		return
	}
	sess, err := h.store.Get(c.Request.Context(), c.Param("id"))
	switch {
	case errors.Is(err, history.ErrSessionNotFound):
		Error(c, http.StatusNotFound, "Session not found", nil)
		return
	case errors.Is(err, history.ErrAmbiguousID):
		Error(c, http.StatusBadRequest, "Session ID prefix is ambiguous", nil)
		return
	case err != nil:
		Error(c, http.StatusInternalServerError, "Failed to get session", err)
		return
	}
	Success(c, sess)
}

// Lingered handles GET /api/v1/lingered?n=N.
func (h *Handler) Lingered(c *gin.Context) {
	if !h.requireStore(c) {
		return
	}
	n, ok := queryInt(c, "n", 3)
	if !ok {
		return
	}
	js, err := h.store.MostLingered(c.Request.Context(), n)
	if err != nil {
		Error(c, http.StatusInternalServerError, "Failed to rank junctions", err)
		return
	}
	Success(c, js)
}

func (h *Handler) requireStore(c *gin.Context) bool {
	if h.store == nil {
		Error(c, http.StatusServiceUnavailable, "Session history is disabled", nil)
		return false
	}
	return true
}

func queryInt(c *gin.Context, key string, def int) (int, bool) {
	raw := c.Query(key)
	if raw == "" {
		return def, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		Error(c, http.StatusBadRequest, "Invalid "+key+" parameter", err)
		return 0, false
	}
	return n, true
}
