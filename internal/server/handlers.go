package server

import (
	"context"
	"errors"
	"io"
	"net/http"
	"runtime"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	gojson "github.com/goccy/go-json"

	"github.com/hupe1980/plover"
	"github.com/hupe1980/plover/auth"
	"github.com/hupe1980/plover/query"
)

type errorBody struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, plover.ErrInvalidQuery), errors.Is(err, query.ErrInvalid):
		return http.StatusBadRequest
	case errors.Is(err, plover.ErrTooManyEdges):
		return http.StatusForbidden
	case errors.Is(err, auth.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, plover.ErrNotReady), errors.Is(err, plover.ErrUnavailable), errors.Is(err, plover.ErrClosed):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	}
	var mbe *http.MaxBytesError
	if errors.As(err, &mbe) {
		return http.StatusRequestEntityTooLarge
	}
	return http.StatusInternalServerError
}

func (s *Server) fail(c *gin.Context, err error) {
	status := statusOf(err)
	if status >= http.StatusInternalServerError && status != http.StatusServiceUnavailable {
		requestLogger(c).ErrorContext(c.Request.Context(), "request failed", "error", err)
	}
	c.AbortWithStatusJSON(status, errorBody{
		Error:     err.Error(),
		RequestID: c.Writer.Header().Get(headerRequestID),
	})
}

func (s *Server) writeJSON(c *gin.Context, status int, v any) {
	data, err := gojson.Marshal(v)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.Data(status, "application/json; charset=utf-8", data)
}

func (s *Server) readBody(c *gin.Context) ([]byte, error) {
	body := http.MaxBytesReader(c.Writer, c.Request.Body, s.opts.MaxBodyBytes)
	return io.ReadAll(body)
}

// decode reads a JSON body into v and validates it.
func (s *Server) decode(c *gin.Context, v any) error {
	data, err := s.readBody(c)
	if err != nil {
		return err
	}
	if err := gojson.Unmarshal(data, v); err != nil {
		return &query.ValidationError{Reason: "cannot decode request: " + err.Error()}
	}
	return query.Validate(v)
}

func (s *Server) handleQuery(c *gin.Context) {
	data, err := s.readBody(c)
	if err != nil {
		s.fail(c, err)
		return
	}
	g, err := query.Decode(data)
	if err != nil {
		s.fail(c, err)
		return
	}
	resp, err := s.db.Answer(c.Request.Context(), g)
	if err != nil {
		s.fail(c, err)
		return
	}
	s.writeJSON(c, http.StatusOK, resp)
}

func (s *Server) handleGetEdges(c *gin.Context) {
	var req query.EdgesRequest
	if err := s.decode(c, &req); err != nil {
		s.fail(c, err)
		return
	}
	resp, err := s.db.GetEdges(c.Request.Context(), req.Pairs)
	if err != nil {
		s.fail(c, err)
		return
	}
	s.writeJSON(c, http.StatusOK, resp)
}

func (s *Server) handleGetNeighbors(c *gin.Context) {
	var req query.NeighborsRequest
	if err := s.decode(c, &req); err != nil {
		s.fail(c, err)
		return
	}
	resp, err := s.db.GetNeighbors(c.Request.Context(), req.IDs, req.Categories, req.Predicates)
	if err != nil {
		s.fail(c, err)
		return
	}
	s.writeJSON(c, http.StatusOK, resp)
}

func (s *Server) handleHealth(c *gin.Context) {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)
	c.JSON(http.StatusOK, gin.H{
		"status":     "ok",
		"ready":      s.db.Ready(),
		"uptime":     time.Since(s.started).Round(time.Second).String(),
		"goroutines": runtime.NumGoroutine(),
		"heap_bytes": mem.HeapAlloc,
		"rebuilding": s.rebuilding.Load(),
	})
}

func (s *Server) handleReady(c *gin.Context) {
	if !s.db.Ready() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"ready": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ready": true})
}

func (s *Server) handleMeta(c *gin.Context) {
	stats, err := s.db.Stats()
	if err != nil {
		s.fail(c, err)
		return
	}
	report, err := s.db.SubclassReport()
	if err != nil {
		s.fail(c, err)
		return
	}
	s.writeJSON(c, http.StatusOK, gin.H{
		"version":  s.opts.Version,
		"stats":    stats,
		"subclass": report,
	})
}

func bearerToken(c *gin.Context) string {
	h := c.GetHeader("Authorization")
	scheme, token, ok := strings.Cut(h, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

func (s *Server) requireKey(c *gin.Context) {
	if err := s.opts.Auth.Authenticate(c.Request.Context(), bearerToken(c)); err != nil {
		if !errors.Is(err, auth.ErrUnauthorized) {
			requestLogger(c).WarnContext(c.Request.Context(), "key lookup failed", "error", err)
			err = auth.ErrUnauthorized
		}
		s.fail(c, err)
		return
	}
	c.Next()
}

// handleRebuild starts a rebuild in the background and answers 202, or
// 409 if one is already running. With ?wait=true it answers when the
// rebuild finishes.
func (s *Server) handleRebuild(c *gin.Context) {
	if !s.rebuilding.CompareAndSwap(false, true) {
		c.JSON(http.StatusConflict, gin.H{"error": "rebuild already in progress"})
		return
	}
	log := requestLogger(c)

	if c.Query("wait") == "true" {
		defer s.rebuilding.Store(false)
		if err := s.db.Rebuild(c.Request.Context()); err != nil {
			s.fail(c, err)
			return
		}
		stats, _ := s.db.Stats()
		s.writeJSON(c, http.StatusOK, stats)
		return
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer s.rebuilding.Store(false)
		if err := s.db.Rebuild(s.base); err != nil {
			log.Error("background rebuild failed", "error", err)
		}
	}()
	c.JSON(http.StatusAccepted, gin.H{"status": "rebuilding"})
}
