package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/funnelalchemy/prospect-scorer/internal/util"
	"github.com/funnelalchemy/prospect-scorer/internal/version"
	"github.com/funnelalchemy/prospect-scorer/pkg/scoring/core"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type scoreRequest struct {
	ScoringSettings map[string]any   `json:"scoring_settings"`
	Prospects       []map[string]any `json:"prospects"`
}

func (s *Server) handleScore(c *gin.Context) {
	requestID := uuid.NewString()

	var req scoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "invalid request body: scoring_settings object and prospects array are required"})
		return
	}
	if req.Prospects == nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "prospects must be an array"})
		return
	}

	prospects := make([]core.Prospect, 0, len(req.Prospects))
	for _, item := range req.Prospects {
		prospects = append(prospects, prospectFromMap(item))
	}

	apiKey := c.GetString(contextAPIKeyKey)
	orch := s.orchestratorFor(apiKey)

	results, metrics, err := orch.Score(c.Request.Context(), core.Settings(req.ScoringSettings), prospects)
	if err != nil {
		if errors.Is(err, core.ErrInvalidInput) {
			c.JSON(http.StatusBadRequest, gin.H{"detail": util.RedactSecrets(err.Error())})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"detail": util.RedactSecrets(err.Error())})
		return
	}

	recordRunMetrics(metrics)

	errCounts := make(map[string]int, len(metrics.ErrorCounts))
	for cat, n := range metrics.ErrorCounts {
		errCounts[string(cat)] = n
	}
	errCountsJSON, _ := json.Marshal(errCounts)

	c.Header("X-Scorer-Version", version.Current)
	c.Header("X-Request-Id", requestID)
	c.Header("X-Count", strconv.Itoa(metrics.Count))
	c.Header("X-Ok", strconv.Itoa(metrics.OK))
	c.Header("X-Ok-Share", fmt.Sprintf("%.3f", metrics.OKShare))
	c.Header("X-Retries-Total", strconv.Itoa(metrics.Retries))
	c.Header("X-Latency-S", fmt.Sprintf("%.3f", metrics.Latency.Seconds()))
	c.Header("X-Error-Counts", string(errCountsJSON))

	s.log.Info("score request complete",
		zap.String("request_id", requestID),
		zap.String("api_key_id", keyFingerprint(apiKey)),
		zap.Int("count", metrics.Count),
		zap.Int("ok", metrics.OK),
		zap.Int("retries", metrics.Retries),
		zap.Duration("latency", metrics.Latency),
	)

	c.JSON(http.StatusOK, results)
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"version":   version.Current,
	})
}

func (s *Server) handleReady(c *gin.Context) {
	if s.pinger == nil {
		c.JSON(http.StatusOK, gin.H{"status": "ready", "model": "unchecked"})
		return
	}

	ctx, cancel := context5s(c)
	defer cancel()
	if err := s.pinger.Ping(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "not ready",
			"detail": util.RedactSecrets(err.Error()),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready", "model": "available", "version": version.Current})
}

func context5s(c *gin.Context) (ctx context.Context, cancel context.CancelFunc) {
	return context.WithTimeout(c.Request.Context(), 5*time.Second)
}

// prospectFromMap lifts the id field out of the raw prospect object; every
// other key stays in the opaque attribute bag.
func prospectFromMap(item map[string]any) core.Prospect {
	p := core.Prospect{Attrs: make(map[string]any, len(item))}
	for k, v := range item {
		p.Attrs[k] = v
	}
	for _, key := range []string{"prospect_id", "id"} {
		if v, found := item[key]; found && p.ID == "" {
			p.ID = coerceID(v)
		}
	}
	return p
}

func coerceID(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	default:
		return ""
	}
}

func recordRunMetrics(m core.RunMetrics) {
	prospectsScored.WithLabelValues("ok").Add(float64(m.OK))
	prospectsScored.WithLabelValues("fallback").Add(float64(m.Count - m.OK))
	retriesIssued.Add(float64(m.Retries))
	runLatency.Observe(m.Latency.Seconds())
	for cat, n := range m.ErrorCounts {
		chunkErrors.WithLabelValues(string(cat)).Add(float64(n))
	}
}

// keyFingerprint identifies a caller in logs without leaking the key.
func keyFingerprint(key string) string {
	if len(key) <= 4 {
		return "****"
	}
	return "****" + key[len(key)-4:]
}
