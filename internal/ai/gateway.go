// internal/ai/gateway.go
package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"autoapply/internal/common/errors"
	"autoapply/internal/common/logger"
	"autoapply/internal/common/metrics"

	"github.com/redis/go-redis/v9"
)

const quotaKeyPrefix = "ai:quota:"

// AnalyzeResult is the outcome of a match analysis, including whether
// the score came from the model or from the documented fallback.
type AnalyzeResult struct {
	Score           int
	MissingSkills   []string
	Recommendations []string
	Fallback        bool
}

// CustomizeResult carries the resume text to store for a posting.
// Customized is false when the gateway fell back to the original.
type CustomizeResult struct {
	Resume     string
	Customized bool
}

// Gateway is the single chokepoint for model calls. It serializes
// calls with a minimum interval between them and enforces a hard
// daily ceiling; once the ceiling is reached it stops attempting
// calls entirely and returns fallback values until local midnight.
type Gateway struct {
	model       Model
	redisClient redis.Cmdable
	log         logger.Logger

	minInterval time.Duration
	ceiling     int64
	callTimeout time.Duration

	mu       sync.Mutex
	lastCall time.Time

	// in-memory quota, used when redis is unavailable
	quotaMu  sync.Mutex
	quotaDay string
	quotaN   int64

	now func() time.Time
}

// GatewayOption configures a Gateway.
type GatewayOption func(*Gateway)

// WithClock overrides the gateway's time source.
func WithClock(now func() time.Time) GatewayOption {
	return func(g *Gateway) { g.now = now }
}

// NewGateway builds a rate-limited gateway in front of the model.
// redisClient may be nil; quota tracking then lives in memory only.
func NewGateway(model Model, redisClient redis.Cmdable, minInterval time.Duration, dailyCeiling int64, callTimeout time.Duration, log logger.Logger, opts ...GatewayOption) *Gateway {
	g := &Gateway{
		model:       model,
		redisClient: redisClient,
		log:         log,
		minInterval: minInterval,
		ceiling:     dailyCeiling,
		callTimeout: callTimeout,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Analyze scores the resume against the job description. It never
// fails the caller: quota exhaustion and model errors both yield the
// neutral fallback analysis, with the cause returned alongside so
// callers can record it.
func (g *Gateway) Analyze(ctx context.Context, resume, description string) (AnalyzeResult, error) {
	out, err := g.call(ctx, "analyze", buildAnalyzePrompt(resume, description))
	if err != nil {
		metrics.AIFallbacks.WithLabelValues("analyze", fallbackReason(err)).Inc()
		return fallbackAnalysis(), err
	}

	parsed, perr := parseAnalysis(out)
	if perr != nil {
		g.log.Warn("Could not parse model analysis, using fallback", map[string]interface{}{
			"error": perr.Error(),
		})
		metrics.AIFallbacks.WithLabelValues("analyze", "parse").Inc()
		return fallbackAnalysis(), errors.NewAICallFailedError("analyze", perr)
	}

	return parsed, nil
}

// Customize rewrites the resume for the posting. On any failure the
// original resume is returned verbatim with Customized=false.
func (g *Gateway) Customize(ctx context.Context, resume, description, title, company string) (CustomizeResult, error) {
	out, err := g.call(ctx, "customize", buildCustomizePrompt(resume, description, title, company))
	if err != nil {
		metrics.AIFallbacks.WithLabelValues("customize", fallbackReason(err)).Inc()
		return CustomizeResult{Resume: resume, Customized: false}, err
	}
	return CustomizeResult{Resume: out, Customized: true}, nil
}

// CallsToday reports the current quota counter, for run summaries.
func (g *Gateway) CallsToday(ctx context.Context) int64 {
	day := g.today()
	if g.redisClient != nil {
		if n, err := g.redisClient.Get(ctx, quotaKeyPrefix+day).Int64(); err == nil {
			return n
		}
	}
	g.quotaMu.Lock()
	defer g.quotaMu.Unlock()
	if g.quotaDay != day {
		return 0
	}
	return g.quotaN
}

func (g *Gateway) call(ctx context.Context, operation, prompt string) (string, error) {
	// The ceiling check happens before any pacing or network work:
	// an exhausted day must not slow the pipeline down.
	if err := g.reserveCall(ctx); err != nil {
		return "", err
	}

	g.waitTurn(ctx)

	callCtx := ctx
	if g.callTimeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, g.callTimeout)
		defer cancel()
	}

	metrics.AICalls.WithLabelValues(operation).Inc()
	out, err := g.model.Generate(callCtx, prompt)
	if err != nil {
		if isRateLimitError(err) {
			g.log.Warn("Model rejected call as rate limited", map[string]interface{}{
				"operation": operation,
			})
			return "", errors.NewRateLimitExceededError(err)
		}
		return "", errors.NewAICallFailedError(operation, err)
	}
	return out, nil
}

// waitTurn blocks until minInterval has elapsed since the previous
// call. Calls are serialized; concurrent callers queue on the mutex.
func (g *Gateway) waitTurn(ctx context.Context) {
	g.mu.Lock()
	defer g.mu.Unlock()

	elapsed := g.now().Sub(g.lastCall)
	if wait := g.minInterval - elapsed; wait > 0 {
		select {
		case <-time.After(wait):
		case <-ctx.Done():
		}
	}
	g.lastCall = g.now()
}

// reserveCall increments the daily counter and rejects the call when
// the ceiling is reached. The redis counter survives restarts; when
// redis is down the in-memory counter takes over for the process.
func (g *Gateway) reserveCall(ctx context.Context) error {
	if g.ceiling <= 0 {
		return nil
	}
	day := g.today()

	if g.redisClient != nil {
		key := quotaKeyPrefix + day
		n, err := g.redisClient.Incr(ctx, key).Result()
		if err == nil {
			if n == 1 {
				g.redisClient.ExpireAt(ctx, key, g.nextMidnight())
			}
			if n > g.ceiling {
				return errors.NewQuotaExhaustedError(int(g.ceiling))
			}
			return nil
		}
		g.log.Warn("Quota counter unavailable in redis, using in-memory counter", map[string]interface{}{
			"error": err.Error(),
		})
	}

	g.quotaMu.Lock()
	defer g.quotaMu.Unlock()
	if g.quotaDay != day {
		g.quotaDay = day
		g.quotaN = 0
	}
	g.quotaN++
	if g.quotaN > g.ceiling {
		return errors.NewQuotaExhaustedError(int(g.ceiling))
	}
	return nil
}

func (g *Gateway) today() string {
	return g.now().Local().Format("2006-01-02")
}

func (g *Gateway) nextMidnight() time.Time {
	t := g.now().Local()
	return time.Date(t.Year(), t.Month(), t.Day()+1, 0, 0, 0, 0, t.Location())
}

func fallbackAnalysis() AnalyzeResult {
	return AnalyzeResult{
		Score:    50,
		Fallback: true,
		Recommendations: []string{
			"Automated analysis was unavailable for this posting; review the match manually.",
		},
	}
}

type analysisPayload struct {
	MatchScore      int      `json:"matchScore"`
	MissingSkills   []string `json:"missingSkills"`
	Recommendations []string `json:"recommendations"`
}

// parseAnalysis extracts the JSON object from the model output,
// tolerating markdown fences and surrounding prose.
func parseAnalysis(out string) (AnalyzeResult, error) {
	start := strings.Index(out, "{")
	end := strings.LastIndex(out, "}")
	if start < 0 || end <= start {
		return AnalyzeResult{}, fmt.Errorf("no JSON object in response")
	}

	var payload analysisPayload
	if err := json.Unmarshal([]byte(out[start:end+1]), &payload); err != nil {
		return AnalyzeResult{}, fmt.Errorf("failed to decode analysis: %w", err)
	}

	return AnalyzeResult{
		Score:           clampScore(payload.MatchScore),
		MissingSkills:   payload.MissingSkills,
		Recommendations: payload.Recommendations,
	}, nil
}

func clampScore(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

func fallbackReason(err error) string {
	switch {
	case errors.IsQuotaExhausted(err):
		return "quota"
	case errors.IsRateLimited(err):
		return "rate_limit"
	default:
		return "error"
	}
}

func isRateLimitError(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "429") ||
		strings.Contains(msg, "rate limit") ||
		strings.Contains(msg, "resource_exhausted") ||
		strings.Contains(msg, "resource exhausted")
}
