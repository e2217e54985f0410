package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/TheRandomCody/Ulti-Bot/internal/infra"
	"github.com/TheRandomCody/Ulti-Bot/internal/metrics"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Client: HTTP клиент к API панели управления.
// Каждый вызов проходит через лимитер и Circuit Breaker; повторов здесь нет:
// права и модерация не переигрываются, повторяет только вызывающий код для идемпотентных операций.
type Client struct {
	baseURL string
	secret  string
	http    *http.Client
	cb      *gobreaker.CircuitBreaker
	limiter *rate.Limiter
	metrics *metrics.Metrics
	logger  *zap.Logger
}

func NewClient(cfg infra.BackendConfig, m *metrics.Metrics, logger *zap.Logger) *Client {
	if m == nil {
		m = metrics.NewMetrics(nil)
	}
	logger = logger.Named("backend")

	maxFailures := cfg.CBMaxFailures
	if maxFailures == 0 {
		maxFailures = 5
	}

	// Настройка предохранителя
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "backend-api",
		MaxRequests: cfg.CBMaxRequests,
		Interval:    cfg.CBInterval,
		Timeout:     cfg.CBTimeout, // Время, через которое CB попробует "закрыться"
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > maxFailures
		},
		// 4xx: это ответ бэкенда, а не его недоступность
		IsSuccessful: func(err error) bool {
			return err == nil || isClientError(err)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			m.CircuitBreakerState.WithLabelValues(name).Set(float64(to))
			logger.Warn("circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	})

	limit := rate.Inf
	if cfg.RateLimit > 0 {
		limit = rate.Limit(cfg.RateLimit)
	}
	burst := cfg.RateBurst
	if burst <= 0 {
		burst = 1
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		secret:  cfg.ClientSecret,
		http:    &http.Client{Timeout: timeout},
		cb:      cb,
		limiter: rate.NewLimiter(limit, burst),
		metrics: m,
		logger:  logger,
	}
}

// do выполняет запрос; endpoint: метка для метрик (без ID, чтобы не раздувать кардинальность).
func (c *Client) do(ctx context.Context, endpoint, method, path string, in, out any) error {
	// 1. Rate Limiter
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	start := time.Now()
	status := "error"
	defer func() {
		c.metrics.BackendDuration.WithLabelValues(endpoint, status).Observe(time.Since(start).Seconds())
	}()

	// 2. Circuit Breaker
	_, err := c.cb.Execute(func() (interface{}, error) {
		code, err := c.roundTrip(ctx, method, path, in, out)
		if code != 0 {
			status = strconv.Itoa(code)
		}
		return nil, err
	})
	if err != nil {
		c.logger.Debug("backend call failed",
			infra.TraceField(ctx),
			zap.String("endpoint", endpoint),
			zap.Error(err))
		return fmt.Errorf("%s %s: %w", method, endpoint, err)
	}
	return nil
}

func (c *Client) roundTrip(ctx context.Context, method, path string, in, out any) (int, error) {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return 0, fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return 0, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Authorization", "Bot "+c.secret)
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("X-Trace-ID", infra.TraceID(ctx))

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return resp.StatusCode, &ThrottleError{
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
			Cause:      &StatusError{Code: resp.StatusCode},
		}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return resp.StatusCode, &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(snippet))}
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return resp.StatusCode, nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return resp.StatusCode, fmt.Errorf("failed to decode response: %w", err)
	}
	return resp.StatusCode, nil
}

func parseRetryAfter(v string) time.Duration {
	if v == "" {
		return time.Second
	}
	if secs, err := strconv.ParseFloat(v, 64); err == nil && secs >= 0 {
		return time.Duration(secs * float64(time.Second))
	}
	if at, err := http.ParseTime(v); err == nil {
		if d := time.Until(at); d > 0 {
			return d
		}
	}
	return time.Second
}
