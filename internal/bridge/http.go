package bridge

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	gojson "github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"maintcore/pkg/logger"
)

// CallPath is the HTTP route of the bridge endpoint.
const CallPath = "/bridge/call"

// HTTPTransport sends requests to a bridge server over HTTP.
type HTTPTransport struct {
	baseURL string
	client  *http.Client
}

var _ Transport = (*HTTPTransport)(nil)

// NewHTTPTransport returns a transport posting to baseURL. A nil client uses
// a client with timeout.
func NewHTTPTransport(baseURL string, client *http.Client, timeout time.Duration) *HTTPTransport {
	if client == nil {
		client = &http.Client{Timeout: timeout}
	}
	return &HTTPTransport{baseURL: strings.TrimRight(baseURL, "/"), client: client}
}

func (t *HTTPTransport) Call(ctx context.Context, req Request) (Response, error) {
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	body, err := gojson.Marshal(req)
	if err != nil {
		return Response{}, fmt.Errorf("encode request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, t.baseURL+CallPath, bytes.NewReader(body))
	if err != nil {
		return Response{}, err
	}
	httpReq.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	httpReq.Header.Set(echo.HeaderXRequestID, req.ID)
	res, err := t.client.Do(httpReq)
	if err != nil {
		return Response{}, err
	}
	defer func() { _ = res.Body.Close() }()
	if res.StatusCode != http.StatusOK {
		return Response{}, fmt.Errorf("bridge server returned %s", res.Status)
	}
	return decodeResponse(res.Body)
}

func (t *HTTPTransport) Close() error {
	t.client.CloseIdleConnections()
	return nil
}

// ServerOption customises the HTTP server.
type ServerOption func(*serverConfig)

type serverConfig struct {
	gatherer prometheus.Gatherer
	calls    *prometheus.CounterVec
}

// WithCallMetrics counts handled calls by op and outcome on reg and serves
// gatherer on /metrics.
func WithCallMetrics(reg prometheus.Registerer, gatherer prometheus.Gatherer, namespace string) ServerOption {
	return func(c *serverConfig) {
		calls := prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "bridge",
			Name:      "calls_total",
			Help:      "Bridge calls handled over HTTP by op and result code.",
		}, []string{"op", "code"})
		if err := reg.Register(calls); err != nil {
			var already prometheus.AlreadyRegisteredError
			if !errors.As(err, &already) {
				return
			}
			existing, ok := already.ExistingCollector.(*prometheus.CounterVec)
			if !ok {
				return
			}
			calls = existing
		}
		c.calls = calls
		c.gatherer = gatherer
	}
}

// NewServer exposes h over HTTP. Statement failures are answered with 200
// and ok=false; only undecodable requests get a 400.
func NewServer(h *Handler, log *zap.Logger, opts ...ServerOption) *echo.Echo {
	log = logger.OrNop(log).Named("bridge-http")
	var cfg serverConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.GET("/healthz", func(c echo.Context) error {
		if err := h.db.PingContext(c.Request().Context()); err != nil {
			return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "error": err.Error()})
		}
		return c.JSON(http.StatusOK, map[string]string{"status": "ok", "dialect": string(h.dialect)})
	})
	if cfg.gatherer != nil {
		e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(cfg.gatherer, promhttp.HandlerOpts{})))
	}
	e.POST(CallPath, func(c echo.Context) error {
		var req Request
		dec := gojson.NewDecoder(c.Request().Body)
		dec.UseNumber()
		if err := dec.Decode(&req); err != nil {
			cfg.observe(req.Op, CodeBadRequest)
			return c.JSON(http.StatusBadRequest, Response{OK: false, Error: "decode request: " + err.Error(), Code: CodeBadRequest})
		}
		resp := h.Handle(c.Request().Context(), req)
		if !resp.OK {
			log.Warn("call failed", zap.String("id", req.ID), zap.String("statement", req.Statement), zap.String("error", resp.Error))
		}
		cfg.observe(req.Op, resp.Code)
		return c.JSON(http.StatusOK, resp)
	})
	return e
}

func (c serverConfig) observe(op Op, code string) {
	if c.calls == nil {
		return
	}
	if code == "" {
		code = "ok"
	}
	c.calls.WithLabelValues(string(op), code).Inc()
}
