package transport

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/thehariompandey/Resturant-Inspection-Automation-System/core"
)

const KindREST = "rest"

const defaultRESTClientTimeout = 30 * time.Second

const defaultRESTResponseBodyLimit int64 = 4 << 20

type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// RESTAdapter executes one JSON request per call. Non-2xx responses are
// returned as-is; callers decode provider error bodies themselves.
type RESTAdapter struct {
	Client               HTTPDoer
	DefaultHeaders       map[string]string
	MaxResponseBodyBytes int64
}

func NewRESTAdapter(client HTTPDoer) *RESTAdapter {
	if client == nil {
		client = &http.Client{Timeout: defaultRESTClientTimeout}
	}
	return &RESTAdapter{
		Client:               client,
		DefaultHeaders:       map[string]string{},
		MaxResponseBodyBytes: defaultRESTResponseBodyLimit,
	}
}

func (*RESTAdapter) Kind() string {
	return KindREST
}

func (a *RESTAdapter) Do(ctx context.Context, req core.TransportRequest) (core.TransportResponse, error) {
	if a == nil || a.Client == nil {
		return core.TransportResponse{}, requestFailure{
			message:  "transport: rest adapter requires an http client",
			category: goerrors.CategoryInternal,
		}.envelope(req)
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if req.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, req.Timeout)
		defer cancel()
	}

	httpReq, failure := a.newRequest(ctx, req)
	if failure != nil {
		return core.TransportResponse{}, failure.envelope(req)
	}

	startedAt := time.Now()
	httpRes, err := a.Client.Do(httpReq)
	if err != nil {
		return core.TransportResponse{}, requestFailure{
			cause:    err,
			message:  "transport: execute http request",
			category: goerrors.CategoryExternal,
			fields:   map[string]any{"method": httpReq.Method, "path": httpReq.URL.Path},
		}.envelope(req)
	}
	defer httpRes.Body.Close()

	payload, failure := readLimited(httpRes, responseLimit(req.MaxResponseBodyBytes, a.MaxResponseBodyBytes))
	if failure != nil {
		return core.TransportResponse{}, failure.envelope(req)
	}

	return core.TransportResponse{
		StatusCode: httpRes.StatusCode,
		Headers:    flattenHeaders(httpRes.Header),
		Body:       payload,
		Metadata: map[string]any{
			"duration_ms": time.Since(startedAt).Milliseconds(),
			"kind":        KindREST,
		},
	}, nil
}

func (a *RESTAdapter) newRequest(ctx context.Context, req core.TransportRequest) (*http.Request, *requestFailure) {
	rawURL := strings.TrimSpace(req.URL)
	if rawURL == "" {
		return nil, &requestFailure{message: "transport: request url is required", category: goerrors.CategoryBadInput}
	}
	target, err := url.Parse(rawURL)
	if err != nil {
		return nil, &requestFailure{
			cause:    err,
			message:  "transport: invalid request url",
			category: goerrors.CategoryBadInput,
			fields:   map[string]any{"url": rawURL},
		}
	}
	if len(req.Query) > 0 {
		query := target.Query()
		for key, value := range req.Query {
			if key = strings.TrimSpace(key); key != "" {
				query.Set(key, strings.TrimSpace(value))
			}
		}
		target.RawQuery = query.Encode()
	}

	method := strings.ToUpper(strings.TrimSpace(req.Method))
	if method == "" {
		method = http.MethodGet
	}
	var body io.Reader = http.NoBody
	if len(req.Body) > 0 {
		body = bytes.NewReader(req.Body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, method, target.String(), body)
	if err != nil {
		return nil, &requestFailure{
			cause:    err,
			message:  "transport: create http request",
			category: goerrors.CategoryBadInput,
			fields:   map[string]any{"method": method},
		}
	}
	if len(req.Body) > 0 {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	applyHeaders(httpReq.Header, a.DefaultHeaders)
	applyHeaders(httpReq.Header, req.Headers)
	return httpReq, nil
}

func readLimited(res *http.Response, limit int64) ([]byte, *requestFailure) {
	payload, err := io.ReadAll(io.LimitReader(res.Body, limit+1))
	if err != nil {
		return nil, &requestFailure{
			cause:    err,
			message:  "transport: read response body",
			category: goerrors.CategoryExternal,
			fields:   map[string]any{"status_code": res.StatusCode},
		}
	}
	if int64(len(payload)) > limit {
		return nil, &requestFailure{
			message:  fmt.Sprintf("transport: response body exceeds limit of %d bytes", limit),
			category: goerrors.CategoryExternal,
			fields:   map[string]any{"status_code": res.StatusCode, "response_limit_b": limit},
		}
	}
	return payload, nil
}

func applyHeaders(target http.Header, headers map[string]string) {
	for key, value := range headers {
		if key = strings.TrimSpace(key); key != "" {
			target.Set(key, strings.TrimSpace(value))
		}
	}
}

func flattenHeaders(headers http.Header) map[string]string {
	flat := make(map[string]string, len(headers))
	for key, values := range headers {
		flat[key] = strings.Join(values, ",")
	}
	return flat
}

func responseLimit(requestLimit int64, adapterLimit int64) int64 {
	switch {
	case requestLimit > 0:
		return requestLimit
	case adapterLimit > 0:
		return adapterLimit
	default:
		return defaultRESTResponseBodyLimit
	}
}

var _ core.TransportAdapter = (*RESTAdapter)(nil)
