// Package sink provides concrete sink transports. The engine only
// sees core.SinkTransport; protocol framing lives in the payload.
package sink

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/avrhamo/releases-sub000/internal/core"
)

// HTTPSink delivers payloads to a single HTTP endpoint. Success is any
// status below 400; transport errors and timeouts become failed
// results, never Go errors, so one bad item cannot stop a batch.
type HTTPSink struct {
	method string
	url    string
	client *http.Client
	debug  *DebugLogger
}

func NewHTTPSink(method, url string, client *http.Client, debug *DebugLogger) *HTTPSink {
	if client == nil {
		client = &http.Client{}
	}
	if method == "" {
		method = http.MethodPost
	}
	return &HTTPSink{
		method: method,
		url:    url,
		client: client,
		debug:  debug,
	}
}

func (s *HTTPSink) Send(ctx context.Context, p core.Payload, timeout time.Duration) core.SendResult {
	start := time.Now()

	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	body, err := encodeBody(p.Body)
	if err != nil {
		return core.SendResult{
			Latency: time.Since(start),
			Error:   err.Error(),
		}
	}

	req, err := http.NewRequestWithContext(ctx, s.method, s.url, bytes.NewReader(body))
	if err != nil {
		return core.SendResult{
			Latency: time.Since(start),
			Error:   err.Error(),
		}
	}
	for k, v := range p.Headers {
		req.Header.Set(k, v)
	}
	if req.Header.Get("Content-Type") == "" && len(body) > 0 {
		req.Header.Set("Content-Type", "application/json")
	}

	s.debug.LogRequest(p.Key, req)

	resp, err := s.client.Do(req)
	latency := time.Since(start)
	if err != nil {
		s.debug.LogError(err.Error(), latency)
		return core.SendResult{
			Latency:   latency,
			BytesSent: int64(len(body)),
			Error:     err.Error(),
		}
	}
	defer resp.Body.Close()

	var respBody []byte
	if s.debug != nil {
		respBody, _ = io.ReadAll(io.LimitReader(resp.Body, maxBodyLogSize))
	}
	_, _ = io.Copy(io.Discard, resp.Body) // drain errors are ignorable

	s.debug.LogResponse(resp, respBody, latency)

	success := resp.StatusCode < 400
	errStr := ""
	if !success {
		errStr = resp.Status
	}
	return core.SendResult{
		Success:   success,
		Latency:   latency,
		Status:    resp.StatusCode,
		BytesSent: int64(len(body)),
		Error:     errStr,
	}
}

// encodeBody serializes the payload tree: strings pass through raw,
// anything else is JSON.
func encodeBody(body any) ([]byte, error) {
	switch b := body.(type) {
	case nil:
		return nil, nil
	case string:
		return []byte(b), nil
	case []byte:
		return b, nil
	default:
		return json.Marshal(b)
	}
}
