package sink

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"
)

const maxBodyLogSize = 1024

// DebugLogger logs outbound requests and responses for verbose runs.
// A nil *DebugLogger is safe to call: logging is simply off.
type DebugLogger struct {
	out io.Writer
	mu  sync.Mutex
}

func NewDebugLogger(out io.Writer) *DebugLogger {
	return &DebugLogger{out: out}
}

func (d *DebugLogger) LogRequest(key string, req *http.Request) {
	if d == nil {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	var buf bytes.Buffer
	buf.WriteString(fmt.Sprintf("\n>>> REQUEST %s %s\n", req.Method, req.URL.String()))
	if key != "" {
		buf.WriteString(fmt.Sprintf("  Key: %s\n", key))
	}
	if len(req.Header) > 0 {
		buf.WriteString("  Headers:\n")
		for name, values := range req.Header {
			buf.WriteString(fmt.Sprintf("    %s: %s\n", name, strings.Join(values, ", ")))
		}
	}
	if req.Body != nil && req.Body != http.NoBody {
		body, err := io.ReadAll(req.Body)
		if err == nil && len(body) > 0 {
			req.Body = io.NopCloser(bytes.NewReader(body))
			buf.WriteString(fmt.Sprintf("  Body: %s\n", truncateBody(body)))
		}
	}
	fmt.Fprint(d.out, buf.String())
}

func (d *DebugLogger) LogResponse(resp *http.Response, body []byte, duration time.Duration) {
	if d == nil {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	var buf bytes.Buffer
	buf.WriteString(fmt.Sprintf("<<< RESPONSE (%s)\n", duration.Round(time.Millisecond)))
	buf.WriteString(fmt.Sprintf("  Status: %d %s\n", resp.StatusCode, http.StatusText(resp.StatusCode)))
	if len(body) > 0 {
		buf.WriteString(fmt.Sprintf("  Body: %s\n", truncateBody(body)))
	}
	fmt.Fprint(d.out, buf.String())
}

func (d *DebugLogger) LogError(errMsg string, duration time.Duration) {
	if d == nil {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	fmt.Fprintf(d.out, "!!! ERROR (%s)\n  %s\n", duration.Round(time.Millisecond), errMsg)
}

func truncateBody(body []byte) string {
	if len(body) <= maxBodyLogSize {
		return string(body)
	}
	return string(body[:maxBodyLogSize]) + fmt.Sprintf("... (truncated, %d bytes total)", len(body))
}
