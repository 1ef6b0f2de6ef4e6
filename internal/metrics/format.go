package metrics

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/avrhamo/releases-sub000/internal/core"
)

// FormatText writes the final report in human-readable form.
func FormatText(w io.Writer, s Snapshot, result core.RunResult) {
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Datadrill - Run Results")
	fmt.Fprintln(w, "==============================")
	fmt.Fprintln(w, "")
	fmt.Fprintf(w, "Status:         %s\n", result.Status)
	if result.Cause != nil {
		fmt.Fprintf(w, "Cause:          %v\n", result.Cause)
	}
	fmt.Fprintf(w, "Duration:       %v\n", s.Elapsed.Round(time.Millisecond))
	fmt.Fprintf(w, "Dispatched:     %s\n", formatNumber(s.Total))
	if s.Total > 0 {
		fmt.Fprintf(w, "Success Rate:   %.1f%% (%s / %s)\n",
			100-s.ErrorRate, formatNumber(s.Success), formatNumber(s.Total))
	}
	fmt.Fprintf(w, "Items/sec:      %.1f\n", s.Throughput)
	if s.Total > 0 {
		fmt.Fprintln(w, "")
		fmt.Fprintln(w, "Latency:")
		fmt.Fprintf(w, "  Min:    %s\n", FormatDuration(s.LatencyMin))
		fmt.Fprintf(w, "  Avg:    %s\n", FormatDuration(s.LatencyAvg))
		fmt.Fprintf(w, "  P50:    %s\n", FormatDuration(s.LatencyP50))
		fmt.Fprintf(w, "  P95:    %s\n", FormatDuration(s.LatencyP95))
		fmt.Fprintf(w, "  P99:    %s\n", FormatDuration(s.LatencyP99))
		fmt.Fprintf(w, "  Max:    %s\n", FormatDuration(s.LatencyMax))
	}
	if s.LastError != "" {
		fmt.Fprintln(w, "")
		fmt.Fprintf(w, "Last error:     %s\n", s.LastError)
	}
}

// FormatJSON writes the final report as JSON.
func FormatJSON(w io.Writer, s Snapshot, result core.RunResult) {
	output := struct {
		Status     string  `json:"status"`
		Cause      string  `json:"cause,omitempty"`
		Duration   string  `json:"duration"`
		Total      int     `json:"totalDispatched"`
		Success    int     `json:"successCount"`
		Failures   int     `json:"failureCount"`
		ErrorRate  float64 `json:"errorRate"`
		Throughput float64 `json:"itemsPerSec"`
		Latency    struct {
			Min string `json:"min"`
			Avg string `json:"avg"`
			P50 string `json:"p50"`
			P95 string `json:"p95"`
			P99 string `json:"p99"`
			Max string `json:"max"`
		} `json:"latency"`
		LastError string `json:"lastError,omitempty"`
	}{
		Status:     string(result.Status),
		Duration:   s.Elapsed.Round(time.Millisecond).String(),
		Total:      s.Total,
		Success:    s.Success,
		Failures:   s.Failures,
		ErrorRate:  s.ErrorRate,
		Throughput: s.Throughput,
		LastError:  s.LastError,
	}
	if result.Cause != nil {
		output.Cause = result.Cause.Error()
	}
	output.Latency.Min = FormatDuration(s.LatencyMin)
	output.Latency.Avg = FormatDuration(s.LatencyAvg)
	output.Latency.P50 = FormatDuration(s.LatencyP50)
	output.Latency.P95 = FormatDuration(s.LatencyP95)
	output.Latency.P99 = FormatDuration(s.LatencyP99)
	output.Latency.Max = FormatDuration(s.LatencyMax)

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	_ = encoder.Encode(output) // stdout errors are unrecoverable
}

// FormatDuration renders a duration with millisecond-scale precision.
func FormatDuration(d time.Duration) string {
	if d < time.Millisecond {
		return fmt.Sprintf("%.2fms", float64(d.Microseconds())/1000)
	}
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	return fmt.Sprintf("%.2fs", d.Seconds())
}

func formatNumber(n int) string {
	if n < 1000 {
		return fmt.Sprintf("%d", n)
	}
	return fmt.Sprintf("%d,%03d", n/1000, n%1000)
}
