package http

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"
)

const maxBodyLogSize = 1024

// DebugLogger dumps signup requests and responses. A nil *DebugLogger is a
// valid no-op logger.
type DebugLogger struct {
	out io.Writer
	mu  sync.Mutex
}

func NewDebugLogger(out io.Writer) *DebugLogger {
	return &DebugLogger{out: out}
}

func (d *DebugLogger) LogRequest(participant, method, url string, form map[string]string) {
	if d == nil {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	var buf bytes.Buffer
	buf.WriteString(fmt.Sprintf("\n[%s] >>> REQUEST\n", label(participant)))
	buf.WriteString(fmt.Sprintf("  %s %s\n", method, url))

	if len(form) > 0 {
		keys := make([]string, 0, len(form))
		for k := range form {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		buf.WriteString("  Form:\n")
		for _, k := range keys {
			buf.WriteString(fmt.Sprintf("    %s=%s\n", k, form[k]))
		}
	}
	fmt.Fprint(d.out, buf.String())
}

func (d *DebugLogger) LogResponse(participant string, status int, header http.Header, body []byte, duration time.Duration) {
	if d == nil {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	var buf bytes.Buffer
	buf.WriteString(fmt.Sprintf("[%s] <<< RESPONSE (%s)\n", label(participant), duration.Round(time.Millisecond)))
	buf.WriteString(fmt.Sprintf("  Status: %d %s\n", status, http.StatusText(status)))

	if len(header) > 0 {
		buf.WriteString("  Headers:\n")
		for name, values := range header {
			buf.WriteString(fmt.Sprintf("    %s: %s\n", name, strings.Join(values, ", ")))
		}
	}

	if len(body) > 0 {
		buf.WriteString(fmt.Sprintf("  Body: %s\n", truncateBody(body)))
	}
	fmt.Fprint(d.out, buf.String())
}

func (d *DebugLogger) LogError(participant string, errMsg string, duration time.Duration) {
	if d == nil {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	fmt.Fprintf(d.out, "[%s] !!! ERROR (%s)\n  %s\n",
		label(participant), duration.Round(time.Millisecond), errMsg)
}

func label(participant string) string {
	if participant == "" {
		return "signup"
	}
	return participant
}

func truncateBody(body []byte) string {
	if len(body) <= maxBodyLogSize {
		return string(body)
	}
	return string(body[:maxBodyLogSize]) + fmt.Sprintf("... (truncated, %d bytes total)", len(body))
}
