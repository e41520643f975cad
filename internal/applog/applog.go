// Package applog writes application events as one JSON object per line.
package applog

import (
	"encoding/json"
	"io"
	"log"
	"os"
	"sync"
	"time"
)

var (
	mu     sync.Mutex
	loc    = time.UTC
	logger = log.New(os.Stdout, "", 0)
)

// SetLocation sets the time zone used for the "ts" field.
func SetLocation(l *time.Location) {
	mu.Lock()
	defer mu.Unlock()
	if l != nil {
		loc = l
	}
}

// SetOutput redirects the log stream; tests use it to capture entries.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	logger = log.New(w, "", 0)
}

// Log writes data as a single JSON line. "ts" is always set; "level" defaults to
// "error" when status is "error" and "info" otherwise.
func Log(data map[string]any) {
	mu.Lock()
	l, lg := loc, logger
	mu.Unlock()

	data["ts"] = time.Now().In(l).Format(time.RFC3339Nano)
	if _, ok := data["level"]; !ok {
		if data["status"] == "error" {
			data["level"] = "error"
		} else {
			data["level"] = "info"
		}
	}
	b, err := json.Marshal(data)
	if err != nil {
		lg.Printf("failed to marshal log entry: %v", err)
		return
	}
	lg.Println(string(b))
}

// Info logs an event for a component.
func Info(component, event string, fields map[string]any) {
	entry := map[string]any{"component": component, "event": event, "level": "info"}
	for k, v := range fields {
		entry[k] = v
	}
	Log(entry)
}

// Error logs a failed event with its error message.
func Error(component, event string, err error, fields map[string]any) {
	entry := map[string]any{"component": component, "event": event, "level": "error", "status": "error"}
	for k, v := range fields {
		entry[k] = v
	}
	if err != nil {
		entry["error_message"] = err.Error()
	}
	Log(entry)
}
