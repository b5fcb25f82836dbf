package middleware

import (
	"encoding/json"
	"log"
	"net"
	"net/http"
	"strings"
	"time"
)

type accessLogEntry struct {
	Timestamp    string `json:"ts"`
	Method       string `json:"method"`
	Path         string `json:"path"`
	Route        string `json:"route,omitempty"`
	Status       int    `json:"status"`
	RequestBytes int64  `json:"request_bytes,omitempty"`
	Bytes        int    `json:"bytes"`
	DurationMS   int64  `json:"duration_ms"`
	RequestID    string `json:"request_id,omitempty"`
	RemoteAddr   string `json:"remote_addr,omitempty"`
	UserAgent    string `json:"user_agent,omitempty"`
}

// AccessLog writes one JSON line per request. Successful health checks
// from the CLI and chat client are not logged.
func AccessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := recorderFor(w)

		next.ServeHTTP(rec, r)

		status := rec.Status()
		if r.URL.Path == "/health" && status == http.StatusOK {
			return
		}

		entry := accessLogEntry{
			Timestamp:  start.UTC().Format(time.RFC3339Nano),
			Method:     r.Method,
			Path:       r.URL.Path,
			Route:      routePattern(r),
			Status:     status,
			Bytes:      rec.bytes,
			DurationMS: time.Since(start).Milliseconds(),
			RequestID:  GetRequestID(r.Context()),
			RemoteAddr: clientIP(r),
			UserAgent:  r.UserAgent(),
		}
		if r.ContentLength > 0 {
			entry.RequestBytes = r.ContentLength
		}

		payload, err := json.Marshal(entry)
		if err != nil {
			log.Printf("access_log: %v", err)
			return
		}
		log.Println(string(payload))
	})
}

func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		return strings.TrimSpace(first)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
