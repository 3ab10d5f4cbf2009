package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
)

type logCtxKey struct{}

const masked = "[SENSITIVE]"

// ヘッダー名は小文字で引く
var sensitiveHeaders = map[string]bool{
	"authorization": true,
	"cookie":        true,
	"set-cookie":    true,
	"x-api-key":     true,
	"x-csrf-token":  true,
	"x-user-id":     true,
}

// プッシュ購読の鍵はデバッグログの本文にも残さない
var sensitiveFields = map[string]bool{
	"auth":   true,
	"p256dh": true,
}

// captureWriter はステータスと送信バイト数を拾う。body はデバッグ時のみ
type captureWriter struct {
	http.ResponseWriter
	status int
	n      int
	body   *bytes.Buffer
}

func (cw *captureWriter) WriteHeader(status int) {
	cw.status = status
	cw.ResponseWriter.WriteHeader(status)
}

func (cw *captureWriter) Write(b []byte) (int, error) {
	n, err := cw.ResponseWriter.Write(b)
	cw.n += n
	if cw.body != nil {
		cw.body.Write(b[:n])
	}
	return n, err
}

// LoggingMiddleware はリクエストごとに req_id 付きロガーをコンテキストへ入れ、開始と完了を記録する。
// デバッグレベルではヘッダーと本文も出す (機密値はマスク)。
func LoggingMiddleware(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			started := time.Now()
			reqLog := logger.With("req_id", middleware.GetReqID(r.Context()))
			r = r.WithContext(WithLogger(r.Context(), reqLog))

			reqLog.Info("Request started",
				"method", r.Method,
				"path", r.URL.Path,
				"remote_addr", r.RemoteAddr,
			)

			debug := logger.Enabled(r.Context(), slog.LevelDebug)
			var reqBody []byte
			if debug && r.Body != nil {
				reqBody, _ = io.ReadAll(r.Body)
				r.Body = io.NopCloser(bytes.NewReader(reqBody))
			}

			cw := &captureWriter{ResponseWriter: w, status: http.StatusOK}
			if debug {
				cw.body = new(bytes.Buffer)
			}
			next.ServeHTTP(cw, r)

			reqLog.Log(r.Context(), levelForStatus(cw.status), "Request completed",
				"status", cw.status,
				"latency_ms", float64(time.Since(started).Nanoseconds())/1e6,
				"bytes_out", cw.n,
			)
			if !debug {
				return
			}
			reqLog.Debug("Request detail",
				"headers", maskHeaders(r.Header),
				"body", maskBody(reqBody),
			)
			reqLog.Debug("Response detail",
				"status", cw.status,
				"headers", maskHeaders(cw.Header()),
				"body", maskBody(cw.body.Bytes()),
			)
		})
	}
}

// 4xx は Warn、5xx は Error
func levelForStatus(status int) slog.Level {
	switch {
	case status >= http.StatusInternalServerError:
		return slog.LevelError
	case status >= http.StatusBadRequest:
		return slog.LevelWarn
	default:
		return slog.LevelInfo
	}
}

// WithLogger はロガーをコンテキストに格納する。定期ジョブからも使う
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, logCtxKey{}, logger)
}

// GetLogger はコンテキストのロガーを返す。無ければ slog.Default()
func GetLogger(ctx context.Context) *slog.Logger {
	if logger, ok := ctx.Value(logCtxKey{}).(*slog.Logger); ok {
		return logger
	}
	return slog.Default()
}

func maskHeaders(headers http.Header) map[string]string {
	out := make(map[string]string, len(headers))
	for key, values := range headers {
		if sensitiveHeaders[strings.ToLower(key)] {
			out[key] = masked
			continue
		}
		out[key] = strings.Join(values, ", ")
	}
	return out
}

// maskBody は JSON 本文の鍵フィールドを伏せる。JSON でなければそのまま返す
func maskBody(body []byte) string {
	if len(body) == 0 {
		return ""
	}
	var v interface{}
	if err := json.Unmarshal(body, &v); err != nil {
		return string(body)
	}
	if !maskFields(v) {
		return string(body)
	}
	b, err := json.Marshal(v)
	if err != nil {
		return string(body)
	}
	return string(b)
}

func maskFields(v interface{}) bool {
	changed := false
	switch t := v.(type) {
	case map[string]interface{}:
		for k, child := range t {
			if sensitiveFields[strings.ToLower(k)] {
				t[k] = masked
				changed = true
				continue
			}
			if maskFields(child) {
				changed = true
			}
		}
	case []interface{}:
		for _, child := range t {
			if maskFields(child) {
				changed = true
			}
		}
	}
	return changed
}
