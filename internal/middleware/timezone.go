package middleware

import (
	"context"
	"net/http"
	"time"

	"go_4_interview_prep/internal/model"
	"go_4_interview_prep/internal/webutil"
)

type locationCtxKey struct{}

// TimezoneMiddleware は X-Timezone ヘッダー (IANA名) からユーザーのタイムゾーンを決める。
// ヘッダーが無ければ fallback を使う
func TimezoneMiddleware(fallback *time.Location) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			loc := fallback
			if name := r.Header.Get("X-Timezone"); name != "" {
				parsed, err := time.LoadLocation(name)
				if err != nil {
					logger := GetLogger(r.Context())
					logger.Warn("Invalid X-Timezone header", "value", name, "error", err)
					webutil.HandleError(w, logger, model.NewAppError("INVALID_TIMEZONE", "タイムゾーンが正しくありません。", "X-Timezone", model.ErrInvalidInput))
					return
				}
				loc = parsed
			}
			next.ServeHTTP(w, r.WithContext(WithLocation(r.Context(), loc)))
		})
	}
}

func WithLocation(ctx context.Context, loc *time.Location) context.Context {
	return context.WithValue(ctx, locationCtxKey{}, loc)
}

func LocationFromContext(ctx context.Context) (*time.Location, bool) {
	loc, ok := ctx.Value(locationCtxKey{}).(*time.Location)
	return loc, ok && loc != nil
}
