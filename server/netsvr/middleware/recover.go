package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"
)

// Recover 攔下 handler 的 panic，記錄 stack 並回 500 JSON。
// http.ErrAbortHandler 照原樣往上拋，讓 net/http 中斷連線。
func Recover(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				if log != nil {
					log.LogAttrs(r.Context(), slog.LevelError, "http.panic",
						slog.Any("panic", rec),
						slog.String("path", r.URL.Path),
						slog.String("req_id", GetReqId(r)),
						slog.String("stack", string(debug.Stack())),
					)
				}
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusInternalServerError)
				_, _ = w.Write([]byte(`{"error":"Internal Server Error"}` + "\n"))
			}()
			next.ServeHTTP(w, r)
		})
	}
}
