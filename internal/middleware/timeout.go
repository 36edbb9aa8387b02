package middleware

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/MorseWayne/players_club/internal/resp"
)

// timeoutBody 超时响应体，与统一响应结构一致
func timeoutBody() string {
	b, _ := json.Marshal(resp.Response[any]{Code: resp.CodeTimeout, Message: "Request timeout"})
	return string(b)
}

// Timeout 为请求上下文设置截止时间，超时后返回 503 与 JSON 错误体
func Timeout(d time.Duration) func(http.Handler) http.Handler {
	body := timeoutBody()
	return func(next http.Handler) http.Handler {
		if d <= 0 {
			return next
		}
		th := http.TimeoutHandler(next, d, body)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// 处理器自行设置的 Content-Type 会覆盖该默认值
			w.Header().Set("Content-Type", "application/json; charset=utf-8")
			th.ServeHTTP(w, r)
		})
	}
}
