package middleware

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/sanosuguru/go-event-booking-ledger/internal/api"
	"github.com/sanosuguru/go-event-booking-ledger/internal/pkg/metrics"
)

// PrometheusMiddleware はHTTPメトリクスを収集するミドルウェア
func PrometheusMiddleware(m *metrics.Metrics) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)

			status := c.Response().Status
			if err != nil {
				// エラーハンドラーはこの後に動くため、返されるステータスをここで解決する
				status, _ = api.ResolveError(err)
			}

			// ルート未定義の場合はパスの種類が無制限に増えないようにまとめる
			path := c.Path()
			if path == "" {
				path = "unmatched"
			}

			m.ObserveHTTP(c.Request().Method, path, strconv.Itoa(status), time.Since(start))
			return err
		}
	}
}
