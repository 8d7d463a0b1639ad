package middleware

import (
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"

	"github.com/sanosuguru/go-event-booking-ledger/internal/config"
)

func serveMetrics(cfg config.MetricsConfig, authHeader string) *httptest.ResponseRecorder {
	e := echo.New()
	e.GET("/metrics", func(c echo.Context) error {
		return c.String(http.StatusOK, "metrics")
	}, MetricsBasicAuth(cfg))

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	if authHeader != "" {
		req.Header.Set(echo.HeaderAuthorization, authHeader)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func basic(user, pass string) string {
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(user+":"+pass))
}

func TestMetricsBasicAuth(t *testing.T) {
	enabled := config.MetricsConfig{User: "testuser", Password: "testpass"}

	tests := []struct {
		name       string
		cfg        config.MetricsConfig
		header     string
		wantStatus int
	}{
		{name: "認証設定なしはそのまま通す", cfg: config.MetricsConfig{}, wantStatus: http.StatusOK},
		{name: "ユーザーのみ設定は無効扱い", cfg: config.MetricsConfig{User: "u"}, wantStatus: http.StatusOK},
		{name: "正しい認証情報", cfg: enabled, header: basic("testuser", "testpass"), wantStatus: http.StatusOK},
		{name: "誤った認証情報", cfg: enabled, header: basic("wronguser", "wrongpass"), wantStatus: http.StatusUnauthorized},
		{name: "認証ヘッダーなし", cfg: enabled, wantStatus: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serveMetrics(tt.cfg, tt.header)
			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}
