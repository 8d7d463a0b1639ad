package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/sanosuguru/go-event-booking-ledger/internal/pkg/health"
)

const healthCheckTimeout = 2 * time.Second

// HealthHandler はヘルスチェックハンドラー
// 接続状態は各ストレージ層の Checker に毎回問い合わせる
type HealthHandler struct {
	checkers []health.Checker
	now      func() time.Time
}

// NewHealthHandler はHealthHandlerを作成する
func NewHealthHandler(checkers ...health.Checker) *HealthHandler {
	return &HealthHandler{checkers: checkers, now: time.Now}
}

// HealthResponse はヘルスチェックのレスポンス
type HealthResponse struct {
	Status     string          `json:"status"`
	Timestamp  string          `json:"timestamp"`
	Components []health.Status `json:"components"`
}

// Check はヘルスチェックを行う
// @Summary ヘルスチェック
// @Description データベースとRedisへの接続状態を確認する
// @Tags health
// @Produce json
// @Success 200 {object} HealthResponse
// @Failure 503 {object} HealthResponse
// @Router /health [get]
func (h *HealthHandler) Check(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), healthCheckTimeout)
	defer cancel()

	healthy, statuses := health.CheckAll(ctx, h.checkers...)
	resp := HealthResponse{
		Status:     "ok",
		Timestamp:  h.now().Format(time.RFC3339),
		Components: statuses,
	}
	status := http.StatusOK
	if !healthy {
		resp.Status = "degraded"
		status = http.StatusServiceUnavailable
	}
	return c.JSON(status, resp)
}
