package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// AdminHandler は運用向けの管理操作
type AdminHandler struct {
	reconciler ReconcilerInterface
}

func NewAdminHandler(reconciler ReconcilerInterface) *AdminHandler {
	return &AdminHandler{reconciler: reconciler}
}

type ReconcileResponse struct {
	Checked   int  `json:"checked"`
	Corrected int  `json:"corrected"`
	Skipped   bool `json:"skipped"`
}

// Reconcile godoc
// @Summary 在庫を予約台帳から再計算する（管理者）
// @Description 他のインスタンスが実行中の場合は skipped=true を返します
// @Tags admin
// @Produce json
// @Success 200 {object} ReconcileResponse
// @Router /admin/inventory/reconcile [post]
func (h *AdminHandler) Reconcile(c echo.Context) error {
	res, err := h.reconciler.ReconcileInventory(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, ReconcileResponse{
		Checked:   res.Checked,
		Corrected: res.Corrected,
		Skipped:   res.Skipped,
	})
}
