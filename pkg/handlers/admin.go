package handlers

import (
	"net/http"
	"time"

	"smart-neighborhood-backend/pkg/config"
	"smart-neighborhood-backend/pkg/middleware"
	"smart-neighborhood-backend/pkg/reminder"
	"smart-neighborhood-backend/pkg/utils"
)

// AdminHandler 运维辅助端点
type AdminHandler struct {
	config  *config.Config
	scanner *reminder.Scanner
}

// NewAdminHandler 创建运维处理器
func NewAdminHandler(cfg *config.Config, scanner *reminder.Scanner) *AdminHandler {
	return &AdminHandler{config: cfg, scanner: scanner}
}

// TriggerReminderScan 手动触发一轮提醒扫描，同步执行并返回统计。
// 扫描本身幂等，和后台定时扫描并发触发也不会重发
// POST /api/admin/reminders/scan
func (h *AdminHandler) TriggerReminderScan(w http.ResponseWriter, r *http.Request) {
	if _, err := middleware.RequireUser(r.Context()); err != nil {
		utils.WriteUnauthorizedResponse(w, "Authentication required")
		return
	}

	summary := h.scanner.Scan(time.Now())
	utils.WriteSuccessResponse(w, map[string]interface{}{"scan": summary})
}
