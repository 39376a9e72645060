package middleware

import (
	"net/http"

	"smart-neighborhood-backend/pkg/config"

	"github.com/go-chi/chi/v5/middleware"
)

// Logger 创建请求日志中间件
// HTTP访问日志统一用Chi的默认日志中间件；后台任务日志走 pkg/zlog
func Logger(cfg *config.Config) func(http.Handler) http.Handler {
	return middleware.Logger
}
