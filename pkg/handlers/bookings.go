package handlers

import (
	"errors"
	"net/http"

	"smart-neighborhood-backend/pkg/config"
	"smart-neighborhood-backend/pkg/database"
	"smart-neighborhood-backend/pkg/middleware"
	"smart-neighborhood-backend/pkg/models"
	"smart-neighborhood-backend/pkg/utils"

	chiRoute "github.com/go-chi/chi/v5"
)

// BookingsHandler 预订处理器
type BookingsHandler struct {
	config *config.Config
	db     database.DatabaseInterface
}

// NewBookingsHandler 创建预订处理器
func NewBookingsHandler(cfg *config.Config, db database.DatabaseInterface) *BookingsHandler {
	return &BookingsHandler{config: cfg, db: db}
}

// parseKindParam 解析URL里的实体类型参数
func parseKindParam(w http.ResponseWriter, r *http.Request) (models.Kind, bool) {
	kind, err := models.ParseKind(chiRoute.URLParam(r, "kind"))
	if err != nil {
		utils.WriteBadRequestResponse(w, "Invalid entity kind, expected resource|space|event")
		return "", false
	}
	return kind, true
}

// CreateBooking 创建预订
// POST /api/bookings/{kind}/{entityID}
func (h *BookingsHandler) CreateBooking(w http.ResponseWriter, r *http.Request) {
	user, err := middleware.RequireUser(r.Context())
	if err != nil {
		utils.WriteUnauthorizedResponse(w, "Authentication required")
		return
	}

	kind, ok := parseKindParam(w, r)
	if !ok {
		return
	}
	entityID, err := utils.ParseInt64Param(chiRoute.URLParam(r, "entityID"))
	if err != nil {
		utils.WriteBadRequestResponse(w, "Invalid entity id")
		return
	}

	// 请求体可选；date 缺省时取实体当前生效日期
	var req models.BookingCreateRequest
	if r.ContentLength > 0 {
		if err := utils.ParseJSONBody(r, &req); err != nil {
			utils.WriteBadRequestResponse(w, "Invalid request body")
			return
		}
	}

	date := req.Date
	if date == "" {
		date, err = h.db.GetEntityGoverningDate(kind, entityID)
		if err != nil {
			if errors.Is(err, database.ErrNotFound) {
				utils.WriteNotFoundResponse(w, "Entity not found")
				return
			}
			utils.WriteInternalServerErrorResponse(w, err.Error())
			return
		}
	}
	if !models.ValidDate(date) {
		utils.WriteValidationErrorResponse(w, "Invalid date, expected YYYY-MM-DD", date)
		return
	}

	booking, err := h.db.CreateBooking(user.ID, kind, entityID, date)
	if err != nil {
		switch {
		case errors.Is(err, database.ErrEntityNotFound):
			utils.WriteNotFoundResponse(w, "Entity not found")
		case errors.Is(err, database.ErrDuplicateBooking):
			// 重复预订是正常业务结果，以409返回而不是报错
			utils.WriteConflictResponse(w, "You have already booked this "+string(kind))
		default:
			utils.WriteInternalServerErrorResponse(w, "Failed to create booking: "+err.Error())
		}
		return
	}

	utils.WriteCreatedResponse(w, map[string]interface{}{"booking": booking})
}

// CancelBooking 取消预订
// DELETE /api/bookings/{kind}/{bookingID}
func (h *BookingsHandler) CancelBooking(w http.ResponseWriter, r *http.Request) {
	user, err := middleware.RequireUser(r.Context())
	if err != nil {
		utils.WriteUnauthorizedResponse(w, "Authentication required")
		return
	}

	kind, ok := parseKindParam(w, r)
	if !ok {
		return
	}
	bookingID, err := utils.ParseInt64Param(chiRoute.URLParam(r, "bookingID"))
	if err != nil {
		utils.WriteBadRequestResponse(w, "Invalid booking id")
		return
	}

	if err := h.db.CancelBooking(bookingID, user.ID, kind); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			// 不存在与不属于当前用户统一返回404，不泄露他人预订
			utils.WriteNotFoundResponse(w, "Booking not found")
			return
		}
		utils.WriteInternalServerErrorResponse(w, "Failed to cancel booking: "+err.Error())
		return
	}

	utils.WriteSuccessResponse(w, map[string]interface{}{"deleted": true})
}

// ListBookings 列出当前用户的全部预订（三种类型分组）
// GET /api/bookings
func (h *BookingsHandler) ListBookings(w http.ResponseWriter, r *http.Request) {
	user, err := middleware.RequireUser(r.Context())
	if err != nil {
		utils.WriteUnauthorizedResponse(w, "Authentication required")
		return
	}

	result := map[string][]models.BookingWithEntity{}
	for _, kind := range models.AllKinds {
		bookings, err := h.db.ListBookingsForUser(user.ID, kind)
		if err != nil {
			utils.WriteInternalServerErrorResponse(w, "Failed to list bookings: "+err.Error())
			return
		}
		result[string(kind)+"_bookings"] = bookings
	}

	utils.WriteSuccessResponse(w, result)
}
