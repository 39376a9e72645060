package handlers

import (
	"errors"
	"net/http"

	"smart-neighborhood-backend/pkg/config"
	"smart-neighborhood-backend/pkg/database"
	"smart-neighborhood-backend/pkg/middleware"
	"smart-neighborhood-backend/pkg/models"
	"smart-neighborhood-backend/pkg/notify"
	"smart-neighborhood-backend/pkg/utils"
)

// MessagesHandler 站内消息处理器
type MessagesHandler struct {
	config  *config.Config
	db      database.DatabaseInterface
	emitter *notify.Emitter
}

// NewMessagesHandler 创建消息处理器
func NewMessagesHandler(cfg *config.Config, db database.DatabaseInterface, emitter *notify.Emitter) *MessagesHandler {
	return &MessagesHandler{config: cfg, db: db, emitter: emitter}
}

// ListInbox 收件箱：系统提醒和用户消息，按时间倒序
// GET /api/messages
func (h *MessagesHandler) ListInbox(w http.ResponseWriter, r *http.Request) {
	user, err := middleware.RequireUser(r.Context())
	if err != nil {
		utils.WriteUnauthorizedResponse(w, "Authentication required")
		return
	}

	messages, err := h.db.ListMessagesForUser(user.ID)
	if err != nil {
		utils.WriteInternalServerErrorResponse(w, "Failed to list messages: "+err.Error())
		return
	}

	utils.WriteSuccessResponse(w, map[string]interface{}{"messages": messages})
}

// SendMessage 发送用户间消息
// POST /api/messages
func (h *MessagesHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	user, err := middleware.RequireUser(r.Context())
	if err != nil {
		utils.WriteUnauthorizedResponse(w, "Authentication required")
		return
	}

	var req models.MessageSendRequest
	if err := utils.ParseJSONBody(r, &req); err != nil {
		utils.WriteBadRequestResponse(w, "Invalid request body")
		return
	}
	if req.ReceiverID == 0 {
		utils.WriteValidationErrorResponse(w, "receiver_id is required", "")
		return
	}

	msg, err := h.emitter.SendUserMessage(user.ID, req.ReceiverID, req.Content)
	if err != nil {
		switch {
		case errors.Is(err, notify.ErrEmptyContent):
			utils.WriteValidationErrorResponse(w, "Message content is required", "")
		case errors.Is(err, database.ErrReceiverNotFound):
			utils.WriteNotFoundResponse(w, "Receiver not found")
		default:
			utils.WriteInternalServerErrorResponse(w, "Failed to send message: "+err.Error())
		}
		return
	}

	utils.WriteCreatedResponse(w, map[string]interface{}{"message": msg})
}
