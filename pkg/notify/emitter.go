package notify

import (
	"strings"

	"smart-neighborhood-backend/pkg/database"
	"smart-neighborhood-backend/pkg/models"
)

// Emitter 通知发送器：把系统消息追加到用户收件箱。
// 只负责追加，不做去重——幂等由调用方（提醒扫描器）保证
type Emitter struct {
	db database.DatabaseInterface
}

// NewEmitter 创建通知发送器
func NewEmitter(db database.DatabaseInterface) *Emitter {
	return &Emitter{db: db}
}

// SendSystemMessage 发送系统消息（无发送者，is_system=true）。
// 接收者已被删除时返回 database.ErrReceiverNotFound
func (e *Emitter) SendSystemMessage(receiverID int64, content string) (*models.Message, error) {
	if strings.TrimSpace(content) == "" {
		return nil, ErrEmptyContent
	}
	return e.db.CreateSystemMessage(receiverID, content)
}

// SendUserMessage 发送用户间消息（消息界面的简单转发）
func (e *Emitter) SendUserMessage(senderID, receiverID int64, content string) (*models.Message, error) {
	if strings.TrimSpace(content) == "" {
		return nil, ErrEmptyContent
	}
	return e.db.CreateUserMessage(senderID, receiverID, content)
}
