package models

import "time"

// Message 站内消息。系统提醒的 SenderID 为空且 IsSystem 为 true
type Message struct {
	ID        int64     `json:"message_id" db:"message_id"`
	SenderID  *int64    `json:"sender_id,omitempty" db:"sender_id"`
	Receiver  int64     `json:"receiver_id" db:"receiver_id"`
	Content   string    `json:"content" db:"content"`
	Timestamp time.Time `json:"timestamp" db:"timestamp"`
	IsSystem  bool      `json:"is_system_message" db:"is_system_message"`
}

// MessageSendRequest 用户发送消息请求体
type MessageSendRequest struct {
	ReceiverID int64  `json:"receiver_id"`
	Content    string `json:"content"`
}
