package notify

import "errors"

// ErrEmptyContent 消息内容为空
var ErrEmptyContent = errors.New("message content is empty")
