package database

import "errors"

// 存储层统一的哨兵错误。调用方用 errors.Is 判断，
// 重复预订等业务性冲突以返回值而不是崩溃的方式暴露
var (
	// ErrNotFound 记录不存在（或不属于当前操作者，二者刻意不区分）
	ErrNotFound = errors.New("record not found")

	// ErrEntityNotFound 被预订的资源/场地/活动不存在
	ErrEntityNotFound = errors.New("entity not found")

	// ErrDuplicateBooking 同一用户对同一实体已有预订
	ErrDuplicateBooking = errors.New("already booked")

	// ErrReceiverNotFound 消息接收者已不存在
	ErrReceiverNotFound = errors.New("receiver not found")

	// ErrEmailTaken 注册邮箱已被占用
	ErrEmailTaken = errors.New("email already registered")
)
