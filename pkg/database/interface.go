package database

import (
	"fmt"

	"smart-neighborhood-backend/pkg/models"
)

// DatabaseInterface 定义数据库访问接口
type DatabaseInterface interface {
	// 用户管理
	CreateUser(user *models.User) error
	GetUserByEmail(email string) (*models.User, error)
	GetUserByID(id int64) (*models.User, error)
	UserExists(id int64) (bool, error)

	// 实体目录（资源/场地/活动）
	CreateResource(r *models.Resource) error
	GetResourceByID(id int64) (*models.Resource, error)
	ListResources() ([]models.Resource, error)
	UpdateResourceAvailability(id int64, availability string) error

	CreateSpace(s *models.Space) error
	GetSpaceByID(id int64) (*models.Space, error)
	ListSpaces() ([]models.Space, error)
	UpdateSpaceAvailability(id int64, availability string) error

	CreateEvent(e *models.Event) error
	GetEventByID(id int64) (*models.Event, error)
	ListEvents() ([]models.Event, error)
	UpdateEventDate(id int64, date string) error

	// 目录的统一视图：按类型查存在性/展示名/生效日期/归属者
	EntityExists(kind models.Kind, id int64) (bool, error)
	GetEntityDisplayName(kind models.Kind, id int64) (string, error)
	GetEntityGoverningDate(kind models.Kind, id int64) (string, error)
	GetEntityOwner(kind models.Kind, id int64) (int64, error)

	// 预订管理
	// CreateBooking 的唯一性检查与插入必须是一个原子操作（见 init_db.sql 的唯一约束）
	CreateBooking(userID int64, kind models.Kind, entityID int64, date string) (*models.Booking, error)
	// CancelBooking 仅在预订属于 userID 时删除，否则一律返回 ErrNotFound
	CancelBooking(bookingID, userID int64, kind models.Kind) error
	// ListBookingsForUser 按 booking_id 升序返回，连带实体展示名
	ListBookingsForUser(userID int64, kind models.Kind) ([]models.BookingWithEntity, error)
	// ListDueBookings 返回实体当前生效日期恰好等于 dueDate 的预订
	// 生效日期始终现查实体表，不用预订时留下的 booking_date
	ListDueBookings(kind models.Kind, dueDate string) ([]models.DueBooking, error)

	// 提醒去重标记：同一 (kind, booking, governingDate) 至多发送一次
	// MarkReminderSent 返回 false 表示标记已存在（此前已发过）
	MarkReminderSent(kind models.Kind, bookingID int64, governingDate string) (bool, error)
	// UnmarkReminderSent 发送失败时回收标记，下个周期重试
	UnmarkReminderSent(kind models.Kind, bookingID int64, governingDate string) error

	// 消息
	CreateSystemMessage(receiverID int64, content string) (*models.Message, error)
	CreateUserMessage(senderID, receiverID int64, content string) (*models.Message, error)
	ListMessagesForUser(userID int64) ([]models.Message, error)

	// 健康检查
	HealthCheck() error

	// 关闭连接
	Close() error
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	UseLocalDB  bool
	PostgresDSN string
	Debug       bool
}

// NewDatabase 根据配置选择数据库实现
func NewDatabase(config DatabaseConfig) DatabaseInterface {
	if config.PostgresDSN != "" && !config.UseLocalDB {
		fmt.Printf("🗄️  Using PostgreSQL database\n")
		return NewPostgresDatabase(config.PostgresDSN)
	}

	// 本地内存实现：开发与测试用，进程退出即丢失
	fmt.Printf("🧰  Using in-memory database (development only)\n")
	return NewLocalDatabase()
}
