package database

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"smart-neighborhood-backend/pkg/models"

	"github.com/lib/pq"
)

// PostgresDatabase PostgreSQL数据库实现
type PostgresDatabase struct {
	db *sql.DB
}

// NewPostgresDatabase 创建PostgreSQL数据库实例
func NewPostgresDatabase(dsn string) DatabaseInterface {
	// Sanitize DSN to avoid stray CR/LF from env values
	dsn = strings.TrimSpace(dsn)
	strategies := []string{
		addConnectionParams(dsn, "connect_timeout=10"),
		addConnectionParams(dsn, "sslmode=require&connect_timeout=10"),
		dsn, // 最后尝试原始DSN
	}

	var db *sql.DB
	var err error

	for i, strategy := range strategies {
		db, err = sql.Open("postgres", strategy)
		if err != nil {
			fmt.Printf("❌ Strategy %d failed to open: %v\n", i+1, err)
			continue
		}

		// 设置连接池参数
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(2)
		db.SetConnMaxLifetime(5 * time.Minute)

		// 测试连接
		if err = db.Ping(); err != nil {
			fmt.Printf("❌ Strategy %d failed to ping: %v\n", i+1, err)
			db.Close()
			continue
		}

		fmt.Printf("✅ PostgreSQL connection established (strategy %d)\n", i+1)
		return &PostgresDatabase{db: db}
	}

	// 所有策略都失败了
	panic(fmt.Sprintf("Failed to connect to PostgreSQL with all strategies. Last error: %v", err))
}

// addConnectionParams 添加连接参数到DSN
func addConnectionParams(dsn, params string) string {
	if params == "" {
		return dsn
	}

	separator := "?"
	if strings.Contains(dsn, "?") {
		separator = "&"
	}

	return dsn + separator + params
}

// kindTables 三种可预订实体的表/列映射。
// 预订语义完全一致，只有表名和列名不同，统一在这里消化掉
type kindTables struct {
	bookingTable string // 预订表
	entityTable  string // 实体表
	idCol        string // 实体主键列
	nameCol      string // 展示名列
	dateCol      string // 生效日期列
	ownerCol     string // 归属者列
}

func tablesFor(kind models.Kind) kindTables {
	switch kind {
	case models.KindResource:
		return kindTables{"resource_bookings", "resources", "resource_id", "title", "availability", "user_id"}
	case models.KindSpace:
		return kindTables{"space_bookings", "spaces", "space_id", "name", "availability", "created_by"}
	default:
		return kindTables{"event_bookings", "events", "event_id", "name", "date", "hosted_by"}
	}
}

// isPgErr 判断pq错误码
func isPgErr(err error, code string) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code) == code
	}
	return false
}

const (
	pgUniqueViolation = "23505"
	pgFKViolation     = "23503"
)

// ==== 用户 ====

// CreateUser 创建用户
func (db *PostgresDatabase) CreateUser(user *models.User) error {
	query := `
        INSERT INTO users (name, email, password_hash, location, profile_image, created_at)
        VALUES ($1, $2, $3, $4, $5, NOW())
        RETURNING id, created_at
    `
	err := db.db.QueryRow(query, user.Name, user.Email, user.Password, user.Location, user.ProfileImage).
		Scan(&user.ID, &user.CreatedAt)
	if err != nil {
		if isPgErr(err, pgUniqueViolation) {
			return ErrEmailTaken
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetUserByEmail 根据邮箱获取用户
func (db *PostgresDatabase) GetUserByEmail(email string) (*models.User, error) {
	query := `
        SELECT id, name, email, password_hash, COALESCE(location,''), COALESCE(profile_image,''), created_at
        FROM users
        WHERE email = $1
    `
	var u models.User
	err := db.db.QueryRow(query, email).Scan(
		&u.ID, &u.Name, &u.Email, &u.Password, &u.Location, &u.ProfileImage, &u.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}
	return &u, nil
}

// GetUserByID 根据ID获取用户
func (db *PostgresDatabase) GetUserByID(id int64) (*models.User, error) {
	query := `
        SELECT id, name, email, COALESCE(location,''), COALESCE(profile_image,''), created_at
        FROM users
        WHERE id = $1
    `
	var u models.User
	err := db.db.QueryRow(query, id).Scan(
		&u.ID, &u.Name, &u.Email, &u.Location, &u.ProfileImage, &u.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &u, nil
}

// UserExists 检查用户是否存在
func (db *PostgresDatabase) UserExists(id int64) (bool, error) {
	var exists bool
	err := db.db.QueryRow("SELECT EXISTS(SELECT 1 FROM users WHERE id = $1)", id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check user existence: %w", err)
	}
	return exists, nil
}

// ==== 实体目录 ====

// CreateResource 创建资源
func (db *PostgresDatabase) CreateResource(r *models.Resource) error {
	query := `
        INSERT INTO resources (user_id, title, description, category, availability, date_posted)
        VALUES ($1, $2, $3, $4, $5, to_char(NOW(), 'YYYY-MM-DD'))
        RETURNING resource_id, date_posted
    `
	err := db.db.QueryRow(query, r.UserID, r.Title, r.Description, r.Category, r.Availability).
		Scan(&r.ID, &r.DatePosted)
	if err != nil {
		return fmt.Errorf("failed to create resource: %w", err)
	}
	return nil
}

// GetResourceByID 根据ID获取资源
func (db *PostgresDatabase) GetResourceByID(id int64) (*models.Resource, error) {
	query := `
        SELECT resource_id, user_id, title, COALESCE(description,''), COALESCE(category,''), availability, date_posted
        FROM resources
        WHERE resource_id = $1
    `
	var r models.Resource
	err := db.db.QueryRow(query, id).Scan(
		&r.ID, &r.UserID, &r.Title, &r.Description, &r.Category, &r.Availability, &r.DatePosted,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get resource: %w", err)
	}
	return &r, nil
}

// ListResources 列出全部资源
func (db *PostgresDatabase) ListResources() ([]models.Resource, error) {
	query := `
        SELECT resource_id, user_id, title, COALESCE(description,''), COALESCE(category,''), availability, date_posted
        FROM resources
        ORDER BY resource_id ASC
    `
	rows, err := db.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to list resources: %w", err)
	}
	defer rows.Close()

	resources := []models.Resource{}
	for rows.Next() {
		var r models.Resource
		if err := rows.Scan(&r.ID, &r.UserID, &r.Title, &r.Description, &r.Category, &r.Availability, &r.DatePosted); err != nil {
			return nil, fmt.Errorf("failed to scan resource: %w", err)
		}
		resources = append(resources, r)
	}
	return resources, rows.Err()
}

// UpdateResourceAvailability 更新资源可用日期
func (db *PostgresDatabase) UpdateResourceAvailability(id int64, availability string) error {
	result, err := db.db.Exec("UPDATE resources SET availability = $1 WHERE resource_id = $2", availability, id)
	if err != nil {
		return fmt.Errorf("failed to update resource availability: %w", err)
	}
	return requireRowAffected(result)
}

// CreateSpace 创建共享空间
func (db *PostgresDatabase) CreateSpace(s *models.Space) error {
	query := `
        INSERT INTO spaces (name, description, location, availability, created_by)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING space_id
    `
	err := db.db.QueryRow(query, s.Name, s.Description, s.Location, s.Availability, s.CreatedBy).Scan(&s.ID)
	if err != nil {
		return fmt.Errorf("failed to create space: %w", err)
	}
	return nil
}

// GetSpaceByID 根据ID获取空间
func (db *PostgresDatabase) GetSpaceByID(id int64) (*models.Space, error) {
	query := `
        SELECT space_id, name, COALESCE(description,''), COALESCE(location,''), availability, created_by
        FROM spaces
        WHERE space_id = $1
    `
	var s models.Space
	err := db.db.QueryRow(query, id).Scan(&s.ID, &s.Name, &s.Description, &s.Location, &s.Availability, &s.CreatedBy)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get space: %w", err)
	}
	return &s, nil
}

// ListSpaces 列出全部空间
func (db *PostgresDatabase) ListSpaces() ([]models.Space, error) {
	query := `
        SELECT space_id, name, COALESCE(description,''), COALESCE(location,''), availability, created_by
        FROM spaces
        ORDER BY space_id ASC
    `
	rows, err := db.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to list spaces: %w", err)
	}
	defer rows.Close()

	spaces := []models.Space{}
	for rows.Next() {
		var s models.Space
		if err := rows.Scan(&s.ID, &s.Name, &s.Description, &s.Location, &s.Availability, &s.CreatedBy); err != nil {
			return nil, fmt.Errorf("failed to scan space: %w", err)
		}
		spaces = append(spaces, s)
	}
	return spaces, rows.Err()
}

// UpdateSpaceAvailability 更新空间可用日期
func (db *PostgresDatabase) UpdateSpaceAvailability(id int64, availability string) error {
	result, err := db.db.Exec("UPDATE spaces SET availability = $1 WHERE space_id = $2", availability, id)
	if err != nil {
		return fmt.Errorf("failed to update space availability: %w", err)
	}
	return requireRowAffected(result)
}

// CreateEvent 创建活动
func (db *PostgresDatabase) CreateEvent(e *models.Event) error {
	query := `
        INSERT INTO events (name, description, date, location, hosted_by)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING event_id
    `
	err := db.db.QueryRow(query, e.Name, e.Description, e.Date, e.Location, e.HostedBy).Scan(&e.ID)
	if err != nil {
		return fmt.Errorf("failed to create event: %w", err)
	}
	return nil
}

// GetEventByID 根据ID获取活动
func (db *PostgresDatabase) GetEventByID(id int64) (*models.Event, error) {
	query := `
        SELECT event_id, name, COALESCE(description,''), date, location, hosted_by
        FROM events
        WHERE event_id = $1
    `
	var e models.Event
	err := db.db.QueryRow(query, id).Scan(&e.ID, &e.Name, &e.Description, &e.Date, &e.Location, &e.HostedBy)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get event: %w", err)
	}
	return &e, nil
}

// ListEvents 列出全部活动
func (db *PostgresDatabase) ListEvents() ([]models.Event, error) {
	query := `
        SELECT event_id, name, COALESCE(description,''), date, location, hosted_by
        FROM events
        ORDER BY event_id ASC
    `
	rows, err := db.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	defer rows.Close()

	events := []models.Event{}
	for rows.Next() {
		var e models.Event
		if err := rows.Scan(&e.ID, &e.Name, &e.Description, &e.Date, &e.Location, &e.HostedBy); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// UpdateEventDate 更新活动日期
func (db *PostgresDatabase) UpdateEventDate(id int64, date string) error {
	result, err := db.db.Exec("UPDATE events SET date = $1 WHERE event_id = $2", date, id)
	if err != nil {
		return fmt.Errorf("failed to update event date: %w", err)
	}
	return requireRowAffected(result)
}

// requireRowAffected 将零行更新/删除归一为 ErrNotFound
func requireRowAffected(result sql.Result) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// ==== 目录统一视图 ====

// EntityExists 检查实体是否存在
func (db *PostgresDatabase) EntityExists(kind models.Kind, id int64) (bool, error) {
	t := tablesFor(kind)
	query := fmt.Sprintf("SELECT EXISTS(SELECT 1 FROM %s WHERE %s = $1)", t.entityTable, t.idCol)
	var exists bool
	if err := db.db.QueryRow(query, id).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check entity existence: %w", err)
	}
	return exists, nil
}

// GetEntityDisplayName 获取实体展示名
func (db *PostgresDatabase) GetEntityDisplayName(kind models.Kind, id int64) (string, error) {
	t := tablesFor(kind)
	query := fmt.Sprintf("SELECT %s FROM %s WHERE %s = $1", t.nameCol, t.entityTable, t.idCol)
	var name string
	if err := db.db.QueryRow(query, id).Scan(&name); err != nil {
		if err == sql.ErrNoRows {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("failed to get entity display name: %w", err)
	}
	return name, nil
}

// GetEntityGoverningDate 获取实体当前生效日期
func (db *PostgresDatabase) GetEntityGoverningDate(kind models.Kind, id int64) (string, error) {
	t := tablesFor(kind)
	query := fmt.Sprintf("SELECT %s FROM %s WHERE %s = $1", t.dateCol, t.entityTable, t.idCol)
	var date string
	if err := db.db.QueryRow(query, id).Scan(&date); err != nil {
		if err == sql.ErrNoRows {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("failed to get entity governing date: %w", err)
	}
	return date, nil
}

// GetEntityOwner 获取实体归属者（发布者/创建者/主办者）
func (db *PostgresDatabase) GetEntityOwner(kind models.Kind, id int64) (int64, error) {
	t := tablesFor(kind)
	query := fmt.Sprintf("SELECT %s FROM %s WHERE %s = $1", t.ownerCol, t.entityTable, t.idCol)
	var owner int64
	if err := db.db.QueryRow(query, id).Scan(&owner); err != nil {
		if err == sql.ErrNoRows {
			return 0, ErrNotFound
		}
		return 0, fmt.Errorf("failed to get entity owner: %w", err)
	}
	return owner, nil
}

// ==== 预订 ====

// CreateBooking 创建预订
// 唯一约束 UNIQUE(user_id, 实体ID) 保证并发下的查重与插入原子性：
// 两个并发请求恰好一个成功、一个得到 ErrDuplicateBooking
func (db *PostgresDatabase) CreateBooking(userID int64, kind models.Kind, entityID int64, date string) (*models.Booking, error) {
	exists, err := db.EntityExists(kind, entityID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrEntityNotFound
	}

	t := tablesFor(kind)
	query := fmt.Sprintf(`
        INSERT INTO %s (user_id, %s, booking_date)
        VALUES ($1, $2, $3)
        RETURNING booking_id
    `, t.bookingTable, t.idCol)

	booking := &models.Booking{UserID: userID, Kind: kind, EntityID: entityID, BookingDate: date}
	if err := db.db.QueryRow(query, userID, entityID, date).Scan(&booking.ID); err != nil {
		if isPgErr(err, pgUniqueViolation) {
			return nil, ErrDuplicateBooking
		}
		if isPgErr(err, pgFKViolation) {
			return nil, ErrEntityNotFound
		}
		return nil, fmt.Errorf("failed to create booking: %w", err)
	}
	return booking, nil
}

// CancelBooking 取消预订。user_id 条件写进 WHERE，
// 非本人取消与记录不存在同样返回 ErrNotFound，不泄露他人预订
func (db *PostgresDatabase) CancelBooking(bookingID, userID int64, kind models.Kind) error {
	t := tablesFor(kind)
	query := fmt.Sprintf("DELETE FROM %s WHERE booking_id = $1 AND user_id = $2", t.bookingTable)
	result, err := db.db.Exec(query, bookingID, userID)
	if err != nil {
		return fmt.Errorf("failed to cancel booking: %w", err)
	}
	return requireRowAffected(result)
}

// ListBookingsForUser 列出用户某一类型的全部预订
func (db *PostgresDatabase) ListBookingsForUser(userID int64, kind models.Kind) ([]models.BookingWithEntity, error) {
	t := tablesFor(kind)
	query := fmt.Sprintf(`
        SELECT b.booking_id, b.user_id, b.%s, b.booking_date, e.%s
        FROM %s b
        JOIN %s e ON b.%s = e.%s
        WHERE b.user_id = $1
        ORDER BY b.booking_id ASC
    `, t.idCol, t.nameCol, t.bookingTable, t.entityTable, t.idCol, t.idCol)

	rows, err := db.db.Query(query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}
	defer rows.Close()

	bookings := []models.BookingWithEntity{}
	for rows.Next() {
		var b models.BookingWithEntity
		b.Kind = kind
		if err := rows.Scan(&b.ID, &b.UserID, &b.EntityID, &b.BookingDate, &b.DisplayName); err != nil {
			return nil, fmt.Errorf("failed to scan booking: %w", err)
		}
		bookings = append(bookings, b)
	}
	return bookings, rows.Err()
}

// ListDueBookings 列出生效日期恰为 dueDate 的预订
// 日期列取自实体表：实体被编辑后，提醒跟着新日期走
func (db *PostgresDatabase) ListDueBookings(kind models.Kind, dueDate string) ([]models.DueBooking, error) {
	t := tablesFor(kind)
	query := fmt.Sprintf(`
        SELECT b.booking_id, b.user_id, b.%s, b.booking_date, e.%s, e.%s
        FROM %s b
        JOIN %s e ON b.%s = e.%s
        WHERE e.%s = $1
        ORDER BY b.booking_id ASC
    `, t.idCol, t.nameCol, t.dateCol, t.bookingTable, t.entityTable, t.idCol, t.idCol, t.dateCol)

	rows, err := db.db.Query(query, dueDate)
	if err != nil {
		return nil, fmt.Errorf("failed to list due bookings: %w", err)
	}
	defer rows.Close()

	due := []models.DueBooking{}
	for rows.Next() {
		var d models.DueBooking
		d.Kind = kind
		if err := rows.Scan(&d.ID, &d.UserID, &d.EntityID, &d.BookingDate, &d.DisplayName, &d.GoverningDate); err != nil {
			return nil, fmt.Errorf("failed to scan due booking: %w", err)
		}
		due = append(due, d)
	}
	return due, rows.Err()
}

// ==== 提醒去重标记 ====

// MarkReminderSent 落盘去重标记；已存在返回 false
// ON CONFLICT DO NOTHING 使并发扫描下同一标记只会写入一次
func (db *PostgresDatabase) MarkReminderSent(kind models.Kind, bookingID int64, governingDate string) (bool, error) {
	query := `
        INSERT INTO booking_reminders (kind, booking_id, governing_date, sent_at)
        VALUES ($1, $2, $3, NOW())
        ON CONFLICT (kind, booking_id, governing_date) DO NOTHING
    `
	result, err := db.db.Exec(query, string(kind), bookingID, governingDate)
	if err != nil {
		return false, fmt.Errorf("failed to mark reminder sent: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read rows affected: %w", err)
	}
	return n > 0, nil
}

// UnmarkReminderSent 删除去重标记（消息发送失败时回滚）
func (db *PostgresDatabase) UnmarkReminderSent(kind models.Kind, bookingID int64, governingDate string) error {
	query := "DELETE FROM booking_reminders WHERE kind = $1 AND booking_id = $2 AND governing_date = $3"
	if _, err := db.db.Exec(query, string(kind), bookingID, governingDate); err != nil {
		return fmt.Errorf("failed to unmark reminder: %w", err)
	}
	return nil
}

// ==== 消息 ====

// CreateSystemMessage 写入系统提醒消息（无发送者）
func (db *PostgresDatabase) CreateSystemMessage(receiverID int64, content string) (*models.Message, error) {
	query := `
        INSERT INTO messages (sender_id, receiver_id, content, timestamp, is_system_message)
        VALUES (NULL, $1, $2, NOW(), TRUE)
        RETURNING message_id, timestamp
    `
	msg := &models.Message{Receiver: receiverID, Content: content, IsSystem: true}
	if err := db.db.QueryRow(query, receiverID, content).Scan(&msg.ID, &msg.Timestamp); err != nil {
		if isPgErr(err, pgFKViolation) {
			return nil, ErrReceiverNotFound
		}
		return nil, fmt.Errorf("failed to create system message: %w", err)
	}
	return msg, nil
}

// CreateUserMessage 写入用户间消息
func (db *PostgresDatabase) CreateUserMessage(senderID, receiverID int64, content string) (*models.Message, error) {
	query := `
        INSERT INTO messages (sender_id, receiver_id, content, timestamp, is_system_message)
        VALUES ($1, $2, $3, NOW(), FALSE)
        RETURNING message_id, timestamp
    `
	msg := &models.Message{SenderID: &senderID, Receiver: receiverID, Content: content}
	if err := db.db.QueryRow(query, senderID, receiverID, content).Scan(&msg.ID, &msg.Timestamp); err != nil {
		if isPgErr(err, pgFKViolation) {
			return nil, ErrReceiverNotFound
		}
		return nil, fmt.Errorf("failed to create message: %w", err)
	}
	return msg, nil
}

// ListMessagesForUser 收件箱：按时间倒序返回收到的消息
func (db *PostgresDatabase) ListMessagesForUser(userID int64) ([]models.Message, error) {
	query := `
        SELECT message_id, sender_id, receiver_id, content, timestamp, is_system_message
        FROM messages
        WHERE receiver_id = $1
        ORDER BY timestamp DESC, message_id DESC
    `
	rows, err := db.db.Query(query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	defer rows.Close()

	messages := []models.Message{}
	for rows.Next() {
		var m models.Message
		var sender sql.NullInt64
		if err := rows.Scan(&m.ID, &sender, &m.Receiver, &m.Content, &m.Timestamp, &m.IsSystem); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		if sender.Valid {
			s := sender.Int64
			m.SenderID = &s
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

// HealthCheck 健康检查
func (db *PostgresDatabase) HealthCheck() error {
	return db.db.Ping()
}

// Close 关闭连接
func (db *PostgresDatabase) Close() error {
	return db.db.Close()
}
