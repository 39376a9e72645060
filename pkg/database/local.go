package database

import (
	"sort"
	"sync"
	"time"

	"smart-neighborhood-backend/pkg/models"
)

// LocalDatabase 本地内存数据库实现。
// 行为与PostgreSQL实现保持一致（唯一约束、外键、排序），
// 供开发模式和单元测试使用，不做持久化
type LocalDatabase struct {
	mu sync.Mutex

	users     map[int64]*models.User
	resources map[int64]*models.Resource
	spaces    map[int64]*models.Space
	events    map[int64]*models.Event
	bookings  map[models.Kind]map[int64]*models.Booking
	messages  []models.Message
	reminders map[reminderKey]time.Time

	nextUserID    int64
	nextEntityID  map[models.Kind]int64
	nextBookingID map[models.Kind]int64
	nextMessageID int64
}

// reminderKey 去重标记主键 (kind, booking, governing date)
type reminderKey struct {
	kind          models.Kind
	bookingID     int64
	governingDate string
}

// NewLocalDatabase 创建内存数据库实例
func NewLocalDatabase() DatabaseInterface {
	db := &LocalDatabase{
		users:         make(map[int64]*models.User),
		resources:     make(map[int64]*models.Resource),
		spaces:        make(map[int64]*models.Space),
		events:        make(map[int64]*models.Event),
		bookings:      make(map[models.Kind]map[int64]*models.Booking),
		reminders:     make(map[reminderKey]time.Time),
		nextEntityID:  make(map[models.Kind]int64),
		nextBookingID: make(map[models.Kind]int64),
	}
	for _, kind := range models.AllKinds {
		db.bookings[kind] = make(map[int64]*models.Booking)
		db.nextEntityID[kind] = 1
		db.nextBookingID[kind] = 1
	}
	db.nextUserID = 1
	db.nextMessageID = 1
	return db
}

// ==== 用户 ====

// CreateUser 创建用户
func (db *LocalDatabase) CreateUser(user *models.User) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	for _, u := range db.users {
		if u.Email == user.Email {
			return ErrEmailTaken
		}
	}

	user.ID = db.nextUserID
	db.nextUserID++
	user.CreatedAt = time.Now()

	clone := *user
	db.users[user.ID] = &clone
	return nil
}

// GetUserByEmail 根据邮箱获取用户
func (db *LocalDatabase) GetUserByEmail(email string) (*models.User, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	for _, u := range db.users {
		if u.Email == email {
			clone := *u
			return &clone, nil
		}
	}
	return nil, ErrNotFound
}

// GetUserByID 根据ID获取用户
func (db *LocalDatabase) GetUserByID(id int64) (*models.User, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	u, ok := db.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	clone := *u
	return &clone, nil
}

// UserExists 检查用户是否存在
func (db *LocalDatabase) UserExists(id int64) (bool, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	_, ok := db.users[id]
	return ok, nil
}

// DeleteUser 删除用户（测试接收者消失的场景用）
func (db *LocalDatabase) DeleteUser(id int64) {
	db.mu.Lock()
	defer db.mu.Unlock()

	delete(db.users, id)
}

// ==== 实体目录 ====

// CreateResource 创建资源
func (db *LocalDatabase) CreateResource(r *models.Resource) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	r.ID = db.nextEntityID[models.KindResource]
	db.nextEntityID[models.KindResource]++
	if r.DatePosted == "" {
		r.DatePosted = time.Now().Format(models.DateLayout)
	}
	clone := *r
	db.resources[r.ID] = &clone
	return nil
}

// GetResourceByID 根据ID获取资源
func (db *LocalDatabase) GetResourceByID(id int64) (*models.Resource, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	r, ok := db.resources[id]
	if !ok {
		return nil, ErrNotFound
	}
	clone := *r
	return &clone, nil
}

// ListResources 列出全部资源
func (db *LocalDatabase) ListResources() ([]models.Resource, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	out := []models.Resource{}
	for _, r := range db.resources {
		out = append(out, *r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// UpdateResourceAvailability 更新资源可用日期
func (db *LocalDatabase) UpdateResourceAvailability(id int64, availability string) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	r, ok := db.resources[id]
	if !ok {
		return ErrNotFound
	}
	r.Availability = availability
	return nil
}

// CreateSpace 创建共享空间
func (db *LocalDatabase) CreateSpace(s *models.Space) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	s.ID = db.nextEntityID[models.KindSpace]
	db.nextEntityID[models.KindSpace]++
	clone := *s
	db.spaces[s.ID] = &clone
	return nil
}

// GetSpaceByID 根据ID获取空间
func (db *LocalDatabase) GetSpaceByID(id int64) (*models.Space, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	s, ok := db.spaces[id]
	if !ok {
		return nil, ErrNotFound
	}
	clone := *s
	return &clone, nil
}

// ListSpaces 列出全部空间
func (db *LocalDatabase) ListSpaces() ([]models.Space, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	out := []models.Space{}
	for _, s := range db.spaces {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// UpdateSpaceAvailability 更新空间可用日期
func (db *LocalDatabase) UpdateSpaceAvailability(id int64, availability string) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	s, ok := db.spaces[id]
	if !ok {
		return ErrNotFound
	}
	s.Availability = availability
	return nil
}

// CreateEvent 创建活动
func (db *LocalDatabase) CreateEvent(e *models.Event) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	e.ID = db.nextEntityID[models.KindEvent]
	db.nextEntityID[models.KindEvent]++
	clone := *e
	db.events[e.ID] = &clone
	return nil
}

// GetEventByID 根据ID获取活动
func (db *LocalDatabase) GetEventByID(id int64) (*models.Event, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	e, ok := db.events[id]
	if !ok {
		return nil, ErrNotFound
	}
	clone := *e
	return &clone, nil
}

// ListEvents 列出全部活动
func (db *LocalDatabase) ListEvents() ([]models.Event, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	out := []models.Event{}
	for _, e := range db.events {
		out = append(out, *e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// UpdateEventDate 更新活动日期
func (db *LocalDatabase) UpdateEventDate(id int64, date string) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	e, ok := db.events[id]
	if !ok {
		return ErrNotFound
	}
	e.Date = date
	return nil
}

// ==== 目录统一视图 ====

// entityView 锁内读取实体的 (展示名, 生效日期, 归属者)
func (db *LocalDatabase) entityView(kind models.Kind, id int64) (name, date string, owner int64, ok bool) {
	switch kind {
	case models.KindResource:
		if r, found := db.resources[id]; found {
			return r.Title, r.Availability, r.UserID, true
		}
	case models.KindSpace:
		if s, found := db.spaces[id]; found {
			return s.Name, s.Availability, s.CreatedBy, true
		}
	case models.KindEvent:
		if e, found := db.events[id]; found {
			return e.Name, e.Date, e.HostedBy, true
		}
	}
	return "", "", 0, false
}

// EntityExists 检查实体是否存在
func (db *LocalDatabase) EntityExists(kind models.Kind, id int64) (bool, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	_, _, _, ok := db.entityView(kind, id)
	return ok, nil
}

// GetEntityDisplayName 获取实体展示名
func (db *LocalDatabase) GetEntityDisplayName(kind models.Kind, id int64) (string, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	name, _, _, ok := db.entityView(kind, id)
	if !ok {
		return "", ErrNotFound
	}
	return name, nil
}

// GetEntityGoverningDate 获取实体当前生效日期
func (db *LocalDatabase) GetEntityGoverningDate(kind models.Kind, id int64) (string, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	_, date, _, ok := db.entityView(kind, id)
	if !ok {
		return "", ErrNotFound
	}
	return date, nil
}

// GetEntityOwner 获取实体归属者
func (db *LocalDatabase) GetEntityOwner(kind models.Kind, id int64) (int64, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	_, _, owner, ok := db.entityView(kind, id)
	if !ok {
		return 0, ErrNotFound
	}
	return owner, nil
}

// ==== 预订 ====

// CreateBooking 创建预订。整个检查+插入在同一把锁内完成，
// 与PostgreSQL的唯一约束等价：并发同触发只有一个成功
func (db *LocalDatabase) CreateBooking(userID int64, kind models.Kind, entityID int64, date string) (*models.Booking, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	if _, _, _, ok := db.entityView(kind, entityID); !ok {
		return nil, ErrEntityNotFound
	}

	for _, b := range db.bookings[kind] {
		if b.UserID == userID && b.EntityID == entityID {
			return nil, ErrDuplicateBooking
		}
	}

	booking := &models.Booking{
		ID:          db.nextBookingID[kind],
		UserID:      userID,
		Kind:        kind,
		EntityID:    entityID,
		BookingDate: date,
	}
	db.nextBookingID[kind]++
	db.bookings[kind][booking.ID] = booking

	clone := *booking
	return &clone, nil
}

// CancelBooking 取消预订，非本人与不存在同样返回 ErrNotFound
func (db *LocalDatabase) CancelBooking(bookingID, userID int64, kind models.Kind) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	b, ok := db.bookings[kind][bookingID]
	if !ok || b.UserID != userID {
		return ErrNotFound
	}
	delete(db.bookings[kind], bookingID)
	return nil
}

// ListBookingsForUser 按 booking_id 升序列出用户预订
func (db *LocalDatabase) ListBookingsForUser(userID int64, kind models.Kind) ([]models.BookingWithEntity, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	out := []models.BookingWithEntity{}
	for _, b := range db.bookings[kind] {
		if b.UserID != userID {
			continue
		}
		name, _, _, ok := db.entityView(kind, b.EntityID)
		if !ok {
			continue // 实体已删除的悬挂预订不返回（对应SQL内连接）
		}
		out = append(out, models.BookingWithEntity{Booking: *b, DisplayName: name})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// ListDueBookings 列出生效日期恰为 dueDate 的预订（现查实体）
func (db *LocalDatabase) ListDueBookings(kind models.Kind, dueDate string) ([]models.DueBooking, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	out := []models.DueBooking{}
	for _, b := range db.bookings[kind] {
		name, date, _, ok := db.entityView(kind, b.EntityID)
		if !ok || date != dueDate {
			continue
		}
		out = append(out, models.DueBooking{Booking: *b, DisplayName: name, GoverningDate: date})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// ==== 提醒去重标记 ====

// MarkReminderSent 落去重标记；已存在返回 false
func (db *LocalDatabase) MarkReminderSent(kind models.Kind, bookingID int64, governingDate string) (bool, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	key := reminderKey{kind, bookingID, governingDate}
	if _, exists := db.reminders[key]; exists {
		return false, nil
	}
	db.reminders[key] = time.Now()
	return true, nil
}

// UnmarkReminderSent 删除去重标记
func (db *LocalDatabase) UnmarkReminderSent(kind models.Kind, bookingID int64, governingDate string) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	delete(db.reminders, reminderKey{kind, bookingID, governingDate})
	return nil
}

// ==== 消息 ====

// CreateSystemMessage 写入系统提醒消息
func (db *LocalDatabase) CreateSystemMessage(receiverID int64, content string) (*models.Message, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	if _, ok := db.users[receiverID]; !ok {
		return nil, ErrReceiverNotFound
	}

	msg := models.Message{
		ID:        db.nextMessageID,
		Receiver:  receiverID,
		Content:   content,
		Timestamp: time.Now(),
		IsSystem:  true,
	}
	db.nextMessageID++
	db.messages = append(db.messages, msg)

	clone := msg
	return &clone, nil
}

// CreateUserMessage 写入用户间消息
func (db *LocalDatabase) CreateUserMessage(senderID, receiverID int64, content string) (*models.Message, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	if _, ok := db.users[receiverID]; !ok {
		return nil, ErrReceiverNotFound
	}

	sender := senderID
	msg := models.Message{
		ID:        db.nextMessageID,
		SenderID:  &sender,
		Receiver:  receiverID,
		Content:   content,
		Timestamp: time.Now(),
	}
	db.nextMessageID++
	db.messages = append(db.messages, msg)

	clone := msg
	return &clone, nil
}

// ListMessagesForUser 收件箱：时间倒序
func (db *LocalDatabase) ListMessagesForUser(userID int64) ([]models.Message, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	out := []models.Message{}
	for _, m := range db.messages {
		if m.Receiver == userID {
			out = append(out, m)
		}
	}
	// 同一时间戳按ID倒序，与SQL实现保持一致
	sort.Slice(out, func(i, j int) bool {
		if out[i].Timestamp.Equal(out[j].Timestamp) {
			return out[i].ID > out[j].ID
		}
		return out[i].Timestamp.After(out[j].Timestamp)
	})
	return out, nil
}

// HealthCheck 健康检查
func (db *LocalDatabase) HealthCheck() error {
	return nil
}

// Close 关闭（内存实现为空操作）
func (db *LocalDatabase) Close() error {
	return nil
}
