package models

// Booking 一条预订记录：某用户对某个实体的一次预约
// booking_date 是创建时写入的快照值；提醒逻辑以实体当前日期为准，不读它
type Booking struct {
	ID          int64  `json:"booking_id" db:"booking_id"`
	UserID      int64  `json:"user_id" db:"user_id"`
	Kind        Kind   `json:"kind" db:"kind"`
	EntityID    int64  `json:"entity_id" db:"entity_id"`
	BookingDate string `json:"booking_date" db:"booking_date"`
}

// BookingWithEntity 预订记录连同实体展示名（列表接口用）
type BookingWithEntity struct {
	Booking
	DisplayName string `json:"display_name"`
}

// DueBooking 到期预订：扫描结果，携带实体当前的生效日期
type DueBooking struct {
	Booking
	DisplayName   string `json:"display_name"`
	GoverningDate string `json:"governing_date"`
}

// BookingCreateRequest 创建预订请求体，date 为空时取实体当前日期
type BookingCreateRequest struct {
	Date string `json:"date"`
}
