package models

import (
	"fmt"
	"time"
)

// DateLayout 预订日期统一使用 YYYY-MM-DD 格式
const DateLayout = "2006-01-02"

// Kind 可预订实体类型（资源/场地/活动）
type Kind string

const (
	KindResource Kind = "resource"
	KindSpace    Kind = "space"
	KindEvent    Kind = "event"
)

// AllKinds 扫描时按固定顺序遍历三种类型
var AllKinds = []Kind{KindResource, KindSpace, KindEvent}

// ParseKind 解析URL中的实体类型参数
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case KindResource, KindSpace, KindEvent:
		return Kind(s), nil
	default:
		return "", fmt.Errorf("unknown entity kind: %q", s)
	}
}

// Label 提醒文案中的类型标签
// 原文案：resource booking / space booking / event
func (k Kind) Label() string {
	switch k {
	case KindResource:
		return "resource booking"
	case KindSpace:
		return "space booking"
	default:
		return "event"
	}
}

// ValidDate 校验日期字符串格式
func ValidDate(s string) bool {
	_, err := time.Parse(DateLayout, s)
	return err == nil
}

// Resource 可借用的物品资源
type Resource struct {
	ID           int64  `json:"resource_id" db:"resource_id"`
	UserID       int64  `json:"user_id" db:"user_id"`
	Title        string `json:"title" db:"title"`
	Description  string `json:"description,omitempty" db:"description"`
	Category     string `json:"category,omitempty" db:"category"`
	Availability string `json:"availability" db:"availability"` // 可用日期 YYYY-MM-DD
	DatePosted   string `json:"date_posted" db:"date_posted"`
}

// Space 共享空间
type Space struct {
	ID           int64  `json:"space_id" db:"space_id"`
	Name         string `json:"name" db:"name"`
	Description  string `json:"description,omitempty" db:"description"`
	Location     string `json:"location,omitempty" db:"location"`
	Availability string `json:"availability" db:"availability"` // 可用日期 YYYY-MM-DD
	CreatedBy    int64  `json:"created_by" db:"created_by"`
}

// Event 社区活动
type Event struct {
	ID          int64  `json:"event_id" db:"event_id"`
	Name        string `json:"name" db:"name"`
	Description string `json:"description,omitempty" db:"description"`
	Date        string `json:"date" db:"date"` // 活动日期 YYYY-MM-DD
	Location    string `json:"location" db:"location"`
	HostedBy    int64  `json:"hosted_by" db:"hosted_by"`
}
