package entity

import (
	"time"
)

// Типы администраторов
const (
	AdminTypeRegular    = "Regular User"
	AdminTypeAdmin      = "Admin"
	AdminTypeSuperAdmin = "Super Admin"
)

// User представляет участника или администратора судейской системы.
// Аутентификация живет во внешнем сервисе, здесь хранятся только поля,
// нужные для допуска к рейтингу.
type User struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	Username   string    `gorm:"size:50;not null;uniqueIndex" json:"username"`
	RealName   string    `gorm:"size:100;not null;default:''" json:"real_name"`
	AdminType  string    `gorm:"size:20;not null;default:'Regular User'" json:"admin_type"`
	IsDisabled bool      `gorm:"not null;default:false" json:"is_disabled"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// TableName определяет имя таблицы для GORM
func (User) TableName() string {
	return "users"
}

// IsAdmin возвращает true для администраторов любого уровня
func (u *User) IsAdmin() bool {
	return u.AdminType == AdminTypeAdmin || u.AdminType == AdminTypeSuperAdmin
}

// IsSuperAdmin возвращает true только для суперадминистратора
func (u *User) IsSuperAdmin() bool {
	return u.AdminType == AdminTypeSuperAdmin
}

// IsRankEligible сообщает, попадает ли пользователь в рейтинг контеста:
// только обычные, не заблокированные пользователи.
func (u *User) IsRankEligible() bool {
	return u.AdminType == AdminTypeRegular && !u.IsDisabled
}
