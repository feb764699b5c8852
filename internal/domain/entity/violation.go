package entity

import (
	"time"
)

// ViolationKind - тип нарушения античита, закрытый список
type ViolationKind string

const (
	ViolationFullscreenExit ViolationKind = "fullscreen_exit"
	ViolationTabSwitch      ViolationKind = "tab_switch"
	ViolationDevTools       ViolationKind = "dev_tools"
	ViolationForbiddenKeys  ViolationKind = "forbidden_keys"
	ViolationContextMenu    ViolationKind = "context_menu"
	ViolationWindowBlur     ViolationKind = "window_blur"
	ViolationPageLeave      ViolationKind = "page_leave"
	ViolationWindowResize   ViolationKind = "window_resize"
)

// DefaultViolationKind используется для неизвестных типов, присланных клиентом
const DefaultViolationKind = ViolationWindowResize

var violationKindTitles = map[ViolationKind]string{
	ViolationFullscreenExit: "Exited Fullscreen",
	ViolationTabSwitch:      "Switched Tab/Window",
	ViolationDevTools:       "Opened Developer Tools",
	ViolationForbiddenKeys:  "Pressed Forbidden Keys",
	ViolationContextMenu:    "Opened Context Menu",
	ViolationWindowBlur:     "Window Lost Focus",
	ViolationPageLeave:      "Attempted to Leave Page",
	ViolationWindowResize:   "Suspicious Window Resize",
}

// IsValid проверяет, входит ли тип в закрытый список
func (k ViolationKind) IsValid() bool {
	_, ok := violationKindTitles[k]
	return ok
}

// Title возвращает человекочитаемое название типа нарушения
func (k ViolationKind) Title() string {
	return violationKindTitles[k]
}

// ParseViolationKind приводит строку клиента к известному типу.
// Неизвестные значения не отклоняются, а заменяются на DefaultViolationKind;
// второй результат сообщает, была ли произведена замена.
func ParseViolationKind(raw string) (ViolationKind, bool) {
	kind := ViolationKind(raw)
	if kind.IsValid() {
		return kind, false
	}
	return DefaultViolationKind, true
}

// Violation - событие античита, присланное клиентом во время контеста.
// После создания не изменяется, удалить может только администратор.
// ProblemID == nil означает общее нарушение, не привязанное к задаче.
type Violation struct {
	ID        uint          `gorm:"primaryKey" json:"id"`
	ContestID uint          `gorm:"not null;index:idx_violation_contest_user" json:"contest_id"`
	UserID    uint          `gorm:"not null;index:idx_violation_contest_user" json:"user_id"`
	ProblemID *uint         `gorm:"index" json:"problem_id"`
	Kind      ViolationKind `gorm:"column:violation_type;size:50;not null" json:"violation_type"`
	Detail    string        `gorm:"column:violation_details;type:text;not null;default:''" json:"violation_details"`
	IPAddress string        `gorm:"size:45;not null;default:''" json:"ip_address"`
	UserAgent string        `gorm:"size:500;not null;default:''" json:"-"`
	CreatedAt time.Time     `gorm:"not null;index" json:"timestamp"`

	Problem *Problem `gorm:"foreignKey:ProblemID" json:"-"`
	User    *User    `gorm:"foreignKey:UserID" json:"-"`
}

// TableName определяет имя таблицы для GORM
func (Violation) TableName() string {
	return "anti_cheat_violations"
}

// IsGeneral сообщает, что нарушение не привязано к задаче
func (v *Violation) IsGeneral() bool {
	return v.ProblemID == nil
}
