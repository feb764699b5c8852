package dto

import (
	"fmt"
	"time"

	"github.com/yourusername/contest-rank-api/internal/domain/entity"
	"github.com/yourusername/contest-rank-api/internal/service/ranking"
)

// ReportViolationRequest - отчет клиента о нарушении.
// ProblemID - отображаемый идентификатор задачи ("A", "1001"), пусто для общего нарушения.
type ReportViolationRequest struct {
	ViolationType    string `json:"violation_type" binding:"required,max=50"`
	ViolationDetails string `json:"violation_details" binding:"max=2000"`
	ProblemID        string `json:"problem_id" binding:"max=32"`
}

// ViolationResponse - нарушение в ответе клиенту
type ViolationResponse struct {
	ID               uint      `json:"id"`
	UserID           uint      `json:"user_id"`
	Username         string    `json:"username,omitempty"`
	ViolationType    string    `json:"violation_type"`
	ViolationTitle   string    `json:"violation_title"`
	ViolationDetails string    `json:"violation_details"`
	Timestamp        time.Time `json:"timestamp"`
	ProblemID        *uint     `json:"problem_id"`
	ProblemTitle     *string   `json:"problem_title"`
}

// ViolationListResponse - список нарушений с суммарным штрафом
type ViolationListResponse struct {
	Violations     []ViolationResponse `json:"violations"`
	TotalCount     int                 `json:"total_count"`
	PenaltyMinutes int                 `json:"penalty_minutes"`
}

// ReportViolationResponse - ответ на отчет о нарушении
type ReportViolationResponse struct {
	ViolationID           uint   `json:"violation_id"`
	ProblemViolationCount int64  `json:"problem_violation_count"`
	ProblemPenaltyMinutes int64  `json:"problem_penalty_minutes"`
	Duplicate             bool   `json:"duplicate"`
	Message               string `json:"message"`
}

// NewViolationResponse создает DTO нарушения
func NewViolationResponse(v *entity.Violation) ViolationResponse {
	resp := ViolationResponse{
		ID:               v.ID,
		UserID:           v.UserID,
		ViolationType:    string(v.Kind),
		ViolationTitle:   v.Kind.Title(),
		ViolationDetails: v.Detail,
		Timestamp:        v.CreatedAt,
		ProblemID:        v.ProblemID,
	}
	if v.User != nil {
		resp.Username = v.User.Username
	}
	if v.Problem != nil {
		title := v.Problem.Title
		resp.ProblemTitle = &title
	}
	return resp
}

// NewViolationListResponse создает DTO списка нарушений
func NewViolationListResponse(violations []entity.Violation) *ViolationListResponse {
	items := make([]ViolationResponse, len(violations))
	for i := range violations {
		items[i] = NewViolationResponse(&violations[i])
	}
	return &ViolationListResponse{
		Violations:     items,
		TotalCount:     len(items),
		PenaltyMinutes: len(items) * ranking.PenaltyMinutesPerViolation,
	}
}

// NewReportViolationResponse добавляет к результату сообщение для клиента
func NewReportViolationResponse(violationID uint, count, minutes int64, duplicate bool) *ReportViolationResponse {
	message := fmt.Sprintf("Violation recorded. Problem penalty: %d minutes", minutes)
	if duplicate {
		message = fmt.Sprintf("Duplicate violation ignored. Problem penalty: %d minutes", minutes)
	}
	return &ReportViolationResponse{
		ViolationID:           violationID,
		ProblemViolationCount: count,
		ProblemPenaltyMinutes: minutes,
		Duplicate:             duplicate,
		Message:               message,
	}
}
