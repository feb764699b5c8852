package entity

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

// Границы оценок отзыва
const (
	MinReviewRating = 1
	MaxReviewRating = 10
)

// ReviewCategories - категории, по которым считается средняя оценка в статистике
var ReviewCategories = []string{"user_interface", "performance", "problem_quality", "judging_accuracy"}

// CategoryRatings - оценки по категориям, хранятся в JSONB
type CategoryRatings map[string]int

// Scan реализует интерфейс sql.Scanner для CategoryRatings
func (c *CategoryRatings) Scan(value interface{}) error {
	if value == nil {
		*c = CategoryRatings{}
		return nil
	}

	bytes, ok := value.([]byte)
	if !ok {
		return errors.New("failed to unmarshal JSONB value: expected []byte")
	}
	if len(bytes) == 0 {
		*c = CategoryRatings{}
		return nil
	}

	return json.Unmarshal(bytes, c)
}

// Value реализует интерфейс driver.Valuer для CategoryRatings
func (c CategoryRatings) Value() (driver.Value, error) {
	if len(c) == 0 {
		return []byte("{}"), nil
	}
	return json.Marshal(c)
}

// Review - отзыв участника о контесте, не более одного на пару (контест, пользователь).
// Для рейтинга важен только сам факт существования отзыва.
type Review struct {
	ID                    uint            `gorm:"primaryKey" json:"id"`
	ContestID             uint            `gorm:"not null;uniqueIndex:idx_review_contest_user" json:"contest_id"`
	UserID                uint            `gorm:"not null;uniqueIndex:idx_review_contest_user" json:"user_id"`
	Rating                int             `gorm:"not null" json:"rating"`
	CategoryRatings       CategoryRatings `gorm:"type:jsonb;not null" json:"category_ratings"`
	ReviewText            string          `gorm:"type:text;not null" json:"review_text"`
	HadTechnicalIssues    bool            `gorm:"not null;default:false" json:"had_technical_issues"`
	TechnicalIssuesDetail string          `gorm:"type:text;not null;default:''" json:"technical_issues_detail"`
	IPAddress             string          `gorm:"size:45;not null;default:''" json:"-"`
	CreatedAt             time.Time       `json:"submitted_at"`
	UpdatedAt             time.Time       `json:"updated_at"`

	User *User `gorm:"foreignKey:UserID" json:"-"`
}

// TableName определяет имя таблицы для GORM
func (Review) TableName() string {
	return "contest_reviews"
}

// IsValidRating проверяет границы оценки
func IsValidRating(rating int) bool {
	return rating >= MinReviewRating && rating <= MaxReviewRating
}

// AverageCategoryRating возвращает среднее по всем заполненным категориям
func (r *Review) AverageCategoryRating() float64 {
	if len(r.CategoryRatings) == 0 {
		return 0
	}
	sum := 0
	for _, v := range r.CategoryRatings {
		sum += v
	}
	return float64(sum) / float64(len(r.CategoryRatings))
}
