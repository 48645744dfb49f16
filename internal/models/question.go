package models

import "time"

// Question is a question asked by a user. Tags are stored comma separated.
type Question struct {
	ID           string    `gorm:"primaryKey;size:26" json:"_id" bson:"_id"`
	Title        string    `gorm:"not null;size:300" json:"title" bson:"title"`
	Content      string    `gorm:"type:text;not null" json:"content" bson:"content"`
	Tags         string    `json:"tags" bson:"tags"`
	UserID       string    `gorm:"not null;index;size:26" json:"user_id" bson:"user_id"`
	Views        int       `gorm:"not null;default:0" json:"views" bson:"views"`
	AnswersCount int       `gorm:"not null;default:0" json:"answers_count" bson:"answers_count"`
	QualityScore int       `gorm:"not null;default:0" json:"quality_score" bson:"quality_score"`
	AISummary    string    `gorm:"type:text" json:"ai_summary,omitempty" bson:"ai_summary,omitempty"`
	CreatedAt    time.Time `gorm:"index" json:"created_at" bson:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" bson:"updated_at"`
}

// QuestionView records a single read of a question.
type QuestionView struct {
	ID         string    `gorm:"primaryKey;size:26" json:"_id" bson:"_id"`
	QuestionID string    `gorm:"not null;index;size:26" json:"question_id" bson:"question_id"`
	UserID     string    `gorm:"size:26" json:"user_id,omitempty" bson:"user_id,omitempty"`
	CreatedAt  time.Time `gorm:"index" json:"created_at" bson:"created_at"`
}
