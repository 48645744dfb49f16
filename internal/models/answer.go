package models

import "time"

// DefaultQualityScore marks an answer that has not been scored yet.
const DefaultQualityScore = 50

// Answer is a reply to a question.
type Answer struct {
	ID           string    `gorm:"primaryKey;size:26" json:"_id" bson:"_id"`
	Content      string    `gorm:"type:text;not null" json:"content" bson:"content"`
	UserID       string    `gorm:"not null;index;size:26" json:"user_id" bson:"user_id"`
	QuestionID   string    `gorm:"not null;index;size:26" json:"question_id" bson:"question_id"`
	QualityScore int       `gorm:"not null;default:50" json:"quality_score" bson:"quality_score"`
	StarsCount   int       `gorm:"not null;default:0" json:"stars_count" bson:"stars_count"`
	CreatedAt    time.Time `gorm:"index" json:"created_at" bson:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" bson:"updated_at"`
}

// Star is a user's endorsement of an answer.
type Star struct {
	ID         string    `gorm:"primaryKey;size:26" json:"_id" bson:"_id"`
	UserID     string    `gorm:"not null;uniqueIndex:idx_stars_user_answer;size:26" json:"user_id" bson:"user_id"`
	QuestionID string    `gorm:"not null;index;size:26" json:"question_id" bson:"question_id"`
	AnswerID   string    `gorm:"not null;uniqueIndex:idx_stars_user_answer;size:26" json:"answer_id" bson:"answer_id"`
	CreatedAt  time.Time `json:"created_at" bson:"created_at"`
}
