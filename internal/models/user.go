package models

import "time"

// User is a registered account.
type User struct {
	ID             string    `gorm:"primaryKey;size:26" json:"_id" bson:"_id"`
	FirstName      string    `gorm:"not null" json:"first_name" bson:"first_name"`
	LastName       string    `json:"last_name" bson:"last_name"`
	Username       string    `gorm:"uniqueIndex;not null;size:30" json:"username" bson:"username"`
	Email          string    `gorm:"uniqueIndex;not null" json:"email" bson:"email"`
	Password       string    `gorm:"not null" json:"-" bson:"password"`
	Interests      string    `json:"interests" bson:"interests"`
	WorkArea       string    `json:"work_area" bson:"work_area"`
	QuestionsCount int       `gorm:"not null;default:0" json:"questions_count" bson:"questions_count"`
	AnswersCount   int       `gorm:"not null;default:0" json:"answers_count" bson:"answers_count"`
	GoogleID       *string   `gorm:"uniqueIndex" json:"-" bson:"google_id,omitempty"`
	CreatedAt      time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt      time.Time `json:"updated_at" bson:"updated_at"`
}

// UserSummary is the compact user shape embedded in login responses.
type UserSummary struct {
	ID        string `json:"_id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// Summary returns the compact representation of u.
func (u *User) Summary() UserSummary {
	return UserSummary{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
	}
}

// DisplayName is "First Last", falling back to the username.
func (u *User) DisplayName() string {
	name := u.FirstName
	if u.LastName != "" {
		if name != "" {
			name += " "
		}
		name += u.LastName
	}
	if name == "" {
		return u.Username
	}
	return name
}
