package database

import "askaway/internal/models"

// PersistentModels returns the authoritative set of schema-managed GORM models.
func PersistentModels() []interface{} {
	return []interface{}{
		&models.User{},
		&models.Question{},
		&models.Answer{},
		&models.Star{},
		&models.QuestionView{},
	}
}
