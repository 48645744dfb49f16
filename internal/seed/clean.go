package seed

import (
	"context"
	"fmt"

	"askaway/internal/database"
	"askaway/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"gorm.io/gorm"
)

// GormCleaner deletes every row, children first. DELETE is used instead of
// TRUNCATE so the same cleaner works on SQLite.
func GormCleaner(db *gorm.DB) Cleaner {
	return func(ctx context.Context) error {
		return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			for _, model := range []interface{}{
				&models.Star{}, &models.QuestionView{}, &models.Answer{}, &models.Question{}, &models.User{},
			} {
				if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(model).Error; err != nil {
					return fmt.Errorf("clear %T: %w", model, err)
				}
			}
			return nil
		})
	}
}

// MongoCleaner empties every collection while keeping its indexes.
func MongoCleaner(db *mongo.Database) Cleaner {
	return func(ctx context.Context) error {
		for _, name := range []string{
			database.CollectionStars, database.CollectionQuestionViews, database.CollectionAnswers,
			database.CollectionQuestions, database.CollectionUsers,
		} {
			if _, err := db.Collection(name).DeleteMany(ctx, bson.D{}); err != nil {
				return fmt.Errorf("clear %s: %w", name, err)
			}
		}
		return nil
	}
}
