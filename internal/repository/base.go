// Package repository implements the data access layer for the application.
// Every interface has a GORM implementation (PostgreSQL, SQLite) and a
// MongoDB implementation.
package repository

import (
	"context"
	"errors"
	"strings"

	"askaway/internal/models"
	"askaway/internal/observability"

	"github.com/jackc/pgx/v5/pgconn"
	"go.mongodb.org/mongo-driver/mongo"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"
)

const (
	systemPostgres = "postgresql"
	systemMongo    = "mongodb"

	maxListLimit = 100
)

// Repositories groups the data access objects the services depend on.
type Repositories struct {
	Users     UserRepository
	Questions QuestionRepository
	Answers   AnswerRepository
	Stars     StarRepository
	Stats     StatsRepository
}

// NewGormRepositories wires the SQL implementations.
func NewGormRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		Users:     NewCachedUserRepository(NewUserRepository(db)),
		Questions: NewQuestionRepository(db),
		Answers:   NewAnswerRepository(db),
		Stars:     NewStarRepository(db),
		Stats:     NewStatsRepository(db),
	}
}

// NewMongoRepositories wires the document store implementations.
func NewMongoRepositories(db *mongo.Database) *Repositories {
	return &Repositories{
		Users:     NewCachedUserRepository(NewMongoUserRepository(db)),
		Questions: NewMongoQuestionRepository(db),
		Answers:   NewMongoAnswerRepository(db),
		Stars:     NewMongoStarRepository(db),
		Stats:     NewMongoStatsRepository(db),
	}
}

// isUniqueConstraintError checks if a DB error is a unique constraint violation.
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) || mongo.IsDuplicateKeyError(err) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "23505")
}

// userConflict maps a unique violation on users to the field that collided.
func userConflict(err error) *models.AppError {
	detail := strings.ToLower(err.Error())
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		detail = strings.ToLower(pgErr.ConstraintName + " " + pgErr.Detail)
	}
	switch {
	case strings.Contains(detail, "email"):
		return models.NewConflictError(ErrEmailTaken)
	case strings.Contains(detail, "username"):
		return models.NewConflictError(ErrUsernameTaken)
	default:
		return models.NewConflictError("User already exists")
	}
}

// Conflict messages returned by UserRepository.Create and Update.
const (
	ErrEmailTaken    = "Email already exists"
	ErrUsernameTaken = "Username already exists"
)

func clampLimit(limit, fallback int) int {
	if limit <= 0 {
		return fallback
	}
	if limit > maxListLimit {
		return maxListLimit
	}
	return limit
}

// op starts a span and latency timer for a repository call; the returned
// function records err and closes both.
func op(ctx context.Context, system, method, collection string) (context.Context, func(error)) {
	ctx, span := observability.GetTraceLayer().TraceRepositoryMethod(ctx, system, method, collection)
	done := observability.TrackQuery(method, collection)
	return ctx, func(err error) {
		done()
		endSpan(span, err)
	}
}

func endSpan(span trace.Span, err error) {
	// Not-found is an expected outcome, not a span error.
	if models.IsCode(err, models.CodeNotFound) {
		err = nil
	}
	observability.EndSpan(span, err)
}

// internal logs and wraps an unexpected store error.
func internal(ctx context.Context, logger *observability.RepoLogger, operation string, err error) *models.AppError {
	logger.LogError(ctx, err, operation)
	return models.NewInternalError(err)
}

// escapeLike escapes LIKE wildcards so user input matches literally.
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
