package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"

	"askaway/internal/models"
	"askaway/internal/repository"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupMockDB creates a GORM *gorm.DB backed by sqlmock for unit tests.
func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	gormDB, err := gorm.Open(postgres.New(postgres.Config{Conn: db}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	return gormDB, mock
}

func TestMapServiceError(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"not found", models.NewNotFoundMessage("Question not found"), fiber.StatusNotFound},
		{"validation", models.NewValidationError("bad"), fiber.StatusBadRequest},
		{"unauthorized", models.NewUnauthorizedError("no"), fiber.StatusUnauthorized},
		{"conflict", models.NewConflictError("dup"), fiber.StatusConflict},
		{"unavailable", &models.AppError{Code: models.CodeUnavailable, Message: "down"}, fiber.StatusServiceUnavailable},
		{"internal", models.NewInternalError(errors.New("boom")), fiber.StatusInternalServerError},
		{"plain error", errors.New("boom"), fiber.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, mapServiceError(tt.err))
		})
	}
}

func TestRespondErrorsHideInternalCause(t *testing.T) {
	t.Parallel()
	cause := errors.New("pq: password authentication failed")

	app := fiber.New()
	app.Get("/service", func(c *fiber.Ctx) error { return respondServiceError(c, cause) })
	app.Get("/legacy", func(c *fiber.Ctx) error { return respondLegacyError(c, cause) })
	app.Get("/validation", func(c *fiber.Ctx) error {
		return respondLegacyError(c, models.NewValidationError("Email already exists"))
	})

	get := func(path string) (int, models.ErrorResponse) {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, path, nil))
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()
		var body models.ErrorResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		return resp.StatusCode, body
	}

	status, body := get("/service")
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, models.CodeInternal, body.Code)
	assert.Empty(t, body.Details)

	status, body = get("/legacy")
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, models.ErrorResponse{Message: MsgServerError}, body)

	status, body = get("/validation")
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Email already exists", body.Message)
}

func TestCurrentUserWithoutAuth(t *testing.T) {
	t.Parallel()
	app := fiber.New()
	app.Get("/me", func(c *fiber.Ctx) error {
		if _, err := currentUser(c); err != nil {
			return nil
		}
		return c.SendStatus(fiber.StatusOK)
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/me", nil))
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestListQuestions_DatabaseFailure(t *testing.T) {
	t.Parallel()
	db, mock := setupMockDB(t)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "questions"`)).
		WillReturnError(errors.New("connection refused"))

	s, err := NewServerWithDeps(testConfig(), Deps{Repos: repository.NewGormRepositories(db)})
	require.NoError(t, err)
	app := fiber.New()
	s.SetupRoutes(app)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/questions", nil))
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	var body models.ErrorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, "Internal server error", body.Message)
	assert.NotContains(t, body.Details, "connection refused")
	assert.NoError(t, mock.ExpectationsWereMet())
}
