package models

import (
	"errors"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewID(t *testing.T) {
	a, b := NewID(), NewID()
	assert.Len(t, a, 26)
	assert.NotEqual(t, a, b)
	assert.Less(t, a, b, "ids are monotonic")
	assert.True(t, ValidID(a))
	assert.False(t, ValidID("not-an-id"))
	assert.False(t, ValidID(""))
}

func TestUserDisplayName(t *testing.T) {
	assert.Equal(t, "Alice Smith", (&User{FirstName: "Alice", LastName: "Smith"}).DisplayName())
	assert.Equal(t, "Alice", (&User{FirstName: "Alice"}).DisplayName())
	assert.Equal(t, "alice", (&User{Username: "alice"}).DisplayName())
}

func TestPreviousDay(t *testing.T) {
	now := time.Date(2024, 3, 10, 15, 4, 5, 0, time.FixedZone("X", 5*3600))
	w := PreviousDay(now)
	assert.Equal(t, time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC), w.Start)
	assert.Equal(t, time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC), w.End)
}

func TestAppErrorHelpers(t *testing.T) {
	cause := errors.New("boom")
	err := NewInternalError(cause)
	assert.ErrorIs(t, err, cause)
	assert.True(t, IsCode(err, CodeInternal))
	assert.False(t, IsCode(cause, CodeInternal))
	assert.Equal(t, "Question not found", NewNotFoundMessage("Question not found").Error())
}

func TestRespondWithError(t *testing.T) {
	app := fiber.New()
	app.Get("/internal", func(c *fiber.Ctx) error {
		return RespondWithError(c, fiber.StatusInternalServerError, NewInternalError(errors.New("db exploded")))
	})
	app.Get("/validation", func(c *fiber.Ctx) error {
		return RespondWithError(c, fiber.StatusBadRequest, NewValidationError("bad input"))
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/internal", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.NotContains(t, string(body), "db exploded")

	resp, err = app.Test(httptest.NewRequest("GET", "/validation", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	body, err = io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.JSONEq(t, `{"message":"bad input","code":"VALIDATION_ERROR"}`, string(body))
}
