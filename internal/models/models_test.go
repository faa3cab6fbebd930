package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMatch_CanonicalOrder(t *testing.T) {
	m := NewMatch(7, 42, 3)
	assert.Equal(t, uint(7), m.MatchRequestID)
	assert.Equal(t, uint(3), m.User1ID)
	assert.Equal(t, uint(42), m.User2ID)

	same := NewMatch(8, 3, 42)
	assert.Equal(t, m.User1ID, same.User1ID)
	assert.Equal(t, m.User2ID, same.User2ID)

	assert.True(t, m.Includes(42))
	assert.True(t, m.Includes(3))
	assert.False(t, m.Includes(5))
	assert.Equal(t, uint(3), m.Other(42))
	assert.Equal(t, uint(42), m.Other(3))
}

func TestMatchRequestStatus_Terminal(t *testing.T) {
	assert.False(t, MatchRequestPending.Terminal())
	assert.True(t, MatchRequestAccepted.Terminal())
	assert.True(t, MatchRequestDeclined.Terminal())
}

func TestResponseType_Valid(t *testing.T) {
	assert.True(t, ResponseTypeFreeText.Valid())
	assert.True(t, ResponseTypeTimedChoice.Valid())
	assert.True(t, ResponseTypeOther.Valid())
	assert.False(t, ResponseType("multiple_choice").Valid())
}

func TestUser_DisplayName(t *testing.T) {
	assert.Equal(t, "Dana", (&User{Name: "Dana"}).DisplayName())
	assert.Equal(t, DefaultDisplayName, (&User{}).DisplayName())
	var nilUser *User
	assert.Equal(t, DefaultDisplayName, nilUser.DisplayName())
}

func TestErrorCode(t *testing.T) {
	wrapped := fmt.Errorf("accept: %w", NewAlreadyResolvedError("Match request", 9))
	assert.Equal(t, CodeAlreadyResolved, ErrorCode(wrapped))
	assert.True(t, IsCode(wrapped, CodeAlreadyResolved))
	assert.Equal(t, "", ErrorCode(errors.New("plain")))

	unavailable := NewUnavailableError(errors.New("dial tcp: timeout"))
	assert.Contains(t, unavailable.Error(), "dial tcp: timeout")
	assert.ErrorContains(t, errors.Unwrap(unavailable), "timeout")
}

func TestRespondWithError_HidesInternalDetails(t *testing.T) {
	app := fiber.New()
	app.Get("/internal", func(c *fiber.Ctx) error {
		return RespondWithError(c, fiber.StatusInternalServerError, NewInternalError(errors.New("pq: secret detail")))
	})
	app.Get("/conflict", func(c *fiber.Ctx) error {
		return RespondWithError(c, fiber.StatusConflict, NewConflictError("Match request already pending"))
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/internal", nil))
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	var body ErrorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, CodeInternal, body.Code)
	assert.Empty(t, body.Details)

	resp2, err := app.Test(httptest.NewRequest(http.MethodGet, "/conflict", nil))
	require.NoError(t, err)
	defer func() { _ = resp2.Body.Close() }()
	var body2 ErrorResponse
	require.NoError(t, json.NewDecoder(resp2.Body).Decode(&body2))
	assert.Equal(t, http.StatusConflict, resp2.StatusCode)
	assert.Equal(t, CodeConflict, body2.Code)
	assert.Equal(t, "Match request already pending", body2.Error)
}
