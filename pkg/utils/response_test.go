package utils

import (
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func record(send func(c *gin.Context)) (*httptest.ResponseRecorder, Response) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	send(c)
	var resp Response
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	return w, resp
}

func TestSendSuccessEnvelope(t *testing.T) {
	w, resp := record(func(c *gin.Context) {
		SendSuccess(c, gin.H{"ok": true})
	})
	assert.Equal(t, 200, w.Code)
	assert.True(t, resp.Success)
	assert.Nil(t, resp.Error)
}

func TestSendUnavailable(t *testing.T) {
	w, resp := record(func(c *gin.Context) {
		SendUnavailable(c, "guide not generated yet")
	})
	assert.Equal(t, 503, w.Code)
	assert.False(t, resp.Success)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeUnavailable, resp.Error.Code)
	assert.Equal(t, "guide not generated yet", resp.Error.Message)
}

func TestSendValidationErrorDetails(t *testing.T) {
	w, resp := record(func(c *gin.Context) {
		SendValidationError(c, "bad payload", "name is required")
	})
	assert.Equal(t, 400, w.Code)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeValidation, resp.Error.Code)
	assert.Equal(t, "name is required", resp.Error.Details)
}
