package response

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFail_EnvelopeCarriesMessageAndRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestIDMiddleware())
	r.GET("/x", func(c *gin.Context) { Fail(c, http.StatusNotFound, ErrGroupNotFound) })

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set(HeaderRequestID, "not-a-uuid")
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusNotFound, w.Code)
	var body Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.NotNil(t, body.Error)
	assert.Equal(t, ErrGroupNotFound, body.Error.Code)
	assert.Equal(t, GetMessage(ErrGroupNotFound), body.Error.Message)
	assert.NotEqual(t, "not-a-uuid", body.Metadata.RequestID)
	assert.Equal(t, body.Metadata.RequestID, w.Header().Get(HeaderRequestID))
	assert.InDelta(t, time.Now().UnixMilli(), body.Metadata.ServerTimeMs, 5000)
}

func TestGetMessage_Unknown(t *testing.T) {
	assert.Equal(t, "Đã xảy ra lỗi không xác định.", GetMessage("NOPE"))
}
