// README: Base handler utilities (JSON helpers, error mapping).
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"tabi/internal/modules/aiusage"
	"tabi/internal/modules/dialogue"
	"tabi/internal/service"
)

// apologyText is shown to the user whenever a turn fails.
const apologyText = "申し訳ありません。エラーが発生しました。"

type errorResponse struct {
	Error    string `json:"error"`
	Code     string `json:"code"`
	Response string `json:"response"`
}

func writeJSON(c *gin.Context, status int, v any) {
	c.JSON(status, v)
}

func writeError(c *gin.Context, status int, code, msg string) {
	writeJSON(c, status, errorResponse{Error: msg, Code: code, Response: apologyText})
}

// writeTurnError maps a failed turn to a status and stable error code.
func writeTurnError(c *gin.Context, err error) {
	_ = c.Error(err)
	switch {
	case errors.Is(err, dialogue.ErrEmptyMessage):
		writeError(c, http.StatusBadRequest, "empty_message", err.Error())
	case errors.Is(err, aiusage.ErrQuotaExhausted):
		writeError(c, http.StatusTooManyRequests, "quota_exhausted", err.Error())
	case errors.Is(err, service.ErrCompletionFailed):
		writeError(c, http.StatusBadGateway, "completion_failed", "completion service unavailable")
	default:
		writeError(c, http.StatusInternalServerError, "internal", "internal error")
	}
}
