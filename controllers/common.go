package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/restaurant-floor/engine"
	"github.com/yeremiapane/restaurant-floor/utils"
)

type CustomError struct {
	Message string
}

func (e *CustomError) Error() string {
	return e.Message
}

// ErrNoPermission dipakai handler yang menolak role tertentu.
var ErrNoPermission = &CustomError{"You do not have permission"}

// respondEngineError memetakan taksonomi error engine ke status HTTP.
// InvalidState dan Conflict dua-duanya 409: client diminta refresh state,
// bukan retry buta. Unavailable 503 dan aman di-retry dengan backoff.
func respondEngineError(c *gin.Context, err error) {
	var code int
	switch engine.CodeOf(err) {
	case engine.CodeInvalidInput:
		code = http.StatusBadRequest
	case engine.CodeNotFound:
		code = http.StatusNotFound
	case engine.CodeInvalidState, engine.CodeConflict:
		code = http.StatusConflict
	case engine.CodeUnavailable:
		code = http.StatusServiceUnavailable
	default:
		code = http.StatusInternalServerError
	}
	utils.RespondError(c, code, err)
}
