package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/linguapath-backend/internal/platform/apierr"
)

// RespondErr maps an *apierr.Error to its status and code. Anything else is a
// 500 with fallbackCode and a generic message.
func RespondErr(c *gin.Context, fallbackCode string, err error) {
	var ae *apierr.Error
	if errors.As(err, &ae) && ae.Status != 0 {
		code := ae.Code
		if code == "" {
			code = fallbackCode
		}
		RespondError(c, ae.Status, code, ae)
		return
	}
	_ = c.Error(err)
	RespondError(c, http.StatusInternalServerError, fallbackCode, errors.New("internal error"))
}
