package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/linguapath-backend/internal/http/response"
)

const CodeInvalidArgument = "invalid_argument"

// pathIDs returns the trimmed path params, responding 400 when any is blank.
func pathIDs(c *gin.Context, names ...string) ([]string, bool) {
	out := make([]string, len(names))
	for i, name := range names {
		v := strings.TrimSpace(c.Param(name))
		if v == "" {
			response.RespondError(c, http.StatusBadRequest, CodeInvalidArgument, fmt.Errorf("%s is required", name))
			return nil, false
		}
		out[i] = v
	}
	return out, true
}

var (
	errForbidden        = errors.New("forbidden")
	errMissingCompleted = errors.New("completed is required")
)
