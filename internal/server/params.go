package server

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

// page holds boundary-clamped pagination values. The clamped values are
// echoed back in list envelopes so clients see what was actually applied.
type page struct {
	limit  int
	offset int
}

// parsePage reads limit/offset query parameters. Non-integer values are
// rejected; out-of-range values are clamped rather than rejected.
func (h *httpHandler) parsePage(c *gin.Context) (page, bool) {
	result := page{limit: h.pages.Limit, offset: 0}

	if raw := c.Query("limit"); raw != "" {
		value, err := strconv.Atoi(raw)
		if err != nil {
			return page{}, false
		}
		result.limit = value
	}
	if raw := c.Query("offset"); raw != "" {
		value, err := strconv.Atoi(raw)
		if err != nil {
			return page{}, false
		}
		result.offset = value
	}

	if result.limit <= 0 {
		result.limit = h.pages.Limit
	}
	if result.limit > h.pages.Max {
		result.limit = h.pages.Max
	}
	if result.offset < 0 {
		result.offset = 0
	}
	return result, true
}

func parseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
