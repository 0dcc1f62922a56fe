package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/maxviazov/afl-stats-service/internal/service"
	"github.com/maxviazov/afl-stats-service/pkg/response"
)

type SearchHandler struct {
	svc service.OverUnderService
}

func NewSearchHandler(svc service.OverUnderService) *SearchHandler { return &SearchHandler{svc: svc} }

func (h *SearchHandler) Register(r gin.IRoutes) {
	r.GET("/search/over-under", h.overUnder)
}

// overUnder: GET /search/over-under?player_id|player_name&stat&threshold[&strict_over]
// Parsing only catches malformed numbers and booleans; the service owns every other rule.
func (h *SearchHandler) overUnder(c *gin.Context) {
	var (
		q     service.OverUnderQuery
		ferrs []service.FieldError
	)

	if raw := strings.TrimSpace(c.Query("player_id")); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			ferrs = append(ferrs, service.FieldError{Field: "player_id", Message: "must be an integer"})
		} else {
			q.PlayerID = &id
		}
	}
	if raw, ok := c.GetQuery("player_name"); ok {
		q.PlayerName = &raw
	}
	q.Stat = c.Query("stat")
	if raw, ok := c.GetQuery("threshold"); ok {
		v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			ferrs = append(ferrs, service.FieldError{Field: "threshold", Message: "must be a number"})
		} else {
			q.Threshold = &v
		}
	}
	if raw, ok := c.GetQuery("strict_over"); ok {
		v, err := parseBool(raw)
		if err != nil {
			ferrs = append(ferrs, service.FieldError{Field: "strict_over", Message: "must be a boolean"})
		}
		q.StrictOver = v
	}
	if err := service.NewInvalidInputError(ferrs); err != nil {
		response.WriteError(c, err)
		return
	}

	out, err := h.svc.Search(c.Request.Context(), q)
	if err != nil {
		response.WriteError(c, err)
		return
	}
	response.WriteData(c, http.StatusOK, out)
}

func parseBool(raw string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "yes", "on":
		return true, nil
	case "no", "off":
		return false, nil
	}
	return strconv.ParseBool(strings.TrimSpace(raw))
}
