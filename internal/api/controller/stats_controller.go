package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gridrelay/tictactoe/internal/api/response"
	"github.com/gridrelay/tictactoe/internal/repository"
)

// StatsController serves the relay-wide match counters.
type StatsController struct {
	stats repository.StatsRepository
}

// NewStatsController creates a new StatsController. stats may be nil
// when Redis is not configured.
func NewStatsController(stats repository.StatsRepository) *StatsController {
	return &StatsController{stats: stats}
}

// Snapshot handles the stats endpoint.
func (sc *StatsController) Snapshot(c *gin.Context) {
	if sc.stats == nil {
		response.Error(c, http.StatusServiceUnavailable, "stats are not enabled")
		return
	}

	snapshot, err := sc.stats.Snapshot(c.Request.Context())
	if err != nil {
		response.Error(c, http.StatusInternalServerError, err.Error())
		return
	}

	response.Success(c, snapshot)
}
