package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/schoemantian/pokemon-agent/internal/constants"
)

// ListResults returns recorded battle outcomes, most recent first,
// limited to 20 by default.
func (h *AgentHandler) ListResults(c *gin.Context) {
	limit := 20
	if s := c.Query("limit"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 && n <= 100 {
			limit = n
		}
	}
	records, err := h.repo.ListResults(limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{constants.JSONKeyError: constants.ErrFailedFetchResults})
		return
	}
	c.JSON(http.StatusOK, records)
}

// Stats returns win/loss aggregates across all recorded battles.
func (h *AgentHandler) Stats(c *gin.Context) {
	stats, err := h.repo.Stats()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{constants.JSONKeyError: constants.ErrFailedFetchStats})
		return
	}
	c.JSON(http.StatusOK, stats)
}
