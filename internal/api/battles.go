package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/schoemantian/pokemon-agent/internal/constants"
	"github.com/schoemantian/pokemon-agent/internal/session"
)

// StartBattle launches a new battle session and returns its ID. The
// battle runs in the background; progress is available from GetBattle
// and the events stream.
func (h *AgentHandler) StartBattle(c *gin.Context) {
	var body struct {
		Format        string  `json:"format"`
		Oracle        string  `json:"oracle"`
		TurnSeconds   float64 `json:"turn_seconds"`
		BattleSeconds float64 `json:"battle_seconds"`
	}
	if err := c.ShouldBindJSON(&body); err != nil && err.Error() != "EOF" {
		c.JSON(http.StatusBadRequest, gin.H{constants.JSONKeyError: constants.ErrInvalidRequest})
		return
	}

	policy := h.policy
	if body.TurnSeconds > 0 {
		policy.TurnDeadline = time.Duration(body.TurnSeconds * float64(time.Second))
	}
	if body.BattleSeconds > 0 {
		policy.BattleDeadline = time.Duration(body.BattleSeconds * float64(time.Second))
	}
	if policy.TurnDeadline > policy.BattleDeadline {
		c.JSON(http.StatusBadRequest, gin.H{constants.JSONKeyError: constants.ErrInvalidRequest})
		return
	}

	s, err := h.manager.Start(session.Options{
		Format: body.Format,
		Oracle: body.Oracle,
		Policy: policy,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{constants.JSONKeyError: constants.ErrFailedStartBattle})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": s.ID(), "status": "running"})
}

// GetBattle returns the live status or final result of one battle.
func (h *AgentHandler) GetBattle(c *gin.Context) {
	s, ok := h.manager.Get(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{constants.JSONKeyError: constants.ErrBattleNotFound})
		return
	}
	mon := s.Monitor()
	out := gin.H{
		"id":         s.ID(),
		"status":     "running",
		"elapsed_ms": mon.Elapsed().Milliseconds(),
		"stalls":     mon.Stalls(),
		"fallbacks":  mon.Fallbacks(),
		"degraded":   mon.Degraded(),
	}
	if res := s.Result(); res != nil {
		out["status"] = "finished"
		out["result"] = res
	}
	c.JSON(http.StatusOK, out)
}

// BattleEvents streams the battle's diagnostic events (stalls,
// fallbacks, degradation, forfeits) as server-sent events until the
// battle concludes or the client disconnects.
func (h *AgentHandler) BattleEvents(c *gin.Context) {
	s, ok := h.manager.Get(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{constants.JSONKeyError: constants.ErrBattleNotFound})
		return
	}

	c.Header(constants.HeaderContentType, constants.ContentTypeEventStream)
	c.Header(constants.CacheControlHeader, constants.CacheControlNoCache)
	c.Header("Connection", "keep-alive")

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{constants.JSONKeyError: constants.ErrStreamingUnsupported})
		return
	}

	events, unsubscribe := s.Subscribe()
	defer unsubscribe()

	for {
		select {
		case <-c.Request.Context().Done():
			return
		case ev, open := <-events:
			if !open {
				// Bus closed: the battle is over. Send the final result.
				if res := s.Result(); res != nil {
					payload, _ := json.Marshal(res)
					fmt.Fprintf(c.Writer, "event: result\ndata: %s\n\n", payload)
					flusher.Flush()
				}
				return
			}
			payload, err := json.Marshal(ev)
			if err != nil {
				continue
			}
			fmt.Fprintf(c.Writer, "data: %s\n\n", payload)
			flusher.Flush()
		}
	}
}
