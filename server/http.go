package server

import (
	"encoding/json"
	"net/http"
	"runtime"
	"time"

	"github.com/wfunc/coinflip/logger"
)

const recentRounds = 10

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Log.Debugf("write response: %v", err)
	}
}

func (s *GameServer) handleIndex(w http.ResponseWriter, r *http.Request) {
	stats := s.game.Stats()
	writeJSON(w, http.StatusOK, map[string]any{
		"message":    "CoinFlip game server",
		"status":     "online",
		"version":    Version,
		"uptime":     int64(s.monitor.Uptime().Seconds()),
		"online":     stats.Online,
		"rooms":      stats.Rooms,
		"queue":      stats.Queue,
		"totalGames": stats.TotalGames,
	})
}

func (s *GameServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	now := time.Now()
	open := s.sessionManager.Open()
	var maxIdle time.Duration
	for _, sess := range open {
		if idle := now.Sub(sess.LastActive()); idle > maxIdle {
			maxIdle = idle
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":      "healthy",
		"timestamp":   now.UTC().Format(time.RFC3339),
		"players":     s.game.Stats().Online,
		"connections": len(open),
		"maxIdleMs":   maxIdle.Milliseconds(),
		"memory": map[string]uint64{
			"alloc":      mem.Alloc,
			"heapInuse":  mem.HeapInuse,
			"sys":        mem.Sys,
			"goroutines": uint64(runtime.NumGoroutine()),
		},
	})
}

func (s *GameServer) handleStats(w http.ResponseWriter, r *http.Request) {
	stats := s.game.Stats()
	body := map[string]any{
		"online":          stats.Online,
		"rooms":           stats.Rooms,
		"queue":           stats.Queue,
		"totalGames":      stats.TotalGames,
		"totalCommission": stats.TotalCommission,
		"peakOnline":      stats.PeakOnline,
		"uptime":          s.monitor.Uptime().Milliseconds(),
	}

	if s.history != nil {
		rounds, err := s.history.Recent(r.Context(), recentRounds)
		if err != nil {
			logger.Log.Warnf("recent rounds: %v", err)
		} else {
			body["recentRounds"] = rounds
		}
	}
	writeJSON(w, http.StatusOK, body)
}

func (s *GameServer) handlePing(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":        "pong",
		"timestamp":     time.Now().UnixMilli(),
		"activePlayers": s.game.Stats().Online,
	})
}
