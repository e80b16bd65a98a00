package api

import (
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
)

var processStart = time.Now()

// Health handles GET /health: a bare liveness probe.
func Health() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok", "uptime_seconds": int64(time.Since(processStart).Seconds())})
	}
}

// Memory handles GET /v1/memory: a runtime.MemStats snapshot for operators,
// grounded on the teacher's ops endpoints rather than exposing pprof
// directly.
func Memory() gin.HandlerFunc {
	return func(c *gin.Context) {
		var m runtime.MemStats
		runtime.ReadMemStats(&m)
		c.JSON(200, gin.H{
			"alloc_bytes":       m.Alloc,
			"total_alloc_bytes": m.TotalAlloc,
			"sys_bytes":         m.Sys,
			"heap_alloc_bytes":  m.HeapAlloc,
			"num_gc":            m.NumGC,
			"goroutines":        runtime.NumGoroutine(),
		})
	}
}
