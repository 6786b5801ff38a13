package internal

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"os"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/process"
)

// MessageCounter is the slice of the repository the debug endpoint
// needs; it keeps this package from importing storage wholesale.
type MessageCounter interface {
	CountMessages(ctx context.Context) (int64, error)
}

// DebugStats is the payload of GET /debug/stats.
type DebugStats struct {
	Pid          int32   `json:"pid"`
	RSSBytes     uint64  `json:"rss_bytes"`
	CPUPercent   float64 `json:"cpu_percent"`
	Goroutines   int     `json:"goroutines"`
	MessageCount int64   `json:"message_count"`
	Uptime       string  `json:"uptime"`
}

// NewDebugHandler reports process-level and store-level stats. It is
// an operator convenience, not part of the core contract.
func NewDebugHandler(log *slog.Logger, counter MessageCounter) http.HandlerFunc {
	started := time.Now()

	return func(w http.ResponseWriter, r *http.Request) {
		stats := DebugStats{
			Pid:        int32(os.Getpid()),
			Goroutines: runtime.NumGoroutine(),
			Uptime:     time.Since(started).Round(time.Second).String(),
		}

		if p, err := process.NewProcess(stats.Pid); err == nil {
			if mem, err := p.MemoryInfo(); err == nil {
				stats.RSSBytes = mem.RSS
			}
			if cpu, err := p.CPUPercent(); err == nil {
				stats.CPUPercent = cpu
			}
		}

		count, err := counter.CountMessages(r.Context())
		if err != nil {
			log.Warn("debug stats: message count failed", "err", err)
		}
		stats.MessageCount = count

		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		_ = json.NewEncoder(w).Encode(stats)
	}
}
