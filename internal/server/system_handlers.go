package server

import (
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"
)

// SystemHandlers serves process and host status
type SystemHandlers struct {
	dataDir   string
	startedAt time.Time
	log       zerolog.Logger
}

// NewSystemHandlers creates the system status handler
func NewSystemHandlers(dataDir string, log zerolog.Logger) *SystemHandlers {
	return &SystemHandlers{
		dataDir:   dataDir,
		startedAt: time.Now(),
		log:       log.With().Str("component", "system").Logger(),
	}
}

// SystemStatus is the /api/system/status response payload
type SystemStatus struct {
	UptimeSeconds  int64   `json:"uptime_seconds"`
	CPUPercent     float64 `json:"cpu_percent"`
	MemoryPercent  float64 `json:"memory_percent"`
	DiskPercent    float64 `json:"disk_percent"`
	DataDirSizeMB  float64 `json:"data_dir_size_mb"`
	GeneratedAtUTC string  `json:"generated_at"`
}

// HandleSystemStatus handles GET /api/system/status
func (h *SystemHandlers) HandleSystemStatus(w http.ResponseWriter, r *http.Request) {
	status := SystemStatus{
		UptimeSeconds:  int64(time.Since(h.startedAt).Seconds()),
		GeneratedAtUTC: time.Now().UTC().Format(time.RFC3339),
	}

	// 100ms sampling window keeps the endpoint fast enough for pollers
	if cpuPercent, err := cpu.Percent(100*time.Millisecond, false); err == nil && len(cpuPercent) > 0 {
		status.CPUPercent = cpuPercent[0]
	} else if err != nil {
		h.log.Warn().Err(err).Msg("failed to read CPU usage")
	}

	if memStat, err := mem.VirtualMemory(); err == nil {
		status.MemoryPercent = memStat.UsedPercent
	} else {
		h.log.Warn().Err(err).Msg("failed to read memory usage")
	}

	if diskStat, err := disk.Usage(h.dataDir); err == nil {
		status.DiskPercent = diskStat.UsedPercent
	} else {
		h.log.Warn().Err(err).Msg("failed to read disk usage")
	}

	status.DataDirSizeMB = h.dirSizeMB(h.dataDir)

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(status); err != nil {
		h.log.Error().Err(err).Msg("failed to encode system status")
	}
}

func (h *SystemHandlers) dirSizeMB(dir string) float64 {
	var total int64
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if !info.IsDir() {
			total += info.Size()
		}
		return nil
	})
	if err != nil {
		h.log.Warn().Err(err).Str("dir", dir).Msg("failed to calculate data dir size")
		return 0
	}
	return float64(total) / 1024 / 1024
}
