package server

import (
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/aristath/credence/internal/database"
	"github.com/aristath/credence/internal/domain"
	"github.com/aristath/credence/internal/modules/scoring"
	"github.com/aristath/credence/internal/scheduler"
)

// SystemHandlers serves monitoring and operational endpoints.
type SystemHandlers struct {
	log        zerolog.Logger
	dataDir    string
	startTime  time.Time
	databases  map[string]*database.DB
	queue      domain.RecomputeQueue
	aggregator *scoring.Aggregator
	jobs       map[string]scheduler.Job
}

// NewSystemHandlers creates system handlers
func NewSystemHandlers(
	log zerolog.Logger,
	dataDir string,
	databases map[string]*database.DB,
	queue domain.RecomputeQueue,
	aggregator *scoring.Aggregator,
) *SystemHandlers {
	return &SystemHandlers{
		log:        log.With().Str("component", "system_handlers").Logger(),
		dataDir:    dataDir,
		startTime:  time.Now(),
		databases:  databases,
		queue:      queue,
		aggregator: aggregator,
		jobs:       make(map[string]scheduler.Job),
	}
}

// SetJobs registers the scheduled jobs that can be triggered manually
func (h *SystemHandlers) SetJobs(jobs map[string]scheduler.Job) {
	h.jobs = jobs
}

// HandleSystemStatus returns process and host statistics
func (h *SystemHandlers) HandleSystemStatus(w http.ResponseWriter, r *http.Request) {
	status := map[string]interface{}{
		"uptime_seconds": int64(time.Since(h.startTime).Seconds()),
		"goroutines":     runtime.NumGoroutine(),
		"go_version":     runtime.Version(),
	}

	if cpuPercent, err := cpu.Percent(100*time.Millisecond, false); err == nil && len(cpuPercent) > 0 {
		status["cpu_percent"] = cpuPercent[0]
	}

	if vmStat, err := mem.VirtualMemory(); err == nil {
		status["memory_percent"] = vmStat.UsedPercent
		status["memory_used_mb"] = vmStat.Used / 1024 / 1024
		status["memory_total_mb"] = vmStat.Total / 1024 / 1024
	}

	writeJSON(w, http.StatusOK, status)
}

// HandleDatabaseStats returns per-database size and connection stats
func (h *SystemHandlers) HandleDatabaseStats(w http.ResponseWriter, r *http.Request) {
	stats := make(map[string]interface{})

	for name, db := range h.databases {
		entry := map[string]interface{}{
			"path": db.Path(),
		}

		if info, err := os.Stat(db.Path()); err == nil {
			entry["size_bytes"] = info.Size()
		}
		if info, err := os.Stat(db.Path() + "-wal"); err == nil {
			entry["wal_size_bytes"] = info.Size()
		}

		if dbStats, err := db.GetStats(); err == nil {
			entry["page_count"] = dbStats.PageCount
			entry["page_size"] = dbStats.PageSize
			entry["freelist_count"] = dbStats.FreelistCount
		}

		stats[name] = entry
	}

	writeJSON(w, http.StatusOK, stats)
}

// HandleDiskUsage returns disk usage for the data directory
func (h *SystemHandlers) HandleDiskUsage(w http.ResponseWriter, r *http.Request) {
	usage := make(map[string]interface{})

	for label, dir := range map[string]string{
		"data":    h.dataDir,
		"backups": filepath.Join(h.dataDir, "backups"),
	} {
		size, err := getDirSize(dir)
		if err != nil {
			continue
		}
		usage[label] = map[string]interface{}{
			"path":     dir,
			"size_mb":  float64(size) / 1024 / 1024,
			"size_raw": size,
		}
	}

	writeJSON(w, http.StatusOK, usage)
}

// HandleJobsStatus lists the registered scheduled jobs
func (h *SystemHandlers) HandleJobsStatus(w http.ResponseWriter, r *http.Request) {
	names := make([]string, 0, len(h.jobs))
	for name := range h.jobs {
		names = append(names, name)
	}
	sort.Strings(names)

	writeJSON(w, http.StatusOK, map[string]interface{}{"jobs": names})
}

// HandleTriggerJob runs a scheduled job immediately
func (h *SystemHandlers) HandleTriggerJob(w http.ResponseWriter, r *http.Request) {
	jobName := chi.URLParam(r, "jobName")

	job, ok := h.jobs[jobName]
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "unknown job: " + jobName})
		return
	}

	h.log.Info().Str("job", jobName).Msg("Manually triggering job")

	// Jobs can run for minutes; don't hold the request open.
	go func() {
		if err := job.Run(); err != nil {
			h.log.Error().Err(err).Str("job", jobName).Msg("Manually triggered job failed")
		}
	}()

	writeJSON(w, http.StatusAccepted, map[string]string{"status": "triggered", "job": jobName})
}

// HandleTriggerRecompute enqueues a score recomputation for a company
func (h *SystemHandlers) HandleTriggerRecompute(w http.ResponseWriter, r *http.Request) {
	companyID := chi.URLParam(r, "companyID")
	if companyID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "company ID is required"})
		return
	}

	h.queue.Enqueue(companyID)

	writeJSON(w, http.StatusAccepted, map[string]string{"status": "enqueued", "company_id": companyID})
}

// HandleVerifyScore checks a stored score against a fresh computation
func (h *SystemHandlers) HandleVerifyScore(w http.ResponseWriter, r *http.Request) {
	companyID := chi.URLParam(r, "companyID")
	if companyID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "company ID is required"})
		return
	}

	consistent, err := h.aggregator.Verify(companyID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"company_id": companyID,
		"consistent": consistent,
	})
}

// getDirSize walks a directory totaling file sizes
func getDirSize(path string) (int64, error) {
	var size int64
	err := filepath.Walk(path, func(_ string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			size += info.Size()
		}
		return nil
	})
	return size, err
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
