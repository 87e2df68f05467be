// Package diagnostics inspects the host: CPU and memory headroom, disk
// space, and whether the external media tools are installed.
package diagnostics

import (
	"context"
	"os/exec"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"
)

// Tool reports availability of one external dependency
type Tool struct {
	Name      string `json:"name"`
	Available bool   `json:"available"`
	Path      string `json:"path,omitempty"`
}

// Report is the full diagnostics snapshot
type Report struct {
	OS             string    `json:"os"`
	Arch           string    `json:"arch"`
	CPUThreads     int       `json:"cpu_threads"`
	CPUModel       string    `json:"cpu_model,omitempty"`
	CPUUsagePct    float64   `json:"cpu_usage_pct"`
	MemTotalBytes  uint64    `json:"mem_total_bytes"`
	MemUsedPct     float64   `json:"mem_used_pct"`
	DiskFreeBytes  uint64    `json:"disk_free_bytes"`
	Tools          []Tool    `json:"tools"`
	Ready          bool      `json:"ready"`
	CollectedAt    time.Time `json:"collected_at"`
}

// requiredTools are the binaries the analysis pipeline shells out to.
// fastcheck-transcribe is optional; without it transcription degrades to a
// placeholder segment.
var requiredTools = []string{"ffmpeg", "ffprobe"}
var optionalTools = []string{"fastcheck-transcribe"}

// Collect gathers a diagnostics report. Probe failures leave the matching
// field zero rather than failing the whole report.
func Collect(ctx context.Context) *Report {
	report := &Report{
		OS:          runtime.GOOS,
		Arch:        runtime.GOARCH,
		CPUThreads:  runtime.NumCPU(),
		CollectedAt: time.Now(),
	}

	if infos, err := cpu.InfoWithContext(ctx); err == nil && len(infos) > 0 {
		report.CPUModel = infos[0].ModelName
	}
	if usage, err := cpu.PercentWithContext(ctx, 200*time.Millisecond, false); err == nil && len(usage) > 0 {
		report.CPUUsagePct = usage[0]
	}
	if vm, err := mem.VirtualMemoryWithContext(ctx); err == nil {
		report.MemTotalBytes = vm.Total
		report.MemUsedPct = vm.UsedPercent
	}
	if du, err := disk.UsageWithContext(ctx, "/"); err == nil {
		report.DiskFreeBytes = du.Free
	}

	report.Ready = true
	for _, name := range requiredTools {
		tool := probeTool(name)
		if !tool.Available {
			report.Ready = false
		}
		report.Tools = append(report.Tools, tool)
	}
	for _, name := range optionalTools {
		report.Tools = append(report.Tools, probeTool(name))
	}

	return report
}

func probeTool(name string) Tool {
	path, err := exec.LookPath(name)
	return Tool{Name: name, Available: err == nil, Path: path}
}
