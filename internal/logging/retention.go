package logging

import (
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

// RunLogPattern matches the per-run daemon log files.
const RunLogPattern = "cutify-*.log"

// CurrentLogName is the pointer to the active run log.
const CurrentLogName = "cutify.log"

// PruneRunLogs removes run logs in dir older than retentionDays. The active
// log and whatever the current pointer resolves to are never removed. A
// retentionDays value of 0 disables pruning. It returns the number of files
// removed.
func PruneRunLogs(logger *slog.Logger, dir string, retentionDays int, active string) int {
	if retentionDays <= 0 || dir == "" {
		return 0
	}
	matches, err := filepath.Glob(filepath.Join(dir, RunLogPattern))
	if err != nil {
		return 0
	}

	keep := map[string]struct{}{}
	for _, path := range []string{active, currentTarget(dir)} {
		if abs := absPath(path); abs != "" {
			keep[abs] = struct{}{}
		}
	}

	cutoff := time.Now().AddDate(0, 0, -retentionDays)
	removed := 0
	for _, path := range matches {
		if _, ok := keep[absPath(path)]; ok {
			continue
		}
		info, err := os.Stat(path)
		if err != nil || info.IsDir() || !info.ModTime().Before(cutoff) {
			continue
		}
		if err := os.Remove(path); err != nil {
			WarnWithContext(logger, "run log prune failed", "log_retention_failed",
				String("path", path),
				Error(err),
				Hint("check permissions on paths.log_dir"),
			)
			continue
		}
		removed++
	}
	if removed > 0 && logger != nil {
		logger.Info("pruned run logs",
			Int("removed", removed),
			Int("retention_days", retentionDays),
			EventType("log_pruned"),
		)
	}
	return removed
}

func currentTarget(dir string) string {
	pointer := filepath.Join(dir, CurrentLogName)
	target, err := os.Readlink(pointer)
	if err != nil {
		return ""
	}
	if !filepath.IsAbs(target) {
		target = filepath.Join(dir, target)
	}
	return target
}

func absPath(path string) string {
	if path == "" {
		return ""
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return path
	}
	return abs
}
