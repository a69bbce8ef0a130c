package maintenance

import (
	"context"
	"log"

	"github.com/tinysqlio/memvfs/vfs"
)

// StatsSweep is the default SweepFunc: it logs a vfs.Root's current stats.
// It never returns an error; stats collection has no failure mode of its
// own, unlike a disk-backed equivalent that might fail to stat a file.
func StatsSweep(logger *log.Logger) SweepFunc {
	if logger == nil {
		logger = log.Default()
	}
	return func(_ context.Context, root *vfs.Root) error {
		stats := root.Stats()
		logger.Printf("vfs stats: open_files=%d total_pages=%d refcount_sum=%d",
			stats.OpenFiles, stats.TotalPages, stats.RefcountSum)
		return nil
	}
}
