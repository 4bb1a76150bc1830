package transfer

import (
	"fmt"
	"io"
	"strings"
	"time"
)

const copyBufferSize = 4 * 1024 * 1024 // 4MB buffer

// ProgressTracker manages download progress reporting.
type ProgressTracker struct {
	totalBytes       int64 // -1 when the remote size is unknown
	transferredBytes int64
	startTime        time.Time
	lastUpdate       time.Time
	lastBytes        int64
	updateInterval   time.Duration
}

// NewProgressTracker creates a new progress tracker.
func NewProgressTracker(totalBytes int64) *ProgressTracker {
	now := time.Now()
	return &ProgressTracker{
		totalBytes:     totalBytes,
		startTime:      now,
		lastUpdate:     now,
		updateInterval: 100 * time.Millisecond,
	}
}

// Add records transferred bytes and redraws the progress line if enough
// time has passed since the last update.
func (pt *ProgressTracker) Add(n int) {
	pt.transferredBytes += int64(n)

	now := time.Now()
	if now.Sub(pt.lastUpdate) < pt.updateInterval {
		return
	}

	bytesDiff := pt.transferredBytes - pt.lastBytes
	timeDiff := now.Sub(pt.lastUpdate).Seconds()
	speed := float64(bytesDiff) / timeDiff

	if pt.totalBytes > 0 {
		progress := float64(pt.transferredBytes) / float64(pt.totalBytes) * 100
		if progress > 100 {
			progress = 100
		}
		fmt.Printf("\rProgress: [%s] %.1f%% %.2f MB/s Time: %ds",
			progressBar(progress),
			progress,
			speed/1024/1024,
			int(now.Sub(pt.startTime).Seconds()))
	} else {
		fmt.Printf("\rDownloaded: %.1f MB %.2f MB/s Time: %ds",
			float64(pt.transferredBytes)/1024/1024,
			speed/1024/1024,
			int(now.Sub(pt.startTime).Seconds()))
	}

	pt.lastUpdate = now
	pt.lastBytes = pt.transferredBytes
}

// FinalReport displays the final progress report.
func (pt *ProgressTracker) FinalReport() {
	elapsed := time.Since(pt.startTime)
	if elapsed == 0 {
		elapsed = 1 * time.Millisecond
	}
	avgSpeed := float64(pt.transferredBytes) / elapsed.Seconds() / 1024 / 1024
	fmt.Printf("\rDownloaded %.2f MB in %ds - Average speed: %.2f MB/s\n",
		float64(pt.transferredBytes)/1024/1024,
		int(elapsed.Seconds()),
		avgSpeed)
}

// progressBar builds a 20-slot bar for the given percentage.
func progressBar(progress float64) string {
	const width = 20
	filled := int(progress / 100 * width)
	if filled > width {
		filled = width
	}
	return strings.Repeat("=", filled) + strings.Repeat(" ", width-filled)
}

// copyWithProgress copies data with optional progress reporting.
func copyWithProgress(src io.Reader, dst io.Writer, totalBytes int64, showProgress bool) error {
	var pt *ProgressTracker
	if showProgress {
		pt = NewProgressTracker(totalBytes)
	}

	buf := make([]byte, copyBufferSize)
	for {
		n, err := src.Read(buf)
		if n > 0 {
			if _, writeErr := dst.Write(buf[:n]); writeErr != nil {
				return fmt.Errorf("write error: %v", writeErr)
			}
			if pt != nil {
				pt.Add(n)
			}
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("read error: %v", err)
		}
	}

	if pt != nil {
		pt.FinalReport()
	}
	return nil
}
