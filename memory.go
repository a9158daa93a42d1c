package datascope

import (
	"fmt"
	"math"
	"runtime"
	"sync/atomic"
)

// Memory management constants
const (
	// maxReasonableMemoryLimit is an upper bound for the configured limit (64GB)
	maxReasonableMemoryLimit = 64 * 1024
	// defaultWarningThreshold is the share of the limit that triggers a warning
	defaultWarningThreshold = 0.8
	// bytesPerMB converts bytes to megabytes
	bytesPerMB = 1024 * 1024
)

// MemoryLimit guards dataset loading against running the process out of
// memory. A file is only loaded when the current heap plus the file size
// stays under the limit.
//
// Performance Note: CheckMemoryUsage() calls runtime.ReadMemStats which can
// pause for milliseconds. Use sparingly in hot paths.
//
// Thread Safety: All methods are safe for concurrent use by multiple goroutines.
type MemoryLimit struct {
	maxMemoryMB      int64
	warningThreshold float64
	enabled          atomic.Bool
}

// NewMemoryLimit creates a new memory limit. A non-positive limit creates a
// disabled guard.
func NewMemoryLimit(maxMemoryMB int64) *MemoryLimit {
	ml := &MemoryLimit{
		maxMemoryMB:      min(maxMemoryMB, maxReasonableMemoryLimit),
		warningThreshold: defaultWarningThreshold,
	}
	ml.enabled.Store(maxMemoryMB > 0)
	return ml
}

// IsEnabled returns whether memory limits are enabled
func (ml *MemoryLimit) IsEnabled() bool {
	return ml != nil && ml.enabled.Load()
}

// heapMB returns the current heap allocation in MB.
func heapMB() int64 {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)
	heapAllocMB := memStats.HeapAlloc / bytesPerMB
	if heapAllocMB > uint64(math.MaxInt64) {
		return math.MaxInt64
	}
	return int64(heapAllocMB)
}

// CheckMemoryUsage checks current memory usage plus an upcoming allocation
// of extraBytes against the limit.
func (ml *MemoryLimit) CheckMemoryUsage(extraBytes int64) MemoryStatus {
	if !ml.IsEnabled() {
		return MemoryStatusOK
	}

	currentMB := heapMB() + max(extraBytes, 0)/bytesPerMB
	if currentMB >= ml.maxMemoryMB {
		return MemoryStatusExceeded
	}
	if float64(currentMB)/float64(ml.maxMemoryMB) >= ml.warningThreshold {
		return MemoryStatusWarning
	}
	return MemoryStatusOK
}

// Reserve returns an ErrMemoryLimit error when loading extraBytes would
// exceed the limit.
func (ml *MemoryLimit) Reserve(operation string, extraBytes int64) error {
	if ml.CheckMemoryUsage(extraBytes) != MemoryStatusExceeded {
		return nil
	}
	return fmt.Errorf(
		"%w during %s: using %d MB, need %d MB more, limit %d MB",
		ErrMemoryLimit, operation, heapMB(), extraBytes/bytesPerMB, ml.maxMemoryMB,
	)
}

// MemoryStatus represents the current memory status
type MemoryStatus int

// Memory status constants
const (
	// MemoryStatusOK indicates memory usage is within acceptable limits
	MemoryStatusOK MemoryStatus = iota
	// MemoryStatusWarning indicates memory usage is approaching the limit
	MemoryStatusWarning
	// MemoryStatusExceeded indicates memory usage has exceeded the limit
	MemoryStatusExceeded
)

// String returns string representation of memory status
func (ms MemoryStatus) String() string {
	switch ms {
	case MemoryStatusOK:
		return "OK"
	case MemoryStatusWarning:
		return "WARNING"
	case MemoryStatusExceeded:
		return "EXCEEDED"
	default:
		return "UNKNOWN"
	}
}
