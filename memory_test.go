package datascope

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMemoryLimit(t *testing.T) {
	t.Parallel()

	t.Run("disabled", func(t *testing.T) {
		t.Parallel()

		ml := NewMemoryLimit(0)
		assert.False(t, ml.IsEnabled())
		assert.Equal(t, MemoryStatusOK, ml.CheckMemoryUsage(1<<40))
		assert.NoError(t, ml.Reserve("load", 1<<40))
	})

	t.Run("nil guard", func(t *testing.T) {
		t.Parallel()

		var ml *MemoryLimit
		assert.False(t, ml.IsEnabled())
	})

	t.Run("exceeded", func(t *testing.T) {
		t.Parallel()

		ml := NewMemoryLimit(1)
		assert.True(t, ml.IsEnabled())
		assert.Equal(t, MemoryStatusExceeded, ml.CheckMemoryUsage(2*bytesPerMB))
		err := ml.Reserve("load file", 2*bytesPerMB)
		assert.ErrorIs(t, err, ErrMemoryLimit)
		assert.Contains(t, err.Error(), "load file")
	})

	t.Run("plenty of room", func(t *testing.T) {
		t.Parallel()

		ml := NewMemoryLimit(1 << 40)
		assert.Equal(t, int64(maxReasonableMemoryLimit), ml.maxMemoryMB)
		assert.Equal(t, MemoryStatusOK, ml.CheckMemoryUsage(0))
	})
}

func TestMemoryStatus_String(t *testing.T) {
	t.Parallel()

	tests := map[MemoryStatus]string{
		MemoryStatusOK:       "OK",
		MemoryStatusWarning:  "WARNING",
		MemoryStatusExceeded: "EXCEEDED",
		MemoryStatus(99):     "UNKNOWN",
	}
	for status, want := range tests {
		if got := status.String(); got != want {
			t.Errorf("MemoryStatus(%d).String() = %q, want %q", status, got, want)
		}
	}
}
