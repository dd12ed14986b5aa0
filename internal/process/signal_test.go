package process

import (
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSignal(t *testing.T) {
	tests := []struct {
		name string
		want syscall.Signal
	}{
		{"SIGTERM", syscall.SIGTERM},
		{"sigterm", syscall.SIGTERM},
		{"TERM", syscall.SIGTERM},
		{"SIGKILL", syscall.SIGKILL},
		{"SIGINT", syscall.SIGINT},
		{"int", syscall.SIGINT},
		{"SIGHUP", syscall.SIGHUP},
		{"SIGQUIT", syscall.SIGQUIT},
		{" sigterm ", syscall.SIGTERM},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseSignal(tt.name)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseSignalUnknown(t *testing.T) {
	for _, name := range []string{"", "SIGUSR1", "15", "bogus"} {
		_, err := ParseSignal(name)
		assert.Error(t, err, "signal %q", name)
	}
}
