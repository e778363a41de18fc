package process

// Notes:
// - Real kill behavior is exercised by the browser integration tests; unit
//   tests only cover inputs that cannot hit a live process.

import "testing"

func TestKillProcessGroup(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		pid  int
	}{
		// Zero would target the current process group and is rejected.
		{name: "zero pid", pid: 0},
		{name: "negative pid", pid: -42},
		{name: "nonexistent pid", pid: 999999999},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			KillProcessGroup(tt.pid)
		})
	}
}
