package wallet

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mrz1836/lantern/internal/engine"
)

func TestProject(t *testing.T) {
	t.Parallel()

	boom := errors.New("engine crashed")

	cases := []struct {
		name string
		eng  engine.Snapshot
		lc   Lifecycle
		want Status
	}{
		{
			name: "engine error dominates ready wallet",
			eng:  engine.Snapshot{Started: true, Err: boom},
			lc:   Lifecycle{Phase: PhaseReady, WalletID: "alice"},
			want: StatusError,
		},
		{
			name: "engine error dominates loading",
			eng:  engine.Snapshot{Loading: true, Err: boom},
			lc:   NotLoaded(),
			want: StatusError,
		},
		{
			name: "not started and idle",
			eng:  engine.Snapshot{},
			lc:   NotLoaded(),
			want: StatusIdle,
		},
		{
			name: "not started but starting",
			eng:  engine.Snapshot{Loading: true},
			lc:   NotLoaded(),
			want: StatusStartingEngine,
		},
		{
			name: "started with no wallet",
			eng:  engine.Snapshot{Started: true},
			lc:   NotLoaded(),
			want: StatusEngineReady,
		},
		{
			name: "started and checking",
			eng:  engine.Snapshot{Started: true},
			lc:   Lifecycle{Phase: PhaseChecking, WalletID: "alice"},
			want: StatusLoadingWallet,
		},
		{
			name: "started and loading",
			eng:  engine.Snapshot{Started: true},
			lc:   Lifecycle{Phase: PhaseLoading, WalletID: "alice", Exists: true},
			want: StatusLoadingWallet,
		},
		{
			name: "started and ready",
			eng:  engine.Snapshot{Started: true, Initialized: true},
			lc:   Lifecycle{Phase: PhaseReady, WalletID: "alice"},
			want: StatusReady,
		},
		{
			name: "wallet errored",
			eng:  engine.Snapshot{Started: true},
			lc:   Lifecycle{Phase: PhaseErrored, WalletID: "alice", Cause: boom},
			want: StatusError,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Project(tc.eng, tc.lc))
		})
	}
}

func TestProjectDoesNotMutateInputs(t *testing.T) {
	t.Parallel()

	eng := engine.Snapshot{Started: true, Loading: true}
	lc := Lifecycle{Phase: PhaseLoading, WalletID: "alice", Exists: true}

	_ = Project(eng, lc)

	assert.Equal(t, engine.Snapshot{Started: true, Loading: true}, eng)
	assert.Equal(t, Lifecycle{Phase: PhaseLoading, WalletID: "alice", Exists: true}, lc)
}

func TestStatusString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "idle", StatusIdle.String())
	assert.Equal(t, "starting_engine", StatusStartingEngine.String())
	assert.Equal(t, "engine_ready", StatusEngineReady.String())
	assert.Equal(t, "loading_wallet", StatusLoadingWallet.String())
	assert.Equal(t, "ready", StatusReady.String())
	assert.Equal(t, "error", StatusError.String())
	assert.Equal(t, "status(42)", Status(42).String())
}
