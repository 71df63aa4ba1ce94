package wallet

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReduceTransitions(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")

	cases := []struct {
		name string
		cur  Lifecycle
		ev   Event
		want Lifecycle
	}{
		{
			name: "not loaded + check",
			cur:  NotLoaded(),
			ev:   CheckWallet{WalletID: "alice"},
			want: Lifecycle{Phase: PhaseChecking, WalletID: "alice"},
		},
		{
			name: "checking + checked exists",
			cur:  Lifecycle{Phase: PhaseChecking, WalletID: "alice"},
			ev:   WalletChecked{WalletID: "alice", Exists: true},
			want: Lifecycle{Phase: PhaseLoading, WalletID: "alice", Exists: true},
		},
		{
			name: "checking + checked missing",
			cur:  Lifecycle{Phase: PhaseChecking, WalletID: "alice"},
			ev:   WalletChecked{WalletID: "alice", Exists: false},
			want: Lifecycle{Phase: PhaseLoading, WalletID: "alice", Exists: false},
		},
		{
			name: "start loading from any state",
			cur:  Lifecycle{Phase: PhaseErrored, WalletID: "alice", Cause: boom},
			ev:   StartLoading{WalletID: "bob", Exists: false},
			want: Lifecycle{Phase: PhaseLoading, WalletID: "bob"},
		},
		{
			name: "loading + loaded",
			cur:  Lifecycle{Phase: PhaseLoading, WalletID: "alice", Exists: true},
			ev:   WalletLoaded{WalletID: "alice"},
			want: Lifecycle{Phase: PhaseReady, WalletID: "alice"},
		},
		{
			name: "error from any state",
			cur:  Lifecycle{Phase: PhaseReady, WalletID: "alice"},
			ev:   WalletError{WalletID: "alice", Cause: boom},
			want: Lifecycle{Phase: PhaseErrored, WalletID: "alice", Cause: boom},
		},
		{
			name: "reset from error",
			cur:  Lifecycle{Phase: PhaseErrored, WalletID: "alice", Cause: boom},
			ev:   Reset{},
			want: NotLoaded(),
		},
		{
			name: "check ignored outside not_loaded",
			cur:  Lifecycle{Phase: PhaseReady, WalletID: "alice"},
			ev:   CheckWallet{WalletID: "bob"},
			want: Lifecycle{Phase: PhaseReady, WalletID: "alice"},
		},
		{
			name: "checked ignored outside checking",
			cur:  Lifecycle{Phase: PhaseReady, WalletID: "alice"},
			ev:   WalletChecked{WalletID: "bob", Exists: true},
			want: Lifecycle{Phase: PhaseReady, WalletID: "alice"},
		},
		{
			name: "loaded ignored outside loading",
			cur:  NotLoaded(),
			ev:   WalletLoaded{WalletID: "alice"},
			want: NotLoaded(),
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Reduce(tc.cur, tc.ev)
			assert.Equal(t, tc.want, got)
		})
	}
}

type unknownEvent struct{}

func (unknownEvent) isEvent() {}

func TestReduceUnknownEventIsNoOp(t *testing.T) {
	t.Parallel()

	cur := Lifecycle{Phase: PhaseLoading, WalletID: "alice", Exists: true}
	assert.Equal(t, cur, Reduce(cur, unknownEvent{}))
}

func TestReduceIsPure(t *testing.T) {
	t.Parallel()

	cur := Lifecycle{Phase: PhaseChecking, WalletID: "alice"}
	ev := WalletChecked{WalletID: "alice", Exists: true}

	first := Reduce(cur, ev)
	second := Reduce(cur, ev)

	assert.Equal(t, first, second)
	assert.Equal(t, Lifecycle{Phase: PhaseChecking, WalletID: "alice"}, cur,
		"input state must not be mutated")
}

func TestPhaseString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "not_loaded", PhaseNotLoaded.String())
	assert.Equal(t, "checking", PhaseChecking.String())
	assert.Equal(t, "loading", PhaseLoading.String())
	assert.Equal(t, "ready", PhaseReady.String())
	assert.Equal(t, "error", PhaseErrored.String())
	assert.Equal(t, "phase(99)", Phase(99).String())
}
