package orchestrator

import (
	"context"
	"strings"

	"github.com/hashicorp/go-multierror"

	"github.com/mrz1836/lantern/internal/wallet"
	lanterr "github.com/mrz1836/lantern/pkg/errors"
)

// decryptionPhrases are the signatures of a decryption failure that crossed
// the engine boundary as a plain string. Structured errors are matched by
// code first; this list is the fallback.
var decryptionPhrases = []string{
	"decryption failed",
	"failed to decrypt",
	"decrypt seed",
}

// IsDecryptionError reports whether err is a decryption-shaped failure,
// structurally or by message signature.
func IsDecryptionError(err error) bool {
	if err == nil {
		return false
	}
	if lanterr.Is(err, lanterr.ErrDecryptionFailed) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, phrase := range decryptionPhrases {
		if strings.Contains(msg, phrase) {
			return true
		}
	}
	return false
}

// quarantine handles a corrupted-credential failure for one wallet. Without
// it, every later load of the wallet would fail identically forever; after
// it, the ID is free for "create new".
//
// Each step is best-effort: a failed step is collected and logged, and the
// remaining steps still run. Quarantining an already quarantined wallet is
// harmless.
func (o *Orchestrator) quarantine(ctx context.Context, id string, cause error) error {
	o.log.Warn().Str("wallet", id).Err(cause).Msg("quarantining corrupted credentials")
	if o.metrics != nil {
		o.metrics.RecordQuarantine()
	}

	var steps *multierror.Error

	o.engine.ClearSensitive()
	o.cache.EvictWallet(id)

	if err := o.store.DeleteWallet(ctx, id); err != nil {
		steps = multierror.Append(steps, err)
	}

	if err := steps.ErrorOrNil(); err != nil {
		o.log.Warn().Str("wallet", id).Err(err).Msg("quarantine cleanup was incomplete")
	}

	qErr := lanterr.WithSuggestion(
		lanterr.Wrap(lanterr.ErrDecryptionFailed,
			"wallet %q: %v (corrupted credentials were removed; create the wallet again to recover)",
			id, cause),
		"run 'lantern wallet create' to start over with this wallet ID",
	)
	o.apply(wallet.WalletError{WalletID: id, Cause: qErr})
	return qErr
}
