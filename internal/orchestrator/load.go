package orchestrator

import (
	"context"
	"encoding/hex"
	"time"

	"github.com/mrz1836/lantern/internal/securestore"
	"github.com/mrz1836/lantern/internal/vaultcrypto"
	"github.com/mrz1836/lantern/internal/wallet"
	lanterr "github.com/mrz1836/lantern/pkg/errors"
)

// entropyBits is the entropy size for newly created wallets (24 words).
const entropyBits = 256

// StartEngine launches the engine with the configured networks.
func (o *Orchestrator) StartEngine(ctx context.Context) error {
	err := o.engine.Start(ctx, o.cfg.EnabledNetworks())

	o.mu.Lock()
	o.publishLocked()
	o.mu.Unlock()
	return err
}

// LoadExisting loads a stored wallet and makes it active. Concurrent loads
// queue; each caller gets its own result.
func (o *Orchestrator) LoadExisting(ctx context.Context, id string) error {
	if err := securestore.ValidateWalletID(id); err != nil {
		return err
	}
	var opErr error
	if err := o.loadGuard.Run(ctx, func(ctx context.Context) error {
		opErr = o.doLoadExisting(ctx, id)
		return opErr
	}); err != nil && opErr == nil {
		opErr = err
	}
	o.recordLoad(opErr)
	return opErr
}

func (o *Orchestrator) doLoadExisting(ctx context.Context, id string) error {
	if !o.engine.State().Started() {
		return lanterr.WithSuggestion(lanterr.ErrEngineNotStarted,
			"start the engine before loading a wallet")
	}

	o.mu.Lock()
	prev := o.activeWalletID
	ready := o.lifecycle.Phase == wallet.PhaseReady
	o.mu.Unlock()

	// Switching identities: the previous wallet's credential material must
	// not outlive its session.
	if prev != "" && prev != id {
		o.engine.ClearSensitive()
	}

	if prev == id && ready {
		o.log.Debug().Str("wallet", id).Msg("wallet already loaded")
		return nil
	}

	if err := o.checkCooldown(); err != nil {
		return err
	}

	o.apply(wallet.CheckWallet{WalletID: id})
	exists, err := o.store.HasWallet(ctx, id)
	if err != nil {
		o.apply(wallet.WalletError{WalletID: id, Cause: err})
		return err
	}
	o.apply(wallet.WalletChecked{WalletID: id, Exists: exists})

	if !exists {
		err := lanterr.Wrap(lanterr.ErrWalletNotFound, "wallet %q does not exist", id)
		o.apply(wallet.WalletError{WalletID: id, Cause: err})
		return err
	}

	o.apply(wallet.StartLoading{WalletID: id, Exists: true})

	// Store authentication runs inside the load path; a failure routes
	// through failLoad and arms the cooldown.
	if err := o.store.Authenticate(ctx); err != nil {
		return o.failLoad(ctx, id, err)
	}

	bundle, err := o.store.GetAllEncrypted(ctx, id)
	if err != nil {
		return o.failLoad(ctx, id, err)
	}

	if err := o.engine.InitializeCredentials(ctx, bundle.EncryptionKey, bundle.EncryptedSeed); err != nil {
		return o.failLoad(ctx, id, err)
	}

	return o.commitLoaded(ctx, id)
}

// CreateNew creates a wallet from fresh or supplied entropy and makes it
// active. It returns the mnemonic for the caller to display exactly once.
func (o *Orchestrator) CreateNew(ctx context.Context, id string, entropy []byte) (string, error) {
	if err := securestore.ValidateWalletID(id); err != nil {
		return "", err
	}
	var (
		mnemonic string
		opErr    error
	)
	if err := o.loadGuard.Run(ctx, func(ctx context.Context) error {
		mnemonic, opErr = o.doCreateNew(ctx, id, entropy)
		return opErr
	}); err != nil && opErr == nil {
		opErr = err
	}
	o.recordLoad(opErr)
	return mnemonic, opErr
}

func (o *Orchestrator) doCreateNew(ctx context.Context, id string, entropy []byte) (string, error) {
	started := o.engine.State().Started()

	// A lingering error state would otherwise shadow this attempt.
	o.mu.Lock()
	errored := o.lifecycle.Phase == wallet.PhaseErrored
	o.mu.Unlock()
	if errored && started {
		o.apply(wallet.Reset{})
	}

	if !started {
		return "", lanterr.WithSuggestion(lanterr.ErrEngineNotStarted,
			"start the engine before creating a wallet")
	}
	if err := o.checkCooldown(); err != nil {
		return "", err
	}

	if exists, err := o.store.HasWallet(ctx, id); err != nil {
		return "", err
	} else if exists {
		return "", lanterr.WithSuggestion(
			lanterr.Wrap(lanterr.ErrWalletExists, "wallet %q already exists", id),
			"pick another name, or delete the existing wallet first")
	}

	o.apply(wallet.StartLoading{WalletID: id, Exists: false})

	if entropy == nil {
		var err error
		entropy, err = vaultcrypto.NewEntropy(entropyBits)
		if err != nil {
			return "", o.failLoadErr(ctx, id, err)
		}
	}
	defer vaultcrypto.ZeroBytes(entropy)

	mnemonic, err := vaultcrypto.NewMnemonic(entropy)
	if err != nil {
		return "", o.failLoadErr(ctx, id, err)
	}
	seed := vaultcrypto.SeedFromMnemonic(mnemonic)
	defer vaultcrypto.ZeroBytes(seed)

	key, err := vaultcrypto.NewEncryptionKey()
	if err != nil {
		return "", o.failLoadErr(ctx, id, err)
	}
	defer vaultcrypto.ZeroBytes(key)

	passphrase := hex.EncodeToString(key)
	encSeed, err := vaultcrypto.Encrypt(seed, passphrase)
	if err != nil {
		return "", o.failLoadErr(ctx, id, err)
	}
	encEntropy, err := vaultcrypto.Encrypt(entropy, passphrase)
	if err != nil {
		return "", o.failLoadErr(ctx, id, err)
	}

	if err := o.store.SetEncryptionKey(ctx, id, key); err != nil {
		return "", o.failLoadErr(ctx, id, err)
	}
	if err := o.store.SetEncryptedSeed(ctx, id, encSeed); err != nil {
		return "", o.failLoadErr(ctx, id, err)
	}
	if err := o.store.SetEncryptedEntropy(ctx, id, encEntropy); err != nil {
		return "", o.failLoadErr(ctx, id, err)
	}

	if err := o.engine.InitializeCredentials(ctx, key, encSeed); err != nil {
		return "", o.failLoad(ctx, id, err)
	}

	if err := o.commitLoaded(ctx, id); err != nil {
		return "", err
	}
	return mnemonic, nil
}

// RestoreExisting recreates a wallet from a mnemonic phrase.
func (o *Orchestrator) RestoreExisting(ctx context.Context, id, mnemonic string) error {
	entropy, err := vaultcrypto.EntropyFromMnemonic(mnemonic)
	if err != nil {
		return err
	}
	_, err = o.CreateNew(ctx, id, entropy)
	return err
}

// Retry re-arms the system after a failure: it clears the auth cooldown,
// resets an errored lifecycle, and clears the cancellation flag. It performs
// no I/O; the next load or create does the work.
func (o *Orchestrator) Retry() {
	o.mu.Lock()
	o.cooldownAt = time.Time{}
	o.canceled = false
	if o.lifecycle.Phase == wallet.PhaseErrored {
		o.lifecycle = wallet.Reduce(o.lifecycle, wallet.Reset{})
		o.publishLocked()
	}
	o.mu.Unlock()
	o.log.Info().Msg("retry armed")
}

// commitLoaded finalizes a successful load: lifecycle to Ready and the
// active pointer updated atomically. A canceled caller commits nothing.
func (o *Orchestrator) commitLoaded(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil || o.isCanceled() {
		o.log.Debug().Str("wallet", id).Msg("load canceled before commit")
		return err
	}

	o.mu.Lock()
	o.lifecycle = wallet.Reduce(o.lifecycle, wallet.WalletLoaded{WalletID: id})
	o.activeWalletID = id
	o.publishLocked()
	o.mu.Unlock()

	o.cache.SetActiveWallet(id)
	o.log.Info().Str("wallet", id).Msg("wallet loaded")
	return nil
}

// failLoad classifies an initialize failure: decryption-shaped errors
// quarantine the wallet, authentication-shaped errors arm the cooldown,
// everything else just drives the machine to Errored.
func (o *Orchestrator) failLoad(ctx context.Context, id string, err error) error {
	if IsDecryptionError(err) {
		return o.quarantine(ctx, id, err)
	}
	if lanterr.Is(err, lanterr.ErrAuthentication) {
		o.mu.Lock()
		o.cooldownAt = time.Now()
		o.mu.Unlock()
	}
	return o.failLoadErr(ctx, id, err)
}

// failLoadErr drives the machine to Errored with err as cause.
func (o *Orchestrator) failLoadErr(_ context.Context, id string, err error) error {
	o.apply(wallet.WalletError{WalletID: id, Cause: err})
	return err
}

// checkCooldown fails fast while inside the auth-failure window.
func (o *Orchestrator) checkCooldown() error {
	o.mu.Lock()
	at := o.cooldownAt
	o.mu.Unlock()

	if at.IsZero() {
		return nil
	}
	window := o.cfg.Security.AuthCooldown()
	elapsed := time.Since(at)
	if elapsed >= window {
		return nil
	}
	remaining := window - elapsed
	return lanterr.WithDetails(
		lanterr.Wrap(lanterr.ErrAuthCooldown,
			"authentication failed recently, retry in %dms", remaining.Milliseconds()),
		map[string]string{"remaining_ms": remaining.Truncate(time.Millisecond).String()},
	)
}

func (o *Orchestrator) recordLoad(err error) {
	if o.metrics != nil {
		o.metrics.RecordLoadOp(err)
	}
}
