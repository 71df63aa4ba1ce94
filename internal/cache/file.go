package cache

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/mrz1836/lantern/internal/fileutil"
)

const (
	// stateFilePermissions is the permission mode for the state file.
	stateFilePermissions = 0o640

	// stateDirPermissions is the permission mode for the state directory.
	stateDirPermissions = 0o750

	// stateDocumentVersion is the current on-disk document version.
	stateDocumentVersion = 1
)

// StateDocument is the persisted client state: cached derived data plus the
// identity bookkeeping that must survive restarts. Loading and starting
// flags are persisted for diagnostics but never rehydrated as true; a fresh
// process has nothing in flight.
type StateDocument struct {
	Version            int                     `json:"version"`
	Addresses          map[string]AddressEntry `json:"addresses"`
	Balances           map[string]BalanceEntry `json:"balances"`
	LastBalanceUpdate  map[string]time.Time    `json:"last_balance_update"`
	WalletList         []string                `json:"wallet_list"`
	ActiveWalletID     string                  `json:"active_wallet_id"`
	ActiveAccountIndex map[string]int          `json:"active_account_index"`
	EngineStarting     bool                    `json:"engine_starting"`
	WalletLoading      bool                    `json:"wallet_loading"`
	SavedAt            time.Time               `json:"saved_at"`
}

// FileStorage persists the state document to one JSON file.
type FileStorage struct {
	path string
	log  zerolog.Logger
}

// NewFileStorage creates file-backed state persistence at path.
func NewFileStorage(path string, log zerolog.Logger) *FileStorage {
	return &FileStorage{
		path: path,
		log:  log.With().Str("component", "cache").Logger(),
	}
}

// Path returns the state file path.
func (f *FileStorage) Path() string {
	return f.path
}

// Save writes the document atomically, creating the directory on demand.
func (f *FileStorage) Save(doc *StateDocument) error {
	if err := os.MkdirAll(filepath.Dir(f.path), stateDirPermissions); err != nil {
		return fmt.Errorf("creating state directory: %w", err)
	}

	doc.Version = stateDocumentVersion
	doc.SavedAt = time.Now().UTC()

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling state: %w", err)
	}
	if err := fileutil.WriteAtomic(f.path, data, stateFilePermissions); err != nil {
		return fmt.Errorf("writing state file: %w", err)
	}
	return nil
}

// Load reads the document. A missing file yields an empty document. A
// corrupted file is moved aside and an empty document is returned; starting
// over beats refusing to start.
func (f *FileStorage) Load() *StateDocument {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if !os.IsNotExist(err) {
			f.log.Warn().Err(err).Msg("reading state file")
		}
		return emptyDocument()
	}

	var doc StateDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		corruptPath := fmt.Sprintf("%s.corrupt.%d", f.path, time.Now().UTC().UnixNano())
		if renameErr := os.Rename(f.path, corruptPath); renameErr != nil {
			f.log.Warn().Err(err).Msg("state file is corrupted and could not be moved aside")
		} else {
			f.log.Warn().Err(err).Str("moved_to", corruptPath).Msg("state file is corrupted")
		}
		return emptyDocument()
	}

	if doc.Addresses == nil {
		doc.Addresses = make(map[string]AddressEntry)
	}
	if doc.Balances == nil {
		doc.Balances = make(map[string]BalanceEntry)
	}
	if doc.LastBalanceUpdate == nil {
		doc.LastBalanceUpdate = make(map[string]time.Time)
	}
	if doc.ActiveAccountIndex == nil {
		doc.ActiveAccountIndex = make(map[string]int)
	}

	// In-flight flags never survive a restart.
	doc.EngineStarting = false
	doc.WalletLoading = false

	return &doc
}

// Delete removes the state file. Missing files are fine.
func (f *FileStorage) Delete() error {
	if err := os.Remove(f.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing state file: %w", err)
	}
	return nil
}

func emptyDocument() *StateDocument {
	return &StateDocument{
		Version:            stateDocumentVersion,
		Addresses:          make(map[string]AddressEntry),
		Balances:           make(map[string]BalanceEntry),
		LastBalanceUpdate:  make(map[string]time.Time),
		ActiveAccountIndex: make(map[string]int),
	}
}

// Export snapshots the store into a persistable document.
func (s *Store) Export() *StateDocument {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc := emptyDocument()
	for k, v := range s.addresses {
		doc.Addresses[k] = v
	}
	for k, v := range s.balances {
		doc.Balances[k] = v
	}
	for k, v := range s.lastBalanceUpdate {
		doc.LastBalanceUpdate[k] = v
	}
	for k, v := range s.activeAccount {
		doc.ActiveAccountIndex[k] = v
	}
	doc.WalletList = append([]string(nil), s.walletList...)
	doc.ActiveWalletID = s.activeWalletID
	return doc
}

// Hydrate replaces the store's contents with a loaded document.
func (s *Store) Hydrate(doc *StateDocument) {
	if doc == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.addresses = make(map[string]AddressEntry, len(doc.Addresses))
	for k, v := range doc.Addresses {
		s.addresses[k] = v
	}
	s.balances = make(map[string]BalanceEntry, len(doc.Balances))
	for k, v := range doc.Balances {
		s.balances[k] = v
	}
	s.lastBalanceUpdate = make(map[string]time.Time, len(doc.LastBalanceUpdate))
	for k, v := range doc.LastBalanceUpdate {
		s.lastBalanceUpdate[k] = v
	}
	s.activeAccount = make(map[string]int, len(doc.ActiveAccountIndex))
	for k, v := range doc.ActiveAccountIndex {
		s.activeAccount[k] = v
	}
	s.walletList = append([]string(nil), doc.WalletList...)
	s.activeWalletID = doc.ActiveWalletID
}
