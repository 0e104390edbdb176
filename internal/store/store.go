package store

import (
	"errors"

	"github.com/yourorg/playground/pkg/types"
)

// DefaultCredentialScope is the key the credential is kept under when no
// other scope is configured.
const DefaultCredentialScope = "cloudindex_api_key"

// ErrNotFound is returned for unknown history ids.
var ErrNotFound = errors.New("not found")

// CredentialStore keeps one secret per scope. A missing scope reads as "".
type CredentialStore interface {
	GetCredential(scope string) (string, error)
	SetCredential(scope, value string) error
}

// HistoryStore records live submissions.
type HistoryStore interface {
	SaveHistory(entry *types.HistoryEntry) error
	ListHistory(limit int) ([]types.HistoryEntry, error)
	GetHistory(id string) (*types.HistoryEntry, error)
	DeleteHistory(id string) error
}

type Store interface {
	CredentialStore
	HistoryStore
	Close() error
}
