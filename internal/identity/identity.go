package identity

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/bashkah/partyroom/internal/model"
)

const (
	keyPlayerID   = "player_id"
	keyPlayerName = "player_name"
)

// KV is the small key-value collaborator identity persists through. The
// second return of Get distinguishes a missing key from an empty value.
type KV interface {
	Get(key string) (string, bool, error)
	Set(key, value string) error
}

// Provider owns this device's stable player identity. The ID is minted
// once and persisted, so every subsequent session and rejoin presents the
// same identity.
type Provider struct {
	kv KV
}

// NewProvider creates a Provider over the given KV
func NewProvider(kv KV) *Provider {
	return &Provider{kv: kv}
}

// PlayerID returns the stored player ID, minting and persisting a new one
// on first use
func (p *Provider) PlayerID() (model.PlayerID, error) {
	v, ok, err := p.kv.Get(keyPlayerID)
	if err != nil {
		return "", fmt.Errorf("reading player id: %w", err)
	}
	if ok && v != "" {
		return model.PlayerID(v), nil
	}

	id := uuid.NewString()
	if err := p.kv.Set(keyPlayerID, id); err != nil {
		return "", fmt.Errorf("persisting player id: %w", err)
	}
	return model.PlayerID(id), nil
}

// PlayerName returns the stored display name, or empty if never set
func (p *Provider) PlayerName() (string, error) {
	v, _, err := p.kv.Get(keyPlayerName)
	if err != nil {
		return "", fmt.Errorf("reading player name: %w", err)
	}
	return v, nil
}

// SetPlayerName persists the display name
func (p *Provider) SetPlayerName(name string) error {
	if err := p.kv.Set(keyPlayerName, name); err != nil {
		return fmt.Errorf("persisting player name: %w", err)
	}
	return nil
}
