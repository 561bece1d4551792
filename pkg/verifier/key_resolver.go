package verifier

import (
	"context"
	"crypto"
	"crypto/ed25519"
	"fmt"
	"strings"
	"sync"

	"github.com/sage-x-project/sage/pkg/agent/did"
)

// StaticKeyResolver resolves keys from an in-memory table
type StaticKeyResolver struct {
	mu   sync.RWMutex
	keys map[string]ed25519.PublicKey
}

// NewStaticKeyResolver creates a resolver seeded with keys (may be nil).
func NewStaticKeyResolver(keys map[string]ed25519.PublicKey) *StaticKeyResolver {
	r := &StaticKeyResolver{keys: make(map[string]ed25519.PublicKey, len(keys))}
	for id, pub := range keys {
		r.keys[id] = pub
	}
	return r
}

// Register sets the public key of agentID, replacing any previous key.
func (r *StaticKeyResolver) Register(agentID string, pub ed25519.PublicKey) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.keys[agentID] = pub
}

// ResolvePublicKey implements PublicKeyResolver.
func (r *StaticKeyResolver) ResolvePublicKey(ctx context.Context, agentID string) (crypto.PublicKey, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	pub, ok := r.keys[agentID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownAgent, agentID)
	}
	return pub, nil
}

// DIDRegistryClient is the part of a SAGE DID registry client the resolver
// needs. ethereum.EthereumClientV4 satisfies it.
type DIDRegistryClient interface {
	// ResolveAllPublicKeys resolves all verified public keys for an agent
	ResolveAllPublicKeys(ctx context.Context, agentDID did.AgentDID) ([]did.AgentKey, error)

	// ResolvePublicKeyByType resolves a public key of specific type
	ResolvePublicKeyByType(ctx context.Context, agentDID did.AgentDID, keyType did.KeyType) (interface{}, error)
}

// DIDKeyResolver resolves agent ids that are SAGE DIDs to their registered
// Ed25519 key
type DIDKeyResolver struct {
	client DIDRegistryClient
}

// NewDIDKeyResolver creates a DIDKeyResolver
func NewDIDKeyResolver(client DIDRegistryClient) *DIDKeyResolver {
	return &DIDKeyResolver{client: client}
}

// ResolvePublicKey implements PublicKeyResolver.
func (r *DIDKeyResolver) ResolvePublicKey(ctx context.Context, agentID string) (crypto.PublicKey, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}
	if !isValidDID(agentID) {
		return nil, fmt.Errorf("%w: %q is not a SAGE DID", ErrUnknownAgent, agentID)
	}
	agentDID := did.AgentDID(agentID)

	// Fast path: ask the registry for the Ed25519 key directly
	pubKey, err := r.client.ResolvePublicKeyByType(ctx, agentDID, did.KeyTypeEd25519)
	if err == nil {
		if pub, ok := pubKey.(ed25519.PublicKey); ok {
			return pub, nil
		}
	}

	// Fallback: scan the verified keys
	agentKeys, err := r.client.ResolveAllPublicKeys(ctx, agentDID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve keys: %w", err)
	}
	for _, k := range agentKeys {
		if k.Type != did.KeyTypeEd25519 || !k.Verified {
			continue
		}
		raw, err := did.UnmarshalPublicKey(k.KeyData, "ed25519")
		if err != nil {
			return nil, fmt.Errorf("failed to unmarshal public key: %w", err)
		}
		if pub, ok := raw.(ed25519.PublicKey); ok {
			return pub, nil
		}
	}

	return nil, fmt.Errorf("%w: no verified ed25519 key for DID %s", ErrUnknownAgent, agentDID)
}

// isValidDID does a basic shape check
func isValidDID(didStr string) bool {
	return strings.HasPrefix(didStr, "did:sage:")
}
