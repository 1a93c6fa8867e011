// Package memory holds mutex-guarded, process-local stores. They back
// STORE_DRIVER=memory for local development and the end-to-end tests.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/go-magic-auth/internal/domain"
)

type verificationKey struct {
	verType string
	target  string
}

// VerificationRepo keeps one verification per (type, target).
type VerificationRepo struct {
	mu    sync.Mutex
	items map[verificationKey]domain.Verification
}

func NewVerificationRepo() *VerificationRepo {
	return &VerificationRepo{items: make(map[verificationKey]domain.Verification)}
}

func (r *VerificationRepo) Save(_ context.Context, v *domain.Verification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[verificationKey{v.Type, v.Target}] = *v
	return nil
}

func (r *VerificationRepo) FindByTypeAndTarget(_ context.Context, verType, target string) (*domain.Verification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.items[verificationKey{verType, target}]
	if !ok {
		return nil, fmt.Errorf("verification not found: %w", domain.ErrNotFound)
	}
	return &v, nil
}

func (r *VerificationRepo) DeleteByTypeAndTarget(_ context.Context, verType, target string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.items, verificationKey{verType, target})
	return nil
}

func (r *VerificationRepo) Consume(_ context.Context, verType, target, secret string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	k := verificationKey{verType, target}
	v, ok := r.items[k]
	if !ok || v.Secret != secret {
		return fmt.Errorf("verification not found: %w", domain.ErrNotFound)
	}
	delete(r.items, k)
	return nil
}

// Len reports the number of stored verifications.
func (r *VerificationRepo) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.items)
}
