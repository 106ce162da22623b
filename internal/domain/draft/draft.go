// Package draft keeps unfinished forms so a user can resume them.
package draft

import (
	"context"
	"encoding/json"
	"regexp"
	"sync"
	"time"

	"garageflow/internal/core/apperror"
	"garageflow/internal/core/id"
)

// MaxPayloadSize bounds one snapshot.
const MaxPayloadSize = 256 << 10

var formKeyRE = regexp.MustCompile(`^[a-z0-9][a-z0-9._:-]{0,63}$`)

// Key identifies one draft: a form of one user in one garage.
type Key struct {
	GarageID id.ID
	UserID   string
	FormKey  string
}

// Validate checks the key parts.
func (k Key) Validate() error {
	if id.IsNil(k.GarageID) {
		return apperror.NewForbidden("no garage in request scope")
	}
	if k.UserID == "" {
		return apperror.NewUnauthorized("draft requires a user")
	}
	if !formKeyRE.MatchString(k.FormKey) {
		return apperror.NewValidation("invalid form key").WithDetail("field", "formKey")
	}
	return nil
}

// Draft is a saved form snapshot.
type Draft struct {
	Key     Key             `json:"-"`
	Payload json.RawMessage `json:"payload"`
	SavedAt time.Time       `json:"savedAt"`
}

// Store persists drafts.
type Store interface {
	// Load returns the draft, or found=false when none is stored.
	Load(ctx context.Context, key Key) (d *Draft, found bool, err error)
	Save(ctx context.Context, d *Draft) error
	Clear(ctx context.Context, key Key) error
}

// ValidatePayload checks size and JSON well-formedness.
func ValidatePayload(payload []byte) error {
	if len(payload) == 0 {
		return apperror.NewValidation("draft payload is empty")
	}
	if len(payload) > MaxPayloadSize {
		return apperror.NewValidation("draft payload too large").WithDetail("max", MaxPayloadSize)
	}
	if !json.Valid(payload) {
		return apperror.NewValidation("draft payload must be JSON")
	}
	return nil
}

// MemoryStore keeps drafts in process memory.
type MemoryStore struct {
	mu     sync.RWMutex
	drafts map[Key]Draft
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{drafts: make(map[Key]Draft)}
}

func (s *MemoryStore) Load(_ context.Context, key Key) (*Draft, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.drafts[key]
	if !ok {
		return nil, false, nil
	}
	d.Payload = append(json.RawMessage(nil), d.Payload...)
	return &d, true, nil
}

func (s *MemoryStore) Save(_ context.Context, d *Draft) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *d
	cp.Payload = append(json.RawMessage(nil), d.Payload...)
	s.drafts[d.Key] = cp
	return nil
}

func (s *MemoryStore) Clear(_ context.Context, key Key) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.drafts, key)
	return nil
}
