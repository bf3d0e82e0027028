package lead

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Claim is a captured record tied to the prize it unlocked.
type Claim struct {
	ID         uuid.UUID `json:"id"`
	SessionID  string    `json:"sessionId"`
	Prize      string    `json:"prize"`
	RewardCode string    `json:"rewardCode"`
	Record     Record    `json:"record"`
	CreatedAt  time.Time `json:"createdAt"`
}

// Repository stores claims.
type Repository interface {
	Save(ctx context.Context, claim Claim) error
	Recent(ctx context.Context, limit int) ([]Claim, error)
}

var ErrDuplicateClaim = errors.New("claim already stored")

// MemoryRepository keeps claims in process memory.
type MemoryRepository struct {
	mu     sync.RWMutex
	claims map[uuid.UUID]Claim
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{claims: make(map[uuid.UUID]Claim)}
}

func (r *MemoryRepository) Save(_ context.Context, claim Claim) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.claims[claim.ID]; ok {
		return ErrDuplicateClaim
	}
	r.claims[claim.ID] = claim
	return nil
}

func (r *MemoryRepository) Recent(_ context.Context, limit int) ([]Claim, error) {
	r.mu.RLock()
	out := make([]Claim, 0, len(r.claims))
	for _, c := range r.claims {
		out = append(out, c)
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Service turns submitted records into stored claims.
type Service struct {
	repo       Repository
	rewardCode string
	now        func() time.Time
}

func NewService(repo Repository, rewardCode string) *Service {
	return &Service{
		repo:       repo,
		rewardCode: rewardCode,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// RewardCode is the code shown to every winner.
func (s *Service) RewardCode() string {
	return s.rewardCode
}

// Capture stores the record against the prize and returns the claim.
func (s *Service) Capture(ctx context.Context, sessionID, prize string, rec Record) (Claim, error) {
	claim := Claim{
		ID:         uuid.New(),
		SessionID:  sessionID,
		Prize:      prize,
		RewardCode: s.rewardCode,
		Record:     rec,
		CreatedAt:  s.now(),
	}
	if err := s.repo.Save(ctx, claim); err != nil {
		return Claim{}, fmt.Errorf("save claim: %w", err)
	}
	return claim, nil
}

// Recent lists the newest claims.
func (s *Service) Recent(ctx context.Context, limit int) ([]Claim, error) {
	return s.repo.Recent(ctx, limit)
}
