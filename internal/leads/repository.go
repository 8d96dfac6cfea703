package leads

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Repository defines the interface for lead storage
type Repository interface {
	Create(ctx context.Context, req *CreateLeadRequest) (*Lead, error)
	GetByID(ctx context.Context, id string) (*Lead, error)
	List(ctx context.Context) ([]*Lead, error)
}

// InMemoryRepository stores leads in process memory. The engine treats
// lead storage as lossy; a missed lead is an accepted failure mode.
type InMemoryRepository struct {
	mu    sync.RWMutex
	leads map[string]*Lead
	order []string
}

// NewInMemoryRepository creates a new in-memory repository
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		leads: make(map[string]*Lead),
	}
}

// Create creates a new lead in memory
func (r *InMemoryRepository) Create(ctx context.Context, req *CreateLeadRequest) (*Lead, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	lead := &Lead{
		ID:         uuid.New().String(),
		SessionID:  req.SessionID,
		Name:       req.Name,
		Email:      req.Email,
		Company:    req.Company,
		Phone:      req.Phone,
		Industry:   req.Industry,
		Goals:      req.Goals,
		Message:    req.Message,
		Source:     req.Source,
		Score:      req.Score,
		Transcript: req.Transcript,
		CreatedAt:  time.Now().UTC(),
	}

	r.mu.Lock()
	r.leads[lead.ID] = lead
	r.order = append(r.order, lead.ID)
	r.mu.Unlock()

	return lead, nil
}

// GetByID retrieves a lead by ID
func (r *InMemoryRepository) GetByID(ctx context.Context, id string) (*Lead, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	lead, ok := r.leads[id]
	if !ok {
		return nil, ErrLeadNotFound
	}

	return lead, nil
}

// List returns all leads in creation order.
func (r *InMemoryRepository) List(ctx context.Context) ([]*Lead, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Lead, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.leads[id])
	}
	return out, nil
}
