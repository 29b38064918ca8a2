package repository

import (
	"context"
	"sync"
	"time"

	"estate_crm_backend/internal/shared/query"

	"github.com/google/uuid"
)

// MemoryRepository keeps properties in process memory, in insertion order.
type MemoryRepository struct {
	mu         sync.RWMutex
	properties map[string]Property
	order      []string
	now        func() time.Time
}

// NewMemory creates an empty in-memory property repository.
func NewMemory() *MemoryRepository {
	return &MemoryRepository{
		properties: make(map[string]Property),
		now:        func() time.Time { return time.Now().UTC() },
	}
}

func (r *MemoryRepository) Ping(context.Context) error { return nil }

func (r *MemoryRepository) Create(ctx context.Context, params CreatePropertyParams) (Property, error) {
	if err := ctx.Err(); err != nil {
		return Property{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	property := Property{
		ID:           uuid.NewString(),
		Type:         params.Type,
		Size:         params.Size,
		Location:     params.Location,
		Budget:       params.Budget,
		Availability: params.Availability,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	r.properties[property.ID] = property
	r.order = append(r.order, property.ID)
	return property, nil
}

func (r *MemoryRepository) GetByID(ctx context.Context, id string) (Property, error) {
	if err := ctx.Err(); err != nil {
		return Property{}, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	property, ok := r.properties[id]
	if !ok {
		return Property{}, ErrNotFound
	}
	return property, nil
}

func (r *MemoryRepository) List(ctx context.Context, params ListParams) ([]Property, int, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	matched := make([]Property, 0, len(r.order))
	for _, id := range r.order {
		property := r.properties[id]
		if params.Location == "" || query.ContainsFold(property.Location, params.Location) {
			matched = append(matched, property)
		}
	}

	total := len(matched)
	start := params.Page.Offset()
	if start < 0 || start >= total {
		return []Property{}, total, nil
	}
	end := min(start+params.Page.Limit, total)

	return append([]Property(nil), matched[start:end]...), total, nil
}

func (r *MemoryRepository) Update(ctx context.Context, id string, params UpdatePropertyParams) (Property, error) {
	if err := ctx.Err(); err != nil {
		return Property{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	property, ok := r.properties[id]
	if !ok {
		return Property{}, ErrNotFound
	}
	if params.Type != nil {
		property.Type = *params.Type
	}
	if params.Size != nil {
		property.Size = *params.Size
	}
	if params.Location != nil {
		property.Location = *params.Location
	}
	if params.Budget != nil {
		property.Budget = *params.Budget
	}
	if params.Availability != nil {
		property.Availability = *params.Availability
	}
	property.UpdatedAt = r.now()

	r.properties[id] = property
	return property, nil
}

func (r *MemoryRepository) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.properties[id]; !ok {
		return ErrNotFound
	}
	delete(r.properties, id)
	for i, existing := range r.order {
		if existing == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

var _ PropertiesRepository = (*MemoryRepository)(nil)
