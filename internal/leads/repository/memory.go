package repository

import (
	"context"
	"sync"
	"time"

	"estate_crm_backend/internal/shared/query"

	"github.com/google/uuid"
)

// MemoryRepository keeps leads in process memory, in insertion order.
type MemoryRepository struct {
	mu     sync.RWMutex
	leads  map[string]Lead
	order  []string
	// phones maps a phone key to the lead id; keys maps a lead id to its phone key.
	phones map[string]string
	keys   map[string]string
	now    func() time.Time

	// FailAppend forces AppendDocument to fail.
	FailAppend error
}

// NewMemory creates an empty in-memory lead repository.
func NewMemory() *MemoryRepository {
	return &MemoryRepository{
		leads:  make(map[string]Lead),
		phones: make(map[string]string),
		keys:   make(map[string]string),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (r *MemoryRepository) Ping(context.Context) error { return nil }

func (r *MemoryRepository) Create(ctx context.Context, params CreateLeadParams) (Lead, error) {
	if err := ctx.Err(); err != nil {
		return Lead{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, taken := r.phones[params.PhoneKey]; taken {
		return Lead{}, ErrDuplicatePhone
	}

	now := r.now()
	lead := Lead{
		ID:        uuid.NewString(),
		Name:      params.Name,
		Phone:     params.Phone,
		Documents: []string{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	r.leads[lead.ID] = lead
	r.order = append(r.order, lead.ID)
	r.phones[params.PhoneKey] = lead.ID
	r.keys[lead.ID] = params.PhoneKey
	return cloneLead(lead), nil
}

func (r *MemoryRepository) GetByID(ctx context.Context, id string) (Lead, error) {
	if err := ctx.Err(); err != nil {
		return Lead{}, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	lead, ok := r.leads[id]
	if !ok {
		return Lead{}, ErrNotFound
	}
	return cloneLead(lead), nil
}

func (r *MemoryRepository) List(ctx context.Context, params ListParams) ([]Lead, int, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	matched := make([]Lead, 0, len(r.order))
	for _, id := range r.order {
		lead := r.leads[id]
		if params.Search == "" ||
			query.ContainsFold(lead.Name, params.Search) ||
			query.ContainsFold(lead.Phone, params.Search) ||
			query.ContainsFold(r.keys[id], params.Search) {
			matched = append(matched, lead)
		}
	}

	total := len(matched)
	start := params.Page.Offset()
	if start < 0 || start >= total {
		return []Lead{}, total, nil
	}
	end := start + params.Page.Limit
	if end > total {
		end = total
	}

	page := make([]Lead, 0, end-start)
	for _, lead := range matched[start:end] {
		page = append(page, cloneLead(lead))
	}
	return page, total, nil
}

func (r *MemoryRepository) Update(ctx context.Context, id string, params UpdateLeadParams) (Lead, error) {
	if err := ctx.Err(); err != nil {
		return Lead{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	lead, ok := r.leads[id]
	if !ok {
		return Lead{}, ErrNotFound
	}

	if params.PhoneKey != nil && *params.PhoneKey != r.keys[id] {
		if _, taken := r.phones[*params.PhoneKey]; taken {
			return Lead{}, ErrDuplicatePhone
		}
		delete(r.phones, r.keys[id])
		r.phones[*params.PhoneKey] = id
		r.keys[id] = *params.PhoneKey
	}
	if params.Phone != nil {
		lead.Phone = *params.Phone
	}
	if params.Name != nil {
		lead.Name = *params.Name
	}
	lead.UpdatedAt = r.now()

	r.leads[id] = lead
	return cloneLead(lead), nil
}

func (r *MemoryRepository) AppendDocument(ctx context.Context, id string, url string) (Lead, error) {
	if err := ctx.Err(); err != nil {
		return Lead{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.FailAppend != nil {
		return Lead{}, r.FailAppend
	}

	lead, ok := r.leads[id]
	if !ok {
		return Lead{}, ErrNotFound
	}
	docs := make([]string, len(lead.Documents), len(lead.Documents)+1)
	copy(docs, lead.Documents)
	lead.Documents = append(docs, url)
	lead.UpdatedAt = r.now()

	r.leads[id] = lead
	return cloneLead(lead), nil
}

func (r *MemoryRepository) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.leads[id]; !ok {
		return ErrNotFound
	}
	delete(r.leads, id)
	delete(r.phones, r.keys[id])
	delete(r.keys, id)
	for i, existing := range r.order {
		if existing == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

func cloneLead(lead Lead) Lead {
	docs := make([]string, len(lead.Documents))
	copy(docs, lead.Documents)
	lead.Documents = docs
	return lead
}

var _ LeadsRepository = (*MemoryRepository)(nil)
