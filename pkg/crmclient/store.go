package crmclient

import (
	"context"
	"slices"
	"sync"

	"estate_crm_backend/platform/logger"

	"golang.org/x/sync/errgroup"
)

// Backend is the API surface the Store depends on. *Client implements it.
type Backend interface {
	ListLeads(ctx context.Context, opts ListOptions) ([]Lead, int, error)
	CreateLead(ctx context.Context, in LeadInput) (Lead, error)
	UpdateLead(ctx context.Context, id string, patch LeadPatch) (Lead, error)
	DeleteLead(ctx context.Context, id string) error
	UploadDocument(ctx context.Context, leadID string, doc Document, idempotencyKey string) (Lead, error)

	ListProperties(ctx context.Context, opts ListOptions) ([]Property, int, error)
	CreateProperty(ctx context.Context, in PropertyInput) (Property, error)
	UpdateProperty(ctx context.Context, id string, patch PropertyPatch) (Property, error)
	DeleteProperty(ctx context.Context, id string) error
}

// Change tells subscribers which cached list was replaced.
type Change int

const (
	LeadsChanged Change = iota + 1
	PropertiesChanged
)

func (c Change) String() string {
	switch c {
	case LeadsChanged:
		return "leads"
	case PropertiesChanged:
		return "properties"
	default:
		return "unknown"
	}
}

// Store caches the current page of leads and properties. Lead mutations patch
// the cache from the server response; property mutations re-fetch the page.
// The server stays the source of truth. Safe for concurrent use.
type Store struct {
	backend Backend
	log     *logger.Logger

	mu            sync.RWMutex
	leads         []Lead
	leadTotal     int
	leadQuery     ListOptions
	properties    []Property
	propertyTotal int
	propertyQuery ListOptions

	subMu       sync.Mutex
	subscribers map[int]func(Change)
	nextSubID   int
}

// NewStore creates an empty store. Call Refresh to load it.
func NewStore(backend Backend, log *logger.Logger) *Store {
	if log == nil {
		log = logger.Discard()
	}
	return &Store{
		backend:     backend,
		log:         log,
		leads:       []Lead{},
		properties:  []Property{},
		subscribers: make(map[int]func(Change)),
	}
}

// Subscribe registers fn to run after each cache change and returns a
// function that removes it. fn runs on the mutating goroutine.
func (s *Store) Subscribe(fn func(Change)) (unsubscribe func()) {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	id := s.nextSubID
	s.nextSubID++
	s.subscribers[id] = fn

	return func() {
		s.subMu.Lock()
		defer s.subMu.Unlock()
		delete(s.subscribers, id)
	}
}

func (s *Store) notify(change Change) {
	s.subMu.Lock()
	fns := make([]func(Change), 0, len(s.subscribers))
	for _, fn := range s.subscribers {
		fns = append(fns, fn)
	}
	s.subMu.Unlock()

	for _, fn := range fns {
		fn(change)
	}
}

// Leads returns a copy of the cached leads.
func (s *Store) Leads() []Lead {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Lead, len(s.leads))
	for i, lead := range s.leads {
		lead.Documents = slices.Clone(lead.Documents)
		out[i] = lead
	}
	return out
}

// LeadTotal is the number of leads matching the last lead query.
func (s *Store) LeadTotal() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.leadTotal
}

// Properties returns a copy of the cached properties.
func (s *Store) Properties() []Property {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.properties)
}

// PropertyTotal is the number of properties matching the last property query.
func (s *Store) PropertyTotal() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.propertyTotal
}

// Refresh reloads both lists concurrently with their last queries.
func (s *Store) Refresh(ctx context.Context) error {
	s.mu.RLock()
	leadQuery, propertyQuery := s.leadQuery, s.propertyQuery
	s.mu.RUnlock()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return s.LoadLeads(gctx, leadQuery) })
	g.Go(func() error { return s.LoadProperties(gctx, propertyQuery) })
	return g.Wait()
}

// LoadLeads replaces the cached leads with the page selected by opts.
func (s *Store) LoadLeads(ctx context.Context, opts ListOptions) error {
	leads, total, err := s.backend.ListLeads(ctx, opts)
	if err != nil {
		s.log.Error("failed to fetch leads", "error", err)
		return err
	}

	s.mu.Lock()
	s.leads = nonNil(leads)
	s.leadTotal = total
	s.leadQuery = opts
	s.mu.Unlock()

	s.notify(LeadsChanged)
	return nil
}

// LoadProperties replaces the cached properties with the page selected by opts.
func (s *Store) LoadProperties(ctx context.Context, opts ListOptions) error {
	properties, total, err := s.backend.ListProperties(ctx, opts)
	if err != nil {
		s.log.Error("failed to fetch properties", "error", err)
		return err
	}

	s.mu.Lock()
	s.properties = nonNil(properties)
	s.propertyTotal = total
	s.propertyQuery = opts
	s.mu.Unlock()

	s.notify(PropertiesChanged)
	return nil
}

func (s *Store) AddLead(ctx context.Context, in LeadInput) (Lead, error) {
	lead, err := s.backend.CreateLead(ctx, in)
	if err != nil {
		s.log.Error("failed to add lead", "error", err)
		return Lead{}, err
	}

	s.mu.Lock()
	s.leads = append(s.leads, lead)
	s.leadTotal++
	s.mu.Unlock()

	s.notify(LeadsChanged)
	return lead, nil
}

func (s *Store) EditLead(ctx context.Context, id string, patch LeadPatch) (Lead, error) {
	lead, err := s.backend.UpdateLead(ctx, id, patch)
	if err != nil {
		s.log.Error("failed to edit lead", "error", err, "leadId", id)
		return Lead{}, err
	}

	s.replaceLead(lead)
	return lead, nil
}

// AttachDocument uploads doc and swaps in the updated lead.
func (s *Store) AttachDocument(ctx context.Context, id string, doc Document, idempotencyKey string) (Lead, error) {
	lead, err := s.backend.UploadDocument(ctx, id, doc, idempotencyKey)
	if err != nil {
		s.log.Error("failed to upload document", "error", err, "leadId", id)
		return Lead{}, err
	}

	s.replaceLead(lead)
	return lead, nil
}

func (s *Store) DeleteLead(ctx context.Context, id string) error {
	if err := s.backend.DeleteLead(ctx, id); err != nil {
		s.log.Error("failed to delete lead", "error", err, "leadId", id)
		return err
	}

	s.mu.Lock()
	before := len(s.leads)
	s.leads = slices.DeleteFunc(s.leads, func(l Lead) bool { return l.ID == id })
	if len(s.leads) < before && s.leadTotal > 0 {
		s.leadTotal--
	}
	s.mu.Unlock()

	s.notify(LeadsChanged)
	return nil
}

func (s *Store) replaceLead(lead Lead) {
	s.mu.Lock()
	if i := slices.IndexFunc(s.leads, func(l Lead) bool { return l.ID == lead.ID }); i >= 0 {
		s.leads[i] = lead
	}
	s.mu.Unlock()

	s.notify(LeadsChanged)
}

func (s *Store) AddProperty(ctx context.Context, in PropertyInput) (Property, error) {
	property, err := s.backend.CreateProperty(ctx, in)
	if err != nil {
		s.log.Error("failed to add property", "error", err)
		return Property{}, err
	}
	return property, s.reloadProperties(ctx)
}

func (s *Store) UpdateProperty(ctx context.Context, id string, patch PropertyPatch) (Property, error) {
	property, err := s.backend.UpdateProperty(ctx, id, patch)
	if err != nil {
		s.log.Error("failed to update property", "error", err, "propertyId", id)
		return Property{}, err
	}
	return property, s.reloadProperties(ctx)
}

func (s *Store) DeleteProperty(ctx context.Context, id string) error {
	if err := s.backend.DeleteProperty(ctx, id); err != nil {
		s.log.Error("failed to delete property", "error", err, "propertyId", id)
		return err
	}
	return s.reloadProperties(ctx)
}

func (s *Store) reloadProperties(ctx context.Context) error {
	s.mu.RLock()
	query := s.propertyQuery
	s.mu.RUnlock()
	return s.LoadProperties(ctx, query)
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}

var _ Backend = (*Client)(nil)
