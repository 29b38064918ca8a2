package service

import (
	"context"
	"errors"
	"strings"

	"estate_crm_backend/internal/filestore"
	"estate_crm_backend/internal/leads/repository"
	"estate_crm_backend/internal/leads/transport"
	"estate_crm_backend/internal/scheduler"
	"estate_crm_backend/internal/shared/query"
	"estate_crm_backend/platform/apperr"
	"estate_crm_backend/platform/idempotency"
	"estate_crm_backend/platform/logger"
	"estate_crm_backend/platform/metrics"
	"estate_crm_backend/platform/phone"
	"estate_crm_backend/platform/sanitize"
)

const (
	msgLeadNotFound     = "lead not found"
	msgDocumentNotFound = "document not found"
	msgDuplicatePhone   = "a lead with this phone number already exists"
	msgNameRequired     = "name is required"
	msgPhoneRequired    = "phone is required"
	metricsEntity       = "lead"
)

// DocumentFiles stores and removes the files behind document references.
type DocumentFiles interface {
	Upload(ctx context.Context, upload filestore.FileUpload) (filestore.Reference, error)
	Remove(ctx context.Context, ref filestore.Reference) error
	Bucket() string
}

type Service struct {
	repo        repository.LeadsRepository
	files       DocumentFiles
	tokens      idempotency.Store
	cleanup     scheduler.CleanupScheduler
	phoneRegion string
	metrics     *metrics.Metrics
	log         *logger.Logger
}

func New(repo repository.LeadsRepository, files DocumentFiles, log *logger.Logger) *Service {
	return &Service{
		repo:        repo,
		files:       files,
		tokens:      idempotency.NewMemoryStore(idempotency.DefaultTTL),
		phoneRegion: phone.DefaultRegion,
		log:         log,
	}
}

// SetIdempotencyStore replaces the in-memory upload token store.
func (s *Service) SetIdempotencyStore(store idempotency.Store) {
	if store != nil {
		s.tokens = store
	}
}

// SetCleanupScheduler enables deferred deletion of orphaned uploads.
func (s *Service) SetCleanupScheduler(cleanup scheduler.CleanupScheduler) {
	s.cleanup = cleanup
}

// SetPhoneRegion sets the region used for numbers without a country code.
func (s *Service) SetPhoneRegion(region string) {
	if region != "" {
		s.phoneRegion = region
	}
}

func (s *Service) SetMetrics(m *metrics.Metrics) {
	s.metrics = m
}

func (s *Service) Create(ctx context.Context, req transport.CreateLeadRequest) (lead transport.LeadResponse, err error) {
	defer func() { s.metrics.RecordOperation(metricsEntity, "create", err) }()

	name := sanitize.Text(req.Name)
	if name == "" {
		return transport.LeadResponse{}, apperr.Validation(msgNameRequired)
	}
	phoneNumber := strings.TrimSpace(req.Phone)
	if phoneNumber == "" {
		return transport.LeadResponse{}, apperr.Validation(msgPhoneRequired)
	}

	created, err := s.repo.Create(ctx, repository.CreateLeadParams{
		Name:     name,
		Phone:    phoneNumber,
		PhoneKey: phone.NormalizeE164(phoneNumber, s.phoneRegion),
	})
	if err != nil {
		return transport.LeadResponse{}, mapRepoError(err)
	}

	s.log.WithContext(ctx).Info("lead created", "leadId", created.ID)
	return toLeadResponse(created), nil
}

func (s *Service) List(ctx context.Context, search string, page query.Page) (transport.LeadListResponse, error) {
	leads, total, err := s.repo.List(ctx, repository.ListParams{
		Search: strings.TrimSpace(search),
		Page:   page,
	})
	s.metrics.RecordOperation(metricsEntity, "list", err)
	if err != nil {
		return transport.LeadListResponse{}, err
	}

	items := make([]transport.LeadResponse, len(leads))
	for i, lead := range leads {
		items[i] = toLeadResponse(lead)
	}

	return transport.LeadListResponse{
		Items: items,
		Total: total,
		Page:  page.Page,
		Limit: page.Limit,
	}, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (transport.LeadResponse, error) {
	lead, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return transport.LeadResponse{}, mapRepoError(err)
	}
	return toLeadResponse(lead), nil
}

func (s *Service) Update(ctx context.Context, id string, patch transport.LeadPatch) (lead transport.LeadResponse, err error) {
	defer func() { s.metrics.RecordOperation(metricsEntity, "update", err) }()

	params := repository.UpdateLeadParams{}
	if patch.Name != nil {
		name := sanitize.Text(*patch.Name)
		if name == "" {
			return transport.LeadResponse{}, apperr.Validation(msgNameRequired)
		}
		params.Name = &name
	}
	if patch.Phone != nil {
		phoneNumber := strings.TrimSpace(*patch.Phone)
		if phoneNumber == "" {
			return transport.LeadResponse{}, apperr.Validation(msgPhoneRequired)
		}
		phoneKey := phone.NormalizeE164(phoneNumber, s.phoneRegion)
		params.Phone = &phoneNumber
		params.PhoneKey = &phoneKey
	}

	updated, err := s.repo.Update(ctx, id, params)
	if err != nil {
		return transport.LeadResponse{}, mapRepoError(err)
	}
	return toLeadResponse(updated), nil
}

func (s *Service) Delete(ctx context.Context, id string) (err error) {
	defer func() { s.metrics.RecordOperation(metricsEntity, "delete", err) }()

	if err := s.repo.Delete(ctx, id); err != nil {
		return mapRepoError(err)
	}

	s.log.WithContext(ctx).Info("lead deleted", "leadId", id)
	return nil
}

// GetDocumentReference returns the URL at index in the lead's document list.
func (s *Service) GetDocumentReference(ctx context.Context, id string, index int) (string, error) {
	lead, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return "", mapRepoError(err)
	}
	if index < 0 || index >= len(lead.Documents) {
		return "", apperr.NotFound(msgDocumentNotFound)
	}
	return lead.Documents[index], nil
}

func mapRepoError(err error) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return apperr.NotFound(msgLeadNotFound)
	case errors.Is(err, repository.ErrDuplicatePhone):
		return apperr.Conflict(msgDuplicatePhone)
	default:
		return err
	}
}

func toLeadResponse(lead repository.Lead) transport.LeadResponse {
	docs := lead.Documents
	if docs == nil {
		docs = []string{}
	}
	return transport.LeadResponse{
		ID:        lead.ID,
		Name:      lead.Name,
		Phone:     lead.Phone,
		Documents: docs,
		CreatedAt: lead.CreatedAt,
		UpdatedAt: lead.UpdatedAt,
	}
}
