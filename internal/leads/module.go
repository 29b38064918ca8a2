// Package leads provides the lead management bounded context module.
// This file defines the module that encapsulates all leads setup and route registration.
package leads

import (
	"estate_crm_backend/internal/adapters/storage"
	apphttp "estate_crm_backend/internal/http"
	"estate_crm_backend/internal/leads/handler"
	"estate_crm_backend/internal/leads/repository"
	"estate_crm_backend/internal/leads/service"
	"estate_crm_backend/platform/logger"
	"estate_crm_backend/platform/validator"
)

// Module is the leads bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
	repo    repository.LeadsRepository
}

// NewModule creates the leads module on top of an already selected
// repository driver and document file store.
func NewModule(repo repository.LeadsRepository, files service.DocumentFiles, val *validator.Validator, policy storage.UploadPolicy, log *logger.Logger) *Module {
	svc := service.New(repo, files, log)
	h := handler.New(svc, val, policy)

	return &Module{
		handler: h,
		service: svc,
		repo:    repo,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "leads"
}

// Service returns the lead service so the composition root can attach
// optional collaborators (idempotency store, cleanup scheduler, metrics).
func (m *Module) Service() *service.Service {
	return m.service
}

// Repository returns the underlying lead repository, used for health checks.
func (m *Module) Repository() repository.LeadsRepository {
	return m.repo
}

// RegisterRoutes mounts leads routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.Mount("/leads", m.handler.RegisterRoutes)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
