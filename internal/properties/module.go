// Package properties provides the property listing bounded context module.
package properties

import (
	apphttp "estate_crm_backend/internal/http"
	"estate_crm_backend/internal/properties/handler"
	"estate_crm_backend/internal/properties/repository"
	"estate_crm_backend/internal/properties/service"
	"estate_crm_backend/platform/logger"
	"estate_crm_backend/platform/validator"
)

// Module is the properties bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates the properties module on top of a repository driver.
func NewModule(repo repository.PropertiesRepository, val *validator.Validator, log *logger.Logger) *Module {
	svc := service.New(repo, log)
	return &Module{
		handler: handler.New(svc, val),
		service: svc,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "properties"
}

// Service returns the property service for the composition root.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts property routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.Mount("/properties", m.handler.RegisterRoutes)
}

var _ apphttp.Module = (*Module)(nil)
