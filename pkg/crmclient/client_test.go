package crmclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"estate_crm_backend/internal/adapters/storage"
	"estate_crm_backend/internal/filestore"
	apphttp "estate_crm_backend/internal/http"
	"estate_crm_backend/internal/leads"
	leadrepo "estate_crm_backend/internal/leads/repository"
	"estate_crm_backend/internal/properties"
	propertyrepo "estate_crm_backend/internal/properties/repository"
	"estate_crm_backend/platform/logger"
	"estate_crm_backend/platform/validator"

	"github.com/gin-gonic/gin"
)

const samplePDF = "%PDF-1.4\n1 0 obj\n<<>>\nendobj\ntrailer\n<<>>\n%%EOF\n"

func newTestServer(t *testing.T) *Client {
	t.Helper()
	gin.SetMode(gin.TestMode)

	log := logger.Discard()
	val := validator.New()
	files := filestore.New(storage.NewMemoryService(""), "crm", "", nil, log)
	policy := storage.UploadPolicy{MaxFileSize: 1 << 20, EnforceContentTypes: true}

	engine := gin.New()
	rc := &apphttp.RouterContext{Engine: engine, API: engine.Group("/api")}
	leads.NewModule(leadrepo.NewMemory(), files, val, policy, log).RegisterRoutes(rc)
	properties.NewModule(propertyrepo.NewMemory(), val, log).RegisterRoutes(rc)

	srv := httptest.NewServer(engine)
	t.Cleanup(srv.Close)
	return New(srv.URL+"/api/", WithHTTPClient(srv.Client()))
}

func TestClientLeadLifecycle(t *testing.T) {
	c := newTestServer(t)
	ctx := context.Background()

	lead, err := c.CreateLead(ctx, LeadInput{Name: "Asha", Phone: "555-0100"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if lead.ID == "" || lead.Documents == nil || len(lead.Documents) != 0 {
		t.Fatalf("unexpected lead %+v", lead)
	}

	if _, err := c.CreateLead(ctx, LeadInput{Name: "Other", Phone: "555-0100"}); !IsBadRequest(err) {
		t.Fatalf("expected duplicate phone to be rejected, got %v", err)
	}

	updated, err := c.UploadDocument(ctx, lead.ID, Document{FileName: "contract.pdf", Reader: strings.NewReader(samplePDF)}, "upload-1")
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	replayed, err := c.UploadDocument(ctx, lead.ID, Document{FileName: "contract.pdf", Reader: strings.NewReader(samplePDF)}, "upload-1")
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	if len(updated.Documents) != 1 || len(replayed.Documents) != 1 {
		t.Fatalf("expected a single document, got %v then %v", updated.Documents, replayed.Documents)
	}

	url, err := c.DocumentURL(ctx, lead.ID, 0)
	if err != nil || url != updated.Documents[0] {
		t.Fatalf("unexpected document url %q err=%v", url, err)
	}
	if _, err := c.DocumentURL(ctx, lead.ID, 5); !IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}

	leadsPage, total, err := c.ListLeads(ctx, ListOptions{Search: "ASHA", Page: 1, Limit: 5})
	if err != nil || total != 1 || len(leadsPage) != 1 {
		t.Fatalf("unexpected list %v total=%d err=%v", leadsPage, total, err)
	}

	if err := c.DeleteLead(ctx, lead.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	name := "Asha Rao"
	if _, err := c.UpdateLead(ctx, lead.ID, LeadPatch{Name: &name}); !IsNotFound(err) {
		t.Fatalf("expected update after delete to 404, got %v", err)
	}
}

func TestClientPropertyLifecycle(t *testing.T) {
	c := newTestServer(t)
	ctx := context.Background()

	property, err := c.CreateProperty(ctx, PropertyInput{Type: PropertyLand, Size: "1 acre", Location: "Austin", Budget: 50000})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if !property.Availability {
		t.Fatal("expected availability to default to true")
	}

	if _, err := c.CreateProperty(ctx, PropertyInput{Type: "Unknown", Size: "1", Location: "x", Budget: 1}); !IsBadRequest(err) {
		t.Fatalf("expected bad request, got %v", err)
	}

	found, _, err := c.ListProperties(ctx, ListOptions{Search: "austin"})
	if err != nil || len(found) != 1 {
		t.Fatalf("expected austin match, got %v err=%v", found, err)
	}
	none, total, _ := c.ListProperties(ctx, ListOptions{Search: "dallas"})
	if len(none) != 0 || total != 0 {
		t.Fatalf("expected no dallas match, got %v", none)
	}

	unavailable := false
	updated, err := c.UpdateProperty(ctx, property.ID, PropertyPatch{Availability: &unavailable})
	if err != nil || updated.Availability || updated.Location != "Austin" {
		t.Fatalf("unexpected update %+v err=%v", updated, err)
	}

	got, err := c.GetProperty(ctx, property.ID)
	if err != nil || got.Availability {
		t.Fatalf("unexpected get %+v err=%v", got, err)
	}

	if err := c.DeleteProperty(ctx, property.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := c.DeleteProperty(ctx, property.ID); !IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestClientStoreAgainstServer(t *testing.T) {
	store := NewStore(newTestServer(t), nil)
	ctx := context.Background()

	if err := store.Refresh(ctx); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if _, err := store.AddLead(ctx, LeadInput{Name: "Asha", Phone: "555-0100"}); err != nil {
		t.Fatalf("add lead: %v", err)
	}
	if _, err := store.AddProperty(ctx, PropertyInput{Type: PropertyResidential, Size: "2000 sq ft", Location: "Austin", Budget: 1}); err != nil {
		t.Fatalf("add property: %v", err)
	}

	if len(store.Leads()) != 1 || len(store.Properties()) != 1 || store.PropertyTotal() != 1 {
		t.Fatalf("unexpected cache: %d leads, %d properties", len(store.Leads()), len(store.Properties()))
	}
}

func TestAPIErrorMessage(t *testing.T) {
	err := &APIError{StatusCode: http.StatusNotFound, Message: "lead not found"}
	if err.Error() != "crm api: status 404: lead not found" {
		t.Fatalf("unexpected message %q", err.Error())
	}
	if (&APIError{StatusCode: 500}).Error() != "crm api: status 500" {
		t.Fatal("unexpected message without body")
	}
}
