package handler

import (
	"net/http"
	"strconv"

	"estate_crm_backend/internal/adapters/storage"
	"estate_crm_backend/internal/filestore"
	"estate_crm_backend/internal/leads/service"
	"estate_crm_backend/internal/leads/transport"
	"estate_crm_backend/internal/shared/query"
	"estate_crm_backend/platform/httpkit"
	"estate_crm_backend/platform/validator"

	"github.com/gin-gonic/gin"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
	msgNoFile           = "no file uploaded"
	msgFileTypeInvalid  = "file type not allowed"
	msgDocumentNotFound = "document not found"
	msgLeadDeleted      = "Lead deleted successfully"

	formFieldDocument    = "document"
	headerIdempotencyKey = "Idempotency-Key"
	headerTotalCount     = "X-Total-Count"
)

type Handler struct {
	svc    *service.Service
	val    *validator.Validator
	policy storage.UploadPolicy
}

func New(svc *service.Service, val *validator.Validator, policy storage.UploadPolicy) *Handler {
	return &Handler{svc: svc, val: val, policy: policy}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("", h.Create)
	rg.GET("", h.List)
	rg.GET("/:id", h.GetByID)
	rg.PUT("/:id", h.Update)
	rg.DELETE("/:id", h.Delete)
	rg.POST("/:id/upload", h.UploadDocument)
	rg.GET("/:id/download/:docIndex", h.DownloadDocument)
}

func (h *Handler) Create(c *gin.Context) {
	var req transport.CreateLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	lead, err := h.svc.Create(c.Request.Context(), req)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.JSON(c, http.StatusCreated, lead)
}

// List returns one page of leads as a bare array; the match count is in X-Total-Count.
func (h *Handler) List(c *gin.Context) {
	var req transport.ListLeadsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	result, err := h.svc.List(c.Request.Context(), req.Search, query.ParsePage(req.Page, req.Limit))
	if httpkit.HandleError(c, err) {
		return
	}

	c.Header(headerTotalCount, strconv.Itoa(result.Total))
	httpkit.OK(c, result.Items)
}

func (h *Handler) GetByID(c *gin.Context) {
	lead, err := h.svc.GetByID(c.Request.Context(), c.Param("id"))
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, lead)
}

func (h *Handler) Update(c *gin.Context) {
	var req transport.LeadPatch
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	lead, err := h.svc.Update(c.Request.Context(), c.Param("id"), req)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, lead)
}

func (h *Handler) Delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), c.Param("id")); httpkit.HandleError(c, err) {
		return
	}

	httpkit.Message(c, msgLeadDeleted)
}

// UploadDocument accepts a multipart "document" file and attaches it to the lead.
func (h *Handler) UploadDocument(c *gin.Context) {
	fileHeader, err := c.FormFile(formFieldDocument)
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgNoFile, nil)
		return
	}
	if err := h.policy.ValidateFileSize(fileHeader.Size); err != nil {
		httpkit.Error(c, http.StatusBadRequest, err.Error(), nil)
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgNoFile, nil)
		return
	}
	defer file.Close()

	upload, err := filestore.Sniff(filestore.FileUpload{
		Reader:      file,
		Size:        fileHeader.Size,
		FileName:    fileHeader.Filename,
		ContentType: fileHeader.Header.Get("Content-Type"),
	})
	if httpkit.HandleError(c, err) {
		return
	}
	if err := h.policy.ValidateContentType(upload.ContentType); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgFileTypeInvalid, storage.GetAllowedContentTypes())
		return
	}

	lead, err := h.svc.AttachDocument(c.Request.Context(), c.Param("id"), upload, c.GetHeader(headerIdempotencyKey))
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, lead)
}

func (h *Handler) DownloadDocument(c *gin.Context) {
	index, err := strconv.Atoi(c.Param("docIndex"))
	if err != nil {
		httpkit.Error(c, http.StatusNotFound, msgDocumentNotFound, nil)
		return
	}

	url, err := h.svc.GetDocumentReference(c.Request.Context(), c.Param("id"), index)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, transport.DocumentURLResponse{DownloadURL: url})
}
