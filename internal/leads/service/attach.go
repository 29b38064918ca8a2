package service

import (
	"context"
	"errors"
	"strings"

	"estate_crm_backend/internal/filestore"
	"estate_crm_backend/internal/leads/repository"
	"estate_crm_backend/internal/leads/transport"
	"estate_crm_backend/internal/scheduler"
	"estate_crm_backend/platform/apperr"
	"estate_crm_backend/platform/idempotency"
)

const (
	msgNoFile            = "no file uploaded"
	msgUploadInProgress  = "an upload with this idempotency key is still in progress"
	msgIdempotencyFailed = "could not verify idempotency key"
)

// AttachDocument uploads the file and appends its URL to the lead.
// With a non-empty requestToken a repeated call returns the lead without
// uploading again. If the append fails the stored object is removed, or
// queued for removal when the delete itself fails.
func (s *Service) AttachDocument(ctx context.Context, id string, upload filestore.FileUpload, requestToken string) (lead transport.LeadResponse, err error) {
	defer func() { s.metrics.RecordOperation(metricsEntity, "attach_document", err) }()

	if upload.Reader == nil || upload.Size <= 0 {
		return transport.LeadResponse{}, apperr.Validation(msgNoFile)
	}

	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return transport.LeadResponse{}, mapRepoError(err)
	}

	requestToken = strings.TrimSpace(requestToken)
	if requestToken != "" {
		record, err := s.tokens.Begin(ctx, id, requestToken)
		if err != nil {
			return transport.LeadResponse{}, apperr.Wrap(apperr.KindInternal, msgIdempotencyFailed, err)
		}
		switch record.State {
		case idempotency.StateDone:
			s.log.WithContext(ctx).Info("document upload replayed", "leadId", id)
			return s.GetByID(ctx, id)
		case idempotency.StatePending:
			return transport.LeadResponse{}, apperr.Conflict(msgUploadInProgress)
		}
	}

	ref, err := s.files.Upload(ctx, upload)
	if err != nil {
		s.releaseToken(ctx, id, requestToken)
		return transport.LeadResponse{}, err
	}

	updated, err := s.repo.AppendDocument(ctx, id, ref.URL)
	if err != nil {
		s.compensate(ctx, id, ref)
		s.releaseToken(ctx, id, requestToken)
		if errors.Is(err, repository.ErrNotFound) {
			return transport.LeadResponse{}, apperr.NotFound(msgLeadNotFound)
		}
		return transport.LeadResponse{}, err
	}

	if requestToken != "" {
		if err := s.tokens.Complete(ctx, id, requestToken, ref.URL); err != nil {
			// A key left pending would reject every retry until it expires.
			s.log.WithContext(ctx).Error("failed to record idempotency key; releasing it", "leadId", id, "error", err)
			s.releaseToken(ctx, id, requestToken)
		}
	}

	s.log.WithContext(ctx).Info("document attached", "leadId", id, "objectKey", ref.Key)
	return toLeadResponse(updated), nil
}

// compensate removes an uploaded object whose reference could not be saved.
func (s *Service) compensate(ctx context.Context, leadID string, ref filestore.Reference) {
	ctx = context.WithoutCancel(ctx)
	log := s.log.WithContext(ctx)

	removeErr := s.files.Remove(ctx, ref)
	if removeErr == nil {
		log.Info("uploaded document removed after failed attach", "leadId", leadID, "objectKey", ref.Key)
		return
	}

	if s.cleanup != nil {
		scheduleErr := s.cleanup.ScheduleStorageCleanup(ctx, scheduler.StorageCleanupPayload{
			Bucket:    s.files.Bucket(),
			ObjectKey: ref.Key,
			LeadID:    leadID,
		})
		if scheduleErr == nil {
			log.Warn("orphaned document queued for cleanup", "leadId", leadID, "objectKey", ref.Key, "error", removeErr)
			return
		}
		log.Error("failed to queue orphaned document cleanup", "leadId", leadID, "objectKey", ref.Key, "error", scheduleErr)
	}

	log.StorageError("orphaned_document", ref.Key, removeErr)
}

func (s *Service) releaseToken(ctx context.Context, leadID, requestToken string) {
	if requestToken == "" {
		return
	}
	if err := s.tokens.Abort(context.WithoutCancel(ctx), leadID, requestToken); err != nil {
		s.log.WithContext(ctx).Warn("failed to release idempotency key", "leadId", leadID, "error", err)
	}
}
