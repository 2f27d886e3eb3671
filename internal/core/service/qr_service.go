package service

import (
	"context"
	"errors"
	"fmt"
	"html"
	"time"

	"github.com/rs/zerolog"

	"github.com/qrforge/qr-service/internal/core/domain"
	"github.com/qrforge/qr-service/internal/core/ports"
)

const (
	msgGenerated          = "QR code generated successfully"
	msgGeneratedAndMailed = "QR code generated and email sent successfully"
	warnEmailNotEntitled  = "Email delivery not available for your current plan"
	warnEmailFailed       = "QR code generated, but email delivery failed"
)

// QRServiceDeps groups the collaborators of the issuance workflow.
// Images and Idempotency are optional.
type QRServiceDeps struct {
	Users       ports.UserRepository
	Codes       ports.QRCodeRepository
	Catalog     ports.PlanCatalog
	Encoder     ports.QREncoder
	Mailer      ports.Mailer
	Images      ports.ImageStore
	Idempotency ports.IdempotencyStore
}

// QRService meters generation against the user's plan and issues codes.
type QRService struct {
	users   ports.UserRepository
	codes   ports.QRCodeRepository
	catalog ports.PlanCatalog
	encoder ports.QREncoder
	mailer  ports.Mailer
	images  ports.ImageStore
	idem    ports.IdempotencyStore
	policy  domain.ResetPolicy
	log     zerolog.Logger
	now     func() time.Time
}

func NewQRService(deps QRServiceDeps, policy domain.ResetPolicy, log zerolog.Logger) *QRService {
	return &QRService{
		users:   deps.Users,
		codes:   deps.Codes,
		catalog: deps.Catalog,
		encoder: deps.Encoder,
		mailer:  deps.Mailer,
		images:  deps.Images,
		idem:    deps.Idempotency,
		policy:  policy,
		log:     log,
		now:     time.Now,
	}
}

// Issue runs one generation request:
//
//	Checking -> LimitExceeded
//	Checking -> Encoding -> Reserving -> EmailGate -> Persisting -> Completed
//
// Once the quota reservation succeeds nothing downstream revokes the code;
// email problems are reported as a warning on the result. With an
// Idempotency-Key only the first concurrent request does any work.
func (s *QRService) Issue(ctx context.Context, in ports.IssueQRInput) (*ports.QRIssuanceResult, error) {
	cached, claimed, err := s.claim(ctx, in)
	if err != nil {
		return nil, fmt.Errorf("issue qr: %w", err)
	}
	if cached != nil {
		return cached, nil
	}

	result, err := s.issue(ctx, in)
	if claimed {
		if err != nil {
			s.release(ctx, in)
		} else {
			s.remember(ctx, in, result)
		}
	}
	return result, err
}

func (s *QRService) issue(ctx context.Context, in ports.IssueQRInput) (*ports.QRIssuanceResult, error) {
	color := in.Color
	if color == "" {
		color = domain.DefaultQRColor
	}
	now := s.now().UTC()

	// Checking
	user, err := s.users.FindByID(ctx, in.UserID)
	if err != nil {
		return nil, fmt.Errorf("issue qr: %w", err)
	}
	lookup, err := s.catalog.GetPlan(ctx, user.SubscriptionTier)
	if err != nil {
		return nil, fmt.Errorf("issue qr: resolve plan: %w", err)
	}
	plan := lookup.Plan

	usage := s.policy.EffectiveUsage(user, now)
	if !plan.Admits(usage) {
		s.log.Info().Str("user_id", user.ID).Str("tier", plan.Tier).Int("usage", usage).Msg("qr limit reached")
		return nil, &domain.LimitExceededError{Tier: plan.Tier, CurrentUsage: usage, Limit: plan.QRCodesLimit}
	}

	// Encoding
	img, err := s.encoder.Encode(in.Text, domain.DefaultRenderOptions(color))
	if err != nil {
		return nil, fmt.Errorf("issue qr: %w: %v", domain.ErrEncodingFailure, err)
	}

	wantsEmail := in.EmailTarget != ""
	entitled := plan.HasFeature(domain.FeatureEmailDelivery)

	// Reserving
	period := s.policy.Period(now)
	current, err := s.users.ReserveQuota(ctx, user.ID, plan.QRCodesLimit, period, now)
	if err != nil {
		if errors.Is(err, domain.ErrQuotaExhausted) {
			return nil, s.limitExceeded(ctx, user.ID, plan, now)
		}
		return nil, fmt.Errorf("issue qr: reserve quota: %w", err)
	}

	result := &ports.QRIssuanceResult{
		QRID:        newID("qr_"),
		Image:       img,
		Usage:       ports.Usage{Current: current, Limit: plan.QRCodesLimit},
		Message:     msgGenerated,
		EmailStatus: domain.EmailSkipped,
		Tier:        plan.Tier,
	}

	// EmailGate runs before the insert so the record carries the final
	// outcome and is never rewritten.
	if wantsEmail {
		s.deliver(ctx, result, in, entitled)
	}

	// Persisting

	record := &domain.QRRecord{
		ID:          result.QRID,
		UserID:      user.ID,
		Text:        in.Text,
		Color:       color,
		GeneratedAt: now,
		EmailSent:   result.EmailStatus == domain.EmailSent,
		EmailStatus: result.EmailStatus,
	}
	if err := s.codes.Create(ctx, record); err != nil {
		if relErr := s.users.ReleaseQuota(ctx, user.ID, period); relErr != nil {
			s.log.Error().Err(relErr).Str("user_id", user.ID).Msg("failed to release quota after persist error")
		}
		return nil, fmt.Errorf("issue qr: persist record: %w", err)
	}

	if s.images != nil {
		if err := s.images.Put(ctx, record.ID, img); err != nil {
			s.log.Warn().Err(err).Str("qr_id", record.ID).Msg("failed to store qr image")
		}
	}

	// Completed
	s.log.Info().
		Str("user_id", user.ID).
		Str("qr_id", record.ID).
		Str("tier", plan.Tier).
		Int("usage", current).
		Str("email", string(result.EmailStatus)).
		Msg("qr code issued")

	return result, nil
}

// History returns the user's records, newest first.
func (s *QRService) History(ctx context.Context, userID string) ([]domain.QRRecord, error) {
	records, err := s.codes.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("qr history: %w", err)
	}
	return records, nil
}

// Download returns the image of a record owned by userID and counts the
// download. A missing stored image is re-rendered from the record.
func (s *QRService) Download(ctx context.Context, userID, qrID string) (*ports.QRDownload, error) {
	record, err := s.codes.FindByID(ctx, qrID)
	if err != nil {
		return nil, fmt.Errorf("download qr: %w", err)
	}
	if record.UserID != userID {
		return nil, domain.ErrQRCodeNotFound
	}

	var img []byte
	if s.images != nil {
		img, err = s.images.Get(ctx, record.ID)
		if err != nil {
			s.log.Debug().Err(err).Str("qr_id", record.ID).Msg("stored image unavailable, re-rendering")
			img = nil
		}
	}
	if img == nil {
		img, err = s.encoder.Encode(record.Text, domain.DefaultRenderOptions(record.Color))
		if err != nil {
			return nil, fmt.Errorf("download qr: %w: %v", domain.ErrEncodingFailure, err)
		}
	}

	if err := s.codes.IncrementDownloads(ctx, record.ID); err != nil {
		s.log.Warn().Err(err).Str("qr_id", record.ID).Msg("failed to count download")
	} else {
		record.Downloads++
	}

	return &ports.QRDownload{Record: *record, Image: img}, nil
}

func (s *QRService) deliver(ctx context.Context, result *ports.QRIssuanceResult, in ports.IssueQRInput, entitled bool) {
	if !entitled {
		result.EmailStatus = domain.EmailBlocked
		result.Warning = warnEmailNotEntitled
		return
	}

	email := domain.Email{
		To:       in.EmailTarget,
		Subject:  "Your QR Code",
		HTMLBody: qrEmailBody(in.Text),
		Attachments: []domain.Attachment{{
			Filename:    "qrcode.png",
			ContentType: "image/png",
			Data:        result.Image,
		}},
	}
	if err := s.mailer.Send(ctx, email); err != nil {
		s.log.Error().Err(err).Str("qr_id", result.QRID).Msg("email delivery failed")
		result.EmailStatus = domain.EmailFailed
		result.Warning = warnEmailFailed
		return
	}

	result.EmailStatus = domain.EmailSent
	result.Message = msgGeneratedAndMailed
}

// limitExceeded builds the refusal for a reservation that lost a race,
// re-reading the counter so the caller sees the value that beat it.
func (s *QRService) limitExceeded(ctx context.Context, userID string, plan domain.Plan, now time.Time) error {
	usage := plan.QRCodesLimit
	if user, err := s.users.FindByID(ctx, userID); err == nil {
		usage = s.policy.EffectiveUsage(user, now)
	}
	s.log.Info().Str("user_id", userID).Str("tier", plan.Tier).Int("usage", usage).Msg("qr limit reached on reservation")
	return &domain.LimitExceededError{Tier: plan.Tier, CurrentUsage: usage, Limit: plan.QRCodesLimit}
}

// claim reserves in.IdempotencyKey. It returns the stored result of a
// finished request, or reports whether this call owns the key. A store
// outage degrades to issuing without deduplication.
func (s *QRService) claim(ctx context.Context, in ports.IssueQRInput) (*ports.QRIssuanceResult, bool, error) {
	if in.IdempotencyKey == "" || s.idem == nil {
		return nil, false, nil
	}
	cached, won, err := s.idem.Claim(ctx, in.UserID, in.IdempotencyKey)
	switch {
	case errors.Is(err, domain.ErrRequestInProgress):
		s.log.Info().Str("user_id", in.UserID).Msg("idempotent request still in progress")
		return nil, false, err
	case err != nil:
		s.log.Warn().Err(err).Str("user_id", in.UserID).Msg("idempotency claim failed, issuing anyway")
		return nil, false, nil
	case won || cached == nil:
		return nil, won, nil
	}
	s.log.Info().Str("user_id", in.UserID).Str("qr_id", cached.QRID).Msg("idempotent replay")
	cached.Replayed = true
	return cached, false, nil
}

func (s *QRService) release(ctx context.Context, in ports.IssueQRInput) {
	if err := s.idem.Release(ctx, in.UserID, in.IdempotencyKey); err != nil {
		s.log.Warn().Err(err).Str("user_id", in.UserID).Msg("failed to release idempotency key")
	}
}

func (s *QRService) remember(ctx context.Context, in ports.IssueQRInput, result *ports.QRIssuanceResult) {
	if err := s.idem.Save(ctx, in.UserID, in.IdempotencyKey, result); err != nil {
		s.log.Warn().Err(err).Str("qr_id", result.QRID).Msg("failed to store idempotency result")
	}
}

func qrEmailBody(text string) string {
	return `<html>
  <body>
    <h2>Your QR Code</h2>
    <p>Dear user, here is your QR code in the attachment, generated from your text: "` + html.EscapeString(text) + `"</p>
    <p>Thank you for using our service!</p>
  </body>
</html>`
}
