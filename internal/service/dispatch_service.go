package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/joblink/chat-backend/internal/common"
	"github.com/joblink/chat-backend/internal/domain"
	"github.com/joblink/chat-backend/internal/repository"
	pkglogger "github.com/joblink/chat-backend/pkg/logger"
	"github.com/google/uuid"
)

var (
	notificationsDispatched = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifications_dispatched_total",
			Help: "Notification dispatch attempts by channel and outcome",
		},
		[]string{"channel", "status"},
	)

	notificationsSuppressed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "notifications_suppressed_total",
			Help: "Recipients skipped because their preference disabled the event",
		},
	)
)

// DispatchService turns a domain event into zero or more logged,
// channel-specific delivery attempts
type DispatchService interface {
	Dispatch(ctx context.Context, eventKey, appID string, payload map[string]string, recipients []uuid.UUID) error
	RetryQueued(ctx context.Context, log *domain.NotificationLog) error
}

type dispatchService struct {
	catalog    CatalogService
	logs       repository.NotificationLogRepository
	transports map[domain.Channel]Transport
	timeout    time.Duration
}

// NewDispatchService creates a DispatchService over the given channel
// transports. Channels without a transport fail their log rows instead
// of blocking other channels.
func NewDispatchService(
	catalog CatalogService,
	logs repository.NotificationLogRepository,
	transports []Transport,
	timeout time.Duration,
) DispatchService {
	byChannel := make(map[domain.Channel]Transport, len(transports))
	for _, t := range transports {
		byChannel[t.Channel()] = t
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &dispatchService{
		catalog:    catalog,
		logs:       logs,
		transports: byChannel,
		timeout:    timeout,
	}
}

// Dispatch resolves the template and each recipient's preference, then
// writes one queued log row per (recipient, channel) before any
// transport is called. A crash mid-dispatch therefore leaves queued
// rows for the reconciliation sweep instead of silently dropping work.
// Failures on one channel or recipient never affect the others.
func (s *dispatchService) Dispatch(ctx context.Context, eventKey, appID string, payload map[string]string, recipients []uuid.UUID) error {
	template, err := s.catalog.ResolveTemplate(eventKey, appID)
	if err != nil {
		return err
	}
	if template == nil {
		// Not user-facing for this app.
		pkglogger.GetLogger().Debug().
			Str("event_key", eventKey).
			Str("app_id", appID).
			Msg("no template, dispatch skipped")
		return nil
	}

	title := renderTemplate(template.Title, payload)
	body := renderTemplate(template.Body, payload)

	for _, recipientID := range recipients {
		pref, err := s.catalog.ResolvePreference(recipientID, eventKey, appID)
		if err != nil {
			pkglogger.GetLogger().Error().Err(err).
				Str("recipient_id", recipientID.String()).
				Str("event_key", eventKey).
				Msg("preference resolution failed, recipient skipped")
			continue
		}
		if !pref.Enabled {
			// Suppressed entirely: no log row is written.
			notificationsSuppressed.Inc()
			continue
		}

		for _, channel := range pref.Channels {
			logRow := &domain.NotificationLog{
				RecipientID: recipientID,
				EventKey:    eventKey,
				AppID:       appID,
				Channel:     channel,
				Title:       title,
				Body:        body,
				Status:      domain.NotificationQueued,
			}
			if err := s.logs.Create(logRow); err != nil {
				pkglogger.GetLogger().Error().Err(err).
					Str("recipient_id", recipientID.String()).
					Str("channel", string(channel)).
					Msg("notification log write failed")
				continue
			}
			s.deliver(ctx, logRow)
		}
	}
	return nil
}

// RetryQueued re-attempts delivery for an existing queued row; used by
// the reconciliation sweep
func (s *dispatchService) RetryQueued(ctx context.Context, log *domain.NotificationLog) error {
	if log.Status != domain.NotificationQueued {
		return common.TransitionError(string(log.Status), string(domain.NotificationSent))
	}
	s.deliver(ctx, log)
	return nil
}

// deliver hands one queued row to its transport and records the outcome
func (s *dispatchService) deliver(ctx context.Context, log *domain.NotificationLog) {
	transport, ok := s.transports[log.Channel]
	if !ok {
		s.fail(log, fmt.Sprintf("no transport configured for channel %s", log.Channel))
		return
	}

	sendCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if err := transport.Send(sendCtx, log); err != nil {
		detail := err.Error()
		if errors.Is(err, context.DeadlineExceeded) {
			detail = common.TimeoutError("transport send", err).Error()
		}
		s.fail(log, detail)
		return
	}

	if err := s.logs.MarkSent(log.ID, time.Now().UTC()); err != nil {
		pkglogger.GetLogger().Error().Err(err).
			Str("notification_id", log.ID.String()).
			Msg("failed to record sent status")
		return
	}
	notificationsDispatched.WithLabelValues(string(log.Channel), string(domain.NotificationSent)).Inc()
}

func (s *dispatchService) fail(log *domain.NotificationLog, detail string) {
	if err := s.logs.MarkFailed(log.ID, detail); err != nil {
		pkglogger.GetLogger().Error().Err(err).
			Str("notification_id", log.ID.String()).
			Msg("failed to record failed status")
	}
	notificationsDispatched.WithLabelValues(string(log.Channel), string(domain.NotificationFailed)).Inc()
	pkglogger.GetLogger().Warn().
		Str("notification_id", log.ID.String()).
		Str("channel", string(log.Channel)).
		Str("error", detail).
		Msg("notification delivery failed")
}

// renderTemplate substitutes {name} placeholders from the payload
// context. Unknown placeholders are left as-is.
func renderTemplate(tmpl string, payload map[string]string) string {
	out := tmpl
	for key, value := range payload {
		out = strings.ReplaceAll(out, "{"+key+"}", value)
	}
	return out
}
