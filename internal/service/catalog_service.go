package service

import (
	"github.com/joblink/chat-backend/internal/common"
	"github.com/joblink/chat-backend/internal/domain"
	"github.com/joblink/chat-backend/internal/repository"
	"github.com/google/uuid"
)

// PreferenceUpdate carries a partial preference upsert; nil fields keep
// the template default
type PreferenceUpdate struct {
	Enabled  *bool
	Channels domain.ChannelSet
}

// CatalogService notification events, templates, and per-user
// preference resolution
type CatalogService interface {
	// ResolveTemplate returns the active template for (event, app) or
	// nil when none is usable. Absence is not an error: it means the
	// event is not user-facing for that app.
	ResolveTemplate(eventKey, appID string) (*domain.NotificationTemplate, error)
	// ResolvePreference overlays a stored preference row on the
	// template defaults; absence of a row yields the defaults.
	ResolvePreference(userID uuid.UUID, eventKey, appID string) (*domain.ResolvedPreference, error)
	SetPreference(userID uuid.UUID, eventKey, appID string, update PreferenceUpdate) (*domain.NotificationPreference, error)
	ListPreferences(userID uuid.UUID) ([]*domain.NotificationPreference, error)
}

type catalogService struct {
	catalog repository.CatalogRepository
}

// NewCatalogService creates a CatalogService
func NewCatalogService(catalog repository.CatalogRepository) CatalogService {
	return &catalogService{catalog: catalog}
}

func (s *catalogService) ResolveTemplate(eventKey, appID string) (*domain.NotificationTemplate, error) {
	evt, err := s.catalog.FindEventByKey(eventKey)
	if err != nil {
		return nil, common.InternalError(err)
	}
	if evt == nil || !evt.Active {
		return nil, nil
	}
	template, err := s.catalog.FindTemplate(eventKey, appID)
	if err != nil {
		return nil, common.InternalError(err)
	}
	if template == nil || !template.Active {
		return nil, nil
	}
	return template, nil
}

func (s *catalogService) ResolvePreference(userID uuid.UUID, eventKey, appID string) (*domain.ResolvedPreference, error) {
	template, err := s.ResolveTemplate(eventKey, appID)
	if err != nil {
		return nil, err
	}
	if template == nil {
		return &domain.ResolvedPreference{Enabled: false}, nil
	}

	resolved := &domain.ResolvedPreference{
		Enabled:  template.DefaultEnabled,
		Channels: template.DefaultChannels,
	}

	pref, err := s.catalog.FindPreference(userID, eventKey, appID)
	if err != nil {
		return nil, common.InternalError(err)
	}
	if pref != nil {
		resolved.Enabled = pref.Enabled
		if len(pref.Channels) > 0 {
			resolved.Channels = pref.Channels
		}
	}
	return resolved, nil
}

// SetPreference upserts the (user, event, app) override row
func (s *catalogService) SetPreference(userID uuid.UUID, eventKey, appID string, update PreferenceUpdate) (*domain.NotificationPreference, error) {
	if eventKey == "" || appID == "" {
		return nil, common.ValidationError("event key and app id must not be empty")
	}
	for _, c := range update.Channels {
		if !c.Valid() {
			return nil, common.ValidationError("unknown channel %q", c)
		}
	}

	evt, err := s.catalog.FindEventByKey(eventKey)
	if err != nil {
		return nil, common.InternalError(err)
	}
	if evt == nil {
		return nil, common.NotFoundError("notification event")
	}

	// Start from the current row (or template defaults) so a partial
	// update leaves unspecified fields unchanged.
	enabled := true
	if template, err := s.catalog.FindTemplate(eventKey, appID); err != nil {
		return nil, common.InternalError(err)
	} else if template != nil {
		enabled = template.DefaultEnabled
	}
	channels := update.Channels
	if existing, err := s.catalog.FindPreference(userID, eventKey, appID); err != nil {
		return nil, common.InternalError(err)
	} else if existing != nil {
		enabled = existing.Enabled
		if channels == nil {
			channels = existing.Channels
		}
	}
	if update.Enabled != nil {
		enabled = *update.Enabled
	}

	pref := &domain.NotificationPreference{
		UserID:   userID,
		EventKey: eventKey,
		AppID:    appID,
		Enabled:  enabled,
		Channels: channels,
	}
	if err := s.catalog.UpsertPreference(pref); err != nil {
		return nil, common.InternalError(err)
	}
	return pref, nil
}

func (s *catalogService) ListPreferences(userID uuid.UUID) ([]*domain.NotificationPreference, error) {
	prefs, err := s.catalog.ListPreferencesByUser(userID)
	if err != nil {
		return nil, common.InternalError(err)
	}
	return prefs, nil
}
