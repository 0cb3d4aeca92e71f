package service

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/joblink/chat-backend/internal/common"
	"github.com/joblink/chat-backend/internal/domain"
	"github.com/joblink/chat-backend/internal/repository"
	pkglogger "github.com/joblink/chat-backend/pkg/logger"
	"github.com/google/uuid"
)

// Presence mirrors online state into a fast cache; the user row stays
// the source of truth
type Presence interface {
	SetOnline(ctx context.Context, userID string) error
	SetOffline(ctx context.Context, userID string) error
}

// ExternalClaims is the untrusted identity payload from the auth layer
type ExternalClaims struct {
	Name string
	Role string
}

// IdentityService users, device sessions, and push tokens
type IdentityService interface {
	FindOrCreateFromExternalIdentity(externalID string, claims ExternalClaims) (*domain.User, error)
	RecordSession(ctx context.Context, userID uuid.UUID, deviceInfo string) (*domain.Session, error)
	TouchSession(sessionID uuid.UUID) error
	CloseSession(ctx context.Context, sessionID uuid.UUID, reason domain.DisconnectReason) error
	RegisterDeviceToken(userID uuid.UUID, token string, platform domain.DevicePlatform) (*domain.DeviceToken, error)
	RevokeDeviceToken(userID uuid.UUID, token string) error
	RecordTokenFailure(token string, detail string) error
	TokenHistory(tokenID uuid.UUID) ([]*domain.TokenHistory, error)
}

type identityService struct {
	tx       TxRunner
	users    repository.UserRepository
	sessions repository.SessionRepository
	tokens   repository.DeviceTokenRepository
	presence Presence
}

// NewIdentityService creates an IdentityService
func NewIdentityService(
	tx TxRunner,
	users repository.UserRepository,
	sessions repository.SessionRepository,
	tokens repository.DeviceTokenRepository,
	presence Presence,
) IdentityService {
	return &identityService{
		tx:       tx,
		users:    users,
		sessions: sessions,
		tokens:   tokens,
		presence: presence,
	}
}

// FindOrCreateFromExternalIdentity looks a user up by external id,
// creating one on first sight. An out-of-set role claim falls back to
// the default role and is logged for audit, never rejected.
func (s *identityService) FindOrCreateFromExternalIdentity(externalID string, claims ExternalClaims) (*domain.User, error) {
	if externalID == "" {
		return nil, common.ValidationError("external id must not be empty")
	}

	user, err := s.users.FindByExternalID(externalID)
	if err != nil {
		return nil, common.InternalError(err)
	}
	if user != nil {
		return user, nil
	}

	role, known := domain.NormalizeRole(claims.Role)
	if !known {
		pkglogger.GetLogger().Warn().
			Str("external_id", externalID).
			Str("claimed_role", claims.Role).
			Str("applied_role", string(role)).
			Msg("unknown role claim coerced to default")
	}

	user = &domain.User{
		ExternalID: externalID,
		Name:       claims.Name,
		Role:       role,
	}
	if err := s.users.Create(user); err != nil {
		if repository.IsDuplicateEntry(err) {
			// Lost the first-sight race; the winner's row is the answer.
			winner, qerr := s.users.FindByExternalID(externalID)
			if qerr != nil {
				return nil, common.InternalError(qerr)
			}
			if winner != nil {
				return winner, nil
			}
		}
		return nil, common.InternalError(err)
	}
	return user, nil
}

// RecordSession opens a session row and marks the user online
func (s *identityService) RecordSession(ctx context.Context, userID uuid.UUID, deviceInfo string) (*domain.Session, error) {
	user, err := s.users.FindByID(userID)
	if err != nil {
		return nil, common.InternalError(err)
	}
	if user == nil {
		return nil, common.NotFoundError("user")
	}

	now := time.Now().UTC()
	session := &domain.Session{
		UserID:         userID,
		DeviceInfo:     deviceInfo,
		ConnectedAt:    now,
		LastActivityAt: now,
	}

	err = s.tx.Transaction(func(tx *gorm.DB) error {
		if err := s.sessions.WithTx(tx).Create(session); err != nil {
			return err
		}
		return s.users.WithTx(tx).SetPresence(userID, true, now)
	})
	if err != nil {
		return nil, common.InternalError(err)
	}

	if s.presence != nil {
		if err := s.presence.SetOnline(ctx, userID.String()); err != nil {
			pkglogger.GetLogger().Warn().Err(err).
				Str("user_id", userID.String()).
				Msg("presence cache update failed")
		}
	}
	return session, nil
}

func (s *identityService) TouchSession(sessionID uuid.UUID) error {
	if err := s.sessions.Touch(sessionID, time.Now().UTC()); err != nil {
		return common.InternalError(err)
	}
	return nil
}

// CloseSession sets disconnectedAt with a reason and flips the user
// offline when their last active session closed. Closing an
// already-closed session is a no-op.
func (s *identityService) CloseSession(ctx context.Context, sessionID uuid.UUID, reason domain.DisconnectReason) error {
	session, err := s.sessions.FindByID(sessionID)
	if err != nil {
		return common.InternalError(err)
	}
	if session == nil {
		return common.NotFoundError("session")
	}
	if !session.Active() {
		return nil
	}

	now := time.Now().UTC()
	var wentOffline bool
	err = s.tx.Transaction(func(tx *gorm.DB) error {
		sessions := s.sessions.WithTx(tx)
		if err := sessions.Close(sessionID, reason, now); err != nil {
			return err
		}
		remaining, err := sessions.CountActiveByUser(session.UserID)
		if err != nil {
			return err
		}
		if remaining == 0 {
			wentOffline = true
			return s.users.WithTx(tx).SetPresence(session.UserID, false, now)
		}
		return nil
	})
	if err != nil {
		return common.InternalError(err)
	}

	if wentOffline && s.presence != nil {
		if err := s.presence.SetOffline(ctx, session.UserID.String()); err != nil {
			pkglogger.GetLogger().Warn().Err(err).
				Str("user_id", session.UserID.String()).
				Msg("presence cache update failed")
		}
	}
	return nil
}

// RegisterDeviceToken registers or renews a push token, appending one
// history row per call
func (s *identityService) RegisterDeviceToken(userID uuid.UUID, token string, platform domain.DevicePlatform) (*domain.DeviceToken, error) {
	if token == "" {
		return nil, common.ValidationError("token must not be empty")
	}
	if !platform.Valid() {
		return nil, common.ValidationError("unknown platform %q", platform)
	}

	existing, err := s.tokens.FindByToken(token)
	if err != nil {
		return nil, common.InternalError(err)
	}

	if existing != nil && existing.UserID == userID {
		err = s.tx.Transaction(func(tx *gorm.DB) error {
			tokens := s.tokens.WithTx(tx)
			if err := tokens.SetActive(existing.ID, true); err != nil {
				return err
			}
			return tokens.AppendHistory(&domain.TokenHistory{
				TokenID: existing.ID,
				UserID:  userID,
				Action:  domain.TokenRenewed,
			})
		})
		if err != nil {
			return nil, common.InternalError(err)
		}
		existing.Active = true
		return existing, nil
	}

	if existing != nil {
		// Same token seen from a different account: the device changed
		// hands. Token strings are unique, so move the existing row to
		// the new owner instead of inserting a second one.
		err = s.tx.Transaction(func(tx *gorm.DB) error {
			tokens := s.tokens.WithTx(tx)
			if err := tokens.AppendHistory(&domain.TokenHistory{
				TokenID: existing.ID,
				UserID:  existing.UserID,
				Action:  domain.TokenRevoked,
				Detail:  "token reassigned to another user",
			}); err != nil {
				return err
			}
			if err := tokens.Reassign(existing.ID, userID, platform); err != nil {
				return err
			}
			return tokens.AppendHistory(&domain.TokenHistory{
				TokenID: existing.ID,
				UserID:  userID,
				Action:  domain.TokenRegistered,
			})
		})
		if err != nil {
			return nil, common.InternalError(err)
		}
		existing.UserID = userID
		existing.Platform = platform
		existing.Active = true
		return existing, nil
	}

	created := &domain.DeviceToken{
		UserID:   userID,
		Token:    token,
		Platform: platform,
		Active:   true,
	}
	err = s.tx.Transaction(func(tx *gorm.DB) error {
		tokens := s.tokens.WithTx(tx)
		if err := tokens.Create(created); err != nil {
			return err
		}
		return tokens.AppendHistory(&domain.TokenHistory{
			TokenID: created.ID,
			UserID:  userID,
			Action:  domain.TokenRegistered,
		})
	})
	if err != nil {
		if repository.IsDuplicateEntry(err) {
			return nil, common.ErrConflict
		}
		return nil, common.InternalError(err)
	}
	return created, nil
}

// RevokeDeviceToken deactivates a token; every call appends a history row
func (s *identityService) RevokeDeviceToken(userID uuid.UUID, token string) error {
	existing, err := s.tokens.FindByToken(token)
	if err != nil {
		return common.InternalError(err)
	}
	if existing == nil || existing.UserID != userID {
		return common.NotFoundError("device token")
	}

	err = s.tx.Transaction(func(tx *gorm.DB) error {
		tokens := s.tokens.WithTx(tx)
		if err := tokens.SetActive(existing.ID, false); err != nil {
			return err
		}
		return tokens.AppendHistory(&domain.TokenHistory{
			TokenID: existing.ID,
			UserID:  userID,
			Action:  domain.TokenRevoked,
		})
	})
	if err != nil {
		return common.InternalError(err)
	}
	return nil
}

// RecordTokenFailure marks a token inactive after a transport failure
// and appends a FAILED audit row
func (s *identityService) RecordTokenFailure(token string, detail string) error {
	existing, err := s.tokens.FindByToken(token)
	if err != nil {
		return common.InternalError(err)
	}
	if existing == nil {
		return common.NotFoundError("device token")
	}

	err = s.tx.Transaction(func(tx *gorm.DB) error {
		tokens := s.tokens.WithTx(tx)
		if err := tokens.SetActive(existing.ID, false); err != nil {
			return err
		}
		return tokens.AppendHistory(&domain.TokenHistory{
			TokenID: existing.ID,
			UserID:  existing.UserID,
			Action:  domain.TokenFailed,
			Detail:  detail,
		})
	})
	if err != nil {
		return common.InternalError(err)
	}
	return nil
}

func (s *identityService) TokenHistory(tokenID uuid.UUID) ([]*domain.TokenHistory, error) {
	history, err := s.tokens.HistoryByToken(tokenID)
	if err != nil {
		return nil, common.InternalError(err)
	}
	return history, nil
}
