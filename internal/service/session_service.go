package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/brownjh18/SafeTalk-sub001/internal/auth"
	"github.com/brownjh18/SafeTalk-sub001/internal/errs"
	"github.com/brownjh18/SafeTalk-sub001/internal/model"
)

// SessionService manages group session lifecycle. Only verified counselors
// (or admins) create sessions; all privileged transitions are creator-only.
type SessionService struct {
	db  *gorm.DB
	hub *SignalHub
	log *zap.Logger
}

// NewSessionService creates a session service.
func NewSessionService(db *gorm.DB, hub *SignalHub, log *zap.Logger) *SessionService {
	return &SessionService{db: db, hub: hub, log: log}
}

// Create creates a session with the creator attached as an active participant.
// Session and creator row are written in one transaction so a session never
// exists without its creator membership.
func (s *SessionService) Create(ident auth.Identity, req model.CreateSessionRequest) (*model.Session, error) {
	if !ident.Privileged() {
		return nil, fmt.Errorf("%w: only counselors can create sessions", errs.ErrForbidden)
	}
	if !ident.Verified {
		return nil, fmt.Errorf("%w: account must be verified to create sessions", errs.ErrForbidden)
	}

	ent := &model.GroupSession{
		ID:              uuid.New().String(),
		Title:           req.Title,
		Description:     req.Description,
		CreatorID:       ident.UserID,
		Mode:            req.Mode,
		MaxParticipants: req.MaxParticipants,
		IsActive:        false,
	}
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(ent).Error; err != nil {
			return err
		}
		creator := &model.SessionParticipant{
			SessionID: ent.ID,
			UserID:    ident.UserID,
			Role:      string(model.ParticipantRoleCreator),
			Status:    string(model.ParticipantStatusActive),
			JoinedAt:  time.Now(),
		}
		return tx.Create(creator).Error
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ident, ent.ID)
}

// Get returns a session visible to the caller. Non-members get ErrNotFound
// whether or not the session exists.
func (s *SessionService) Get(ident auth.Identity, sessionID string) (*model.Session, error) {
	var ent model.GroupSession
	if err := s.db.Preload("Participants").Where("id = ?", sessionID).First(&ent).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.ErrNotFound
		}
		return nil, err
	}
	member := lo.ContainsBy(ent.Participants, func(p model.SessionParticipant) bool {
		return p.UserID == ident.UserID
	})
	if !member && !ident.Privileged() {
		return nil, errs.ErrNotFound
	}
	return entityToSession(&ent, ident), nil
}

// List returns active sessions plus the caller's own.
func (s *SessionService) List(ident auth.Identity) ([]model.Session, error) {
	var ents []model.GroupSession
	err := s.db.Preload("Participants").
		Where("is_active = ? OR creator_id = ?", true, ident.UserID).
		Order("created_at DESC").
		Find(&ents).Error
	if err != nil {
		return nil, err
	}
	return lo.Map(ents, func(ent model.GroupSession, _ int) model.Session {
		return *entityToSession(&ent, ident)
	}), nil
}

// Start activates an inactive session. Anyone who is not the creator, and
// any session not currently inactive, gets ErrNotFound.
func (s *SessionService) Start(sessionID, callerID string) error {
	return s.toggleActive(sessionID, callerID, false, true)
}

// End deactivates an active session. Messages and participants are kept;
// connected signaling peers are disconnected. A session may be started again
// later: ended is a toggle, not a terminal state.
func (s *SessionService) End(sessionID, callerID string) error {
	if err := s.toggleActive(sessionID, callerID, true, false); err != nil {
		return err
	}
	s.hub.CloseSession(sessionID)
	return nil
}

func (s *SessionService) toggleActive(sessionID, callerID string, from, to bool) error {
	var ent model.GroupSession
	err := s.db.Where("id = ? AND creator_id = ? AND is_active = ?", sessionID, callerID, from).
		First(&ent).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errs.ErrNotFound
		}
		return err
	}
	return s.db.Model(&ent).Update("is_active", to).Error
}

// Update edits title, description and participant cap. Creator-only, only
// while the session is active. Mode never changes after creation.
func (s *SessionService) Update(sessionID, callerID string, req model.UpdateSessionRequest) (*model.Session, error) {
	var ent model.GroupSession
	err := s.db.Where("id = ? AND creator_id = ?", sessionID, callerID).First(&ent).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.ErrNotFound
		}
		return nil, err
	}
	if !ent.IsActive {
		return nil, fmt.Errorf("%w: session is not active", errs.ErrConflict)
	}
	if req.Mode != "" && req.Mode != ent.Mode {
		return nil, fmt.Errorf("%w: session mode cannot be changed", errs.ErrConflict)
	}
	updates := map[string]interface{}{
		"title":            req.Title,
		"max_participants": req.MaxParticipants,
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if err := s.db.Model(&ent).Updates(updates).Error; err != nil {
		return nil, err
	}
	return s.Get(auth.Identity{UserID: callerID}, sessionID)
}

// Delete removes the session, detaching participants and messages first.
// Creator-only.
func (s *SessionService) Delete(sessionID, callerID string) error {
	var ent model.GroupSession
	err := s.db.Where("id = ? AND creator_id = ?", sessionID, callerID).First(&ent).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errs.ErrNotFound
		}
		return err
	}
	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("session_id = ?", sessionID).Delete(&model.SessionParticipant{}).Error; err != nil {
			return err
		}
		if err := tx.Where("session_id = ?", sessionID).Delete(&model.SessionMessage{}).Error; err != nil {
			return err
		}
		return tx.Delete(&ent).Error
	})
	if err != nil {
		return err
	}
	s.hub.CloseSession(sessionID)
	s.log.Info("session deleted",
		zap.String("session_id", sessionID),
		zap.String("creator_id", callerID))
	return nil
}

// entityToSession converts the GORM entity to the API view. Pending and
// removed rows are visible to the creator and privileged roles only.
func entityToSession(ent *model.GroupSession, viewer auth.Identity) *model.Session {
	sess := &model.Session{
		ID:              ent.ID,
		Title:           ent.Title,
		Description:     ent.Description,
		CreatorID:       ent.CreatorID,
		Mode:            model.SessionMode(ent.Mode),
		MaxParticipants: ent.MaxParticipants,
		IsActive:        ent.IsActive,
		CreatedAt:       ent.CreatedAt,
	}
	seeAll := viewer.Privileged() || viewer.UserID == ent.CreatorID
	for _, p := range ent.Participants {
		if !seeAll && p.Status != string(model.ParticipantStatusActive) {
			continue
		}
		sess.Participants = append(sess.Participants, model.Participant{
			UserID:   p.UserID,
			Role:     model.ParticipantRole(p.Role),
			Status:   model.ParticipantStatus(p.Status),
			JoinedAt: p.JoinedAt,
		})
	}
	return sess
}
