package service

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/brownjh18/SafeTalk-sub001/internal/auth"
	"github.com/brownjh18/SafeTalk-sub001/internal/errs"
	"github.com/brownjh18/SafeTalk-sub001/internal/model"
)

// ParticipantService implements the join/invite/approve workflow.
//
// Every transition into the active status re-checks the participant cap
// inside the same transaction as the write. No row lock is taken on the
// session, so two concurrent approvals can both observe count < max before
// either commits; the window is narrowed, not closed.
type ParticipantService struct {
	db     *gorm.DB
	notify Notifier
	log    *zap.Logger
}

// NewParticipantService creates a participant service.
func NewParticipantService(db *gorm.DB, notify Notifier, log *zap.Logger) *ParticipantService {
	return &ParticipantService{db: db, notify: notify, log: log}
}

// RequestJoin handles the open join path on an active session. Privileged
// callers join immediately (subject to capacity); clients become pending and
// wait for creator approval. Removed users cannot come back this way.
func (s *ParticipantService) RequestJoin(ident auth.Identity, sessionID string) (*model.Participant, error) {
	var out *model.Participant
	err := s.db.Transaction(func(tx *gorm.DB) error {
		sess, err := activeSession(tx, sessionID)
		if err != nil {
			return err
		}
		existing, err := findParticipant(tx, sessionID, ident.UserID)
		if err != nil {
			return err
		}
		if existing != nil {
			switch existing.Status {
			case string(model.ParticipantStatusRemoved):
				return fmt.Errorf("%w: removed users cannot rejoin via open request", errs.ErrForbidden)
			case string(model.ParticipantStatusPending):
				return fmt.Errorf("%w: join request already pending", errs.ErrConflict)
			default:
				return fmt.Errorf("%w: already a participant", errs.ErrConflict)
			}
		}

		status := model.ParticipantStatusPending
		if ident.Privileged() {
			if err := checkCapacity(tx, sess); err != nil {
				return err
			}
			status = model.ParticipantStatusActive
		}
		p := &model.SessionParticipant{
			SessionID: sessionID,
			UserID:    ident.UserID,
			Role:      string(model.ParticipantRoleParticipant),
			Status:    string(status),
			JoinedAt:  time.Now(),
		}
		if err := tx.Create(p).Error; err != nil {
			return err
		}
		out = toParticipant(p)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if out.Status == model.ParticipantStatusActive {
		s.notify.Notify(string(model.SignalTypeJoin), sessionID, out, ident.UserID)
	}
	return out, nil
}

// Invite creates a pending membership for the target user. Creator-only.
func (s *ParticipantService) Invite(sessionID, creatorID, targetUserID string) (*model.Participant, error) {
	var out *model.Participant
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := requireCreator(tx, sessionID, creatorID); err != nil {
			return err
		}
		existing, err := findParticipant(tx, sessionID, targetUserID)
		if err != nil {
			return err
		}
		if existing != nil {
			if existing.Status == string(model.ParticipantStatusRemoved) {
				return fmt.Errorf("%w: user was removed, re-add them instead", errs.ErrConflict)
			}
			return fmt.Errorf("%w: user is already invited or participating", errs.ErrConflict)
		}
		p := &model.SessionParticipant{
			SessionID: sessionID,
			UserID:    targetUserID,
			Role:      string(model.ParticipantRoleParticipant),
			Status:    string(model.ParticipantStatusPending),
			JoinedAt:  time.Now(),
		}
		if err := tx.Create(p).Error; err != nil {
			return err
		}
		out = toParticipant(p)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Approve activates a pending participant. Creator-only; the capacity check
// happens here, at the moment of transition, not at request time.
func (s *ParticipantService) Approve(sessionID, creatorID, userID string) (*model.Participant, error) {
	out, err := s.activate(sessionID, creatorID, userID, model.ParticipantStatusPending)
	if err != nil {
		return nil, err
	}
	s.notify.Notify(string(model.SignalTypeJoin), sessionID, out, userID)
	return out, nil
}

// Reject deletes a pending participant record. Creator-only.
func (s *ParticipantService) Reject(sessionID, creatorID, userID string) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := requireCreator(tx, sessionID, creatorID); err != nil {
			return err
		}
		return deletePending(tx, sessionID, userID)
	})
}

// Accept is the self-service counterpart of Approve for invited users.
func (s *ParticipantService) Accept(sessionID, userID string) (*model.Participant, error) {
	var out *model.Participant
	err := s.db.Transaction(func(tx *gorm.DB) error {
		sess, err := loadSession(tx, sessionID)
		if err != nil {
			return err
		}
		p, err := findParticipant(tx, sessionID, userID)
		if err != nil {
			return err
		}
		if p == nil || p.Status != string(model.ParticipantStatusPending) {
			return fmt.Errorf("%w: no pending invite", errs.ErrNotFound)
		}
		if err := checkCapacity(tx, sess); err != nil {
			return err
		}
		if err := setStatus(tx, p, model.ParticipantStatusActive); err != nil {
			return err
		}
		out = toParticipant(p)
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.notify.Notify(string(model.SignalTypeJoin), sessionID, out, userID)
	return out, nil
}

// Decline deletes the caller's own pending invite.
func (s *ParticipantService) Decline(sessionID, userID string) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if _, err := loadSession(tx, sessionID); err != nil {
			return err
		}
		return deletePending(tx, sessionID, userID)
	})
}

// Remove marks a participant removed. Creator-only; the creator's own row is
// untouchable. The row is kept so history stays queryable and so the open
// join path can refuse re-entry.
func (s *ParticipantService) Remove(sessionID, creatorID, userID string) error {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := requireCreator(tx, sessionID, creatorID); err != nil {
			return err
		}
		p, err := findParticipant(tx, sessionID, userID)
		if err != nil {
			return err
		}
		if p == nil {
			return errs.ErrNotFound
		}
		if p.Role == string(model.ParticipantRoleCreator) {
			return fmt.Errorf("%w: the creator cannot be removed", errs.ErrForbidden)
		}
		if p.Status == string(model.ParticipantStatusRemoved) {
			return fmt.Errorf("%w: already removed", errs.ErrConflict)
		}
		return setStatus(tx, p, model.ParticipantStatusRemoved)
	})
	if err != nil {
		return err
	}
	s.notify.Notify(string(model.SignalTypeLeave), sessionID,
		model.Participant{UserID: userID, Status: model.ParticipantStatusRemoved}, userID)
	return nil
}

// Readd restores a removed participant to active. Creator-only; capacity is
// re-checked and joined_at reset.
func (s *ParticipantService) Readd(sessionID, creatorID, userID string) (*model.Participant, error) {
	out, err := s.activate(sessionID, creatorID, userID, model.ParticipantStatusRemoved)
	if err != nil {
		return nil, err
	}
	s.notify.Notify(string(model.SignalTypeJoin), sessionID, out, userID)
	return out, nil
}

// Leave deletes the caller's own membership. The creator cannot leave their
// own session; they delete it instead.
func (s *ParticipantService) Leave(sessionID, userID string) error {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		p, err := findParticipant(tx, sessionID, userID)
		if err != nil {
			return err
		}
		if p == nil {
			return errs.ErrNotFound
		}
		if p.Role == string(model.ParticipantRoleCreator) {
			return fmt.Errorf("%w: the creator cannot leave, delete the session instead", errs.ErrForbidden)
		}
		if p.Status == string(model.ParticipantStatusRemoved) {
			// The removed row is the rejoin bar; leaving must not erase it.
			return fmt.Errorf("%w: removed participants cannot leave", errs.ErrForbidden)
		}
		return tx.Where("session_id = ? AND user_id = ?", sessionID, userID).
			Delete(&model.SessionParticipant{}).Error
	})
	if err != nil {
		return err
	}
	s.notify.Notify(string(model.SignalTypeLeave), sessionID,
		model.Participant{UserID: userID}, userID)
	return nil
}

// List returns the session's participants as seen by the caller: members see
// active participants, the creator and privileged roles see every row.
func (s *ParticipantService) List(ident auth.Identity, sessionID string) ([]model.Participant, error) {
	var sess model.GroupSession
	if err := s.db.Preload("Participants").Where("id = ?", sessionID).First(&sess).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.ErrNotFound
		}
		return nil, err
	}
	member := false
	for _, p := range sess.Participants {
		if p.UserID == ident.UserID {
			member = true
			break
		}
	}
	if !member && !ident.Privileged() {
		return nil, errs.ErrNotFound
	}
	seeAll := ident.Privileged() || ident.UserID == sess.CreatorID
	out := make([]model.Participant, 0, len(sess.Participants))
	for _, p := range sess.Participants {
		if !seeAll && p.Status != string(model.ParticipantStatusActive) {
			continue
		}
		out = append(out, *toParticipant(&p))
	}
	return out, nil
}

// ActiveMembership fails unless the session is active and the user holds an
// active membership row. Gate for signaling connections.
func (s *ParticipantService) ActiveMembership(sessionID, userID string) error {
	if _, err := activeSession(s.db, sessionID); err != nil {
		return err
	}
	return requireActiveMember(s.db, sessionID, userID)
}

// activate moves a participant from the given status into active, with the
// capacity check in the same transaction.
func (s *ParticipantService) activate(sessionID, creatorID, userID string, from model.ParticipantStatus) (*model.Participant, error) {
	var out *model.Participant
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := requireCreator(tx, sessionID, creatorID); err != nil {
			return err
		}
		sess, err := loadSession(tx, sessionID)
		if err != nil {
			return err
		}
		p, err := findParticipant(tx, sessionID, userID)
		if err != nil {
			return err
		}
		if p == nil || p.Status != string(from) {
			return errs.ErrNotFound
		}
		if err := checkCapacity(tx, sess); err != nil {
			return err
		}
		if err := setStatus(tx, p, model.ParticipantStatusActive); err != nil {
			return err
		}
		out = toParticipant(p)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func loadSession(tx *gorm.DB, sessionID string) (*model.GroupSession, error) {
	var sess model.GroupSession
	if err := tx.Where("id = ?", sessionID).First(&sess).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.ErrNotFound
		}
		return nil, err
	}
	return &sess, nil
}

func activeSession(tx *gorm.DB, sessionID string) (*model.GroupSession, error) {
	sess, err := loadSession(tx, sessionID)
	if err != nil {
		return nil, err
	}
	if !sess.IsActive {
		return nil, fmt.Errorf("%w: session is not active", errs.ErrConflict)
	}
	return sess, nil
}

func requireCreator(tx *gorm.DB, sessionID, callerID string) error {
	var sess model.GroupSession
	err := tx.Where("id = ? AND creator_id = ?", sessionID, callerID).First(&sess).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return errs.ErrNotFound
	}
	return err
}

func findParticipant(tx *gorm.DB, sessionID, userID string) (*model.SessionParticipant, error) {
	var p model.SessionParticipant
	err := tx.Where("session_id = ? AND user_id = ?", sessionID, userID).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// checkCapacity fails with ErrCapacity when the active count has reached the
// session cap. Runs inside the caller's transaction, without a session row
// lock (see the ParticipantService doc comment).
func checkCapacity(tx *gorm.DB, sess *model.GroupSession) error {
	var n int64
	err := tx.Model(&model.SessionParticipant{}).
		Where("session_id = ? AND status = ?", sess.ID, string(model.ParticipantStatusActive)).
		Count(&n).Error
	if err != nil {
		return err
	}
	if n >= int64(sess.MaxParticipants) {
		return fmt.Errorf("%w: %d of %d seats taken", errs.ErrCapacity, n, sess.MaxParticipants)
	}
	return nil
}

func setStatus(tx *gorm.DB, p *model.SessionParticipant, status model.ParticipantStatus) error {
	now := time.Now()
	err := tx.Model(&model.SessionParticipant{}).
		Where("session_id = ? AND user_id = ?", p.SessionID, p.UserID).
		Updates(map[string]interface{}{"status": string(status), "joined_at": now}).Error
	if err != nil {
		return err
	}
	p.Status = string(status)
	p.JoinedAt = now
	return nil
}

func deletePending(tx *gorm.DB, sessionID, userID string) error {
	res := tx.Where("session_id = ? AND user_id = ? AND status = ?",
		sessionID, userID, string(model.ParticipantStatusPending)).
		Delete(&model.SessionParticipant{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: no pending request", errs.ErrNotFound)
	}
	return nil
}

func toParticipant(p *model.SessionParticipant) *model.Participant {
	return &model.Participant{
		UserID:   p.UserID,
		Role:     model.ParticipantRole(p.Role),
		Status:   model.ParticipantStatus(p.Status),
		JoinedAt: p.JoinedAt,
	}
}
