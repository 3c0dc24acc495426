package service

import (
	"errors"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/brownjh18/SafeTalk-sub001/internal/errs"
	"github.com/brownjh18/SafeTalk-sub001/internal/filestore"
	"github.com/brownjh18/SafeTalk-sub001/internal/model"
)

// AttachmentStore is the file-store collaborator for message attachments.
type AttachmentStore interface {
	Save(r io.Reader, originalName string) (filestore.Attachment, error)
	Remove(path string) error
}

// MessageService persists the session message log. Messages are written only
// while the session is active and only by the creator or active participants.
type MessageService struct {
	db     *gorm.DB
	files  AttachmentStore
	notify Notifier
	log    *zap.Logger
}

// NewMessageService creates a message service.
func NewMessageService(db *gorm.DB, files AttachmentStore, notify Notifier, log *zap.Logger) *MessageService {
	return &MessageService{db: db, files: files, notify: notify, log: log}
}

// Post persists a text/audio-event message and notifies the other members.
func (s *MessageService) Post(sessionID, userID string, req model.PostMessageRequest) (*model.Message, error) {
	msgType := req.Type
	if msgType == "" {
		msgType = string(model.MessageTypeText)
	}
	ent := &model.SessionMessage{
		ID:        uuid.New().String(),
		SessionID: sessionID,
		UserID:    userID,
		Body:      req.Body,
		Type:      msgType,
	}
	if err := s.create(sessionID, userID, ent); err != nil {
		return nil, err
	}
	out := toMessage(ent)
	s.notify.Notify("message", sessionID, out, userID)
	return out, nil
}

// PostFile stores the attachment out-of-band, then persists a message row
// carrying its path/size/mime.
func (s *MessageService) PostFile(sessionID, userID string, r io.Reader, filename, caption string) (*model.Message, error) {
	att, err := s.files.Save(r, filename)
	if err != nil {
		if errors.Is(err, filestore.ErrTooLarge) {
			return nil, fmt.Errorf("%w: attachment too large", errs.ErrConflict)
		}
		return nil, err
	}
	ent := &model.SessionMessage{
		ID:        uuid.New().String(),
		SessionID: sessionID,
		UserID:    userID,
		Body:      caption,
		Type:      string(model.MessageTypeText),
		FilePath:  att.Path,
		FileSize:  att.Size,
		FileMime:  att.Mime,
	}
	if err := s.create(sessionID, userID, ent); err != nil {
		// The row never landed; don't leave the file orphaned.
		if rmErr := s.files.Remove(att.Path); rmErr != nil {
			s.log.Warn("orphaned attachment cleanup failed",
				zap.String("path", att.Path), zap.Error(rmErr))
		}
		return nil, err
	}
	out := toMessage(ent)
	s.notify.Notify("message", sessionID, out, userID)
	return out, nil
}

func (s *MessageService) create(sessionID, userID string, ent *model.SessionMessage) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if _, err := activeSession(tx, sessionID); err != nil {
			return err
		}
		if err := requireActiveMember(tx, sessionID, userID); err != nil {
			return err
		}
		return tx.Create(ent).Error
	})
}

// Delete removes a message. Author-only; anyone else gets ErrNotFound.
func (s *MessageService) Delete(sessionID, userID, messageID string) error {
	var ent model.SessionMessage
	err := s.db.Where("id = ? AND session_id = ? AND user_id = ?", messageID, sessionID, userID).
		First(&ent).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errs.ErrNotFound
		}
		return err
	}
	if err := s.db.Delete(&ent).Error; err != nil {
		return err
	}
	if ent.FilePath != "" {
		if err := s.files.Remove(ent.FilePath); err != nil {
			s.log.Warn("attachment removal failed",
				zap.String("path", ent.FilePath), zap.Error(err))
		}
	}
	return nil
}

// List returns the most recent messages, newest first. Creator or active
// participants only.
func (s *MessageService) List(sessionID, userID string, limit int) ([]model.Message, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if err := requireActiveMember(s.db, sessionID, userID); err != nil {
		return nil, err
	}
	var ents []model.SessionMessage
	err := s.db.Where("session_id = ?", sessionID).
		Order("created_at DESC").
		Limit(limit).
		Find(&ents).Error
	if err != nil {
		return nil, err
	}
	return lo.Map(ents, func(ent model.SessionMessage, _ int) model.Message {
		return *toMessage(&ent)
	}), nil
}

// requireActiveMember fails with ErrNotFound unless the user has an active
// membership row. The creator always has one.
func requireActiveMember(tx *gorm.DB, sessionID, userID string) error {
	p, err := findParticipant(tx, sessionID, userID)
	if err != nil {
		return err
	}
	if p == nil || p.Status != string(model.ParticipantStatusActive) {
		return errs.ErrNotFound
	}
	return nil
}

func toMessage(ent *model.SessionMessage) *model.Message {
	return &model.Message{
		ID:        ent.ID,
		SessionID: ent.SessionID,
		UserID:    ent.UserID,
		Body:      ent.Body,
		Type:      model.MessageType(ent.Type),
		FilePath:  ent.FilePath,
		FileSize:  ent.FileSize,
		FileMime:  ent.FileMime,
		CreatedAt: ent.CreatedAt,
	}
}
