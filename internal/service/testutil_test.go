package service

import (
	"path/filepath"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/brownjh18/SafeTalk-sub001/internal/auth"
	"github.com/brownjh18/SafeTalk-sub001/internal/model"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&model.GroupSession{},
		&model.SessionParticipant{},
		&model.SessionMessage{},
	))
	return db
}

func newTestHub(t *testing.T) *SignalHub {
	t.Helper()
	return NewSignalHub(4096, 4096, 1<<16, zap.NewNop())
}

// recordingNotifier captures emitted events for assertions.
type recordingNotifier struct {
	mu     sync.Mutex
	events []recordedEvent
}

type recordedEvent struct {
	Event     string
	SessionID string
	Exclude   string
}

func (r *recordingNotifier) Notify(event, sessionID string, payload any, excludeUserID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, recordedEvent{Event: event, SessionID: sessionID, Exclude: excludeUserID})
}

func (r *recordingNotifier) byType(event string) []recordedEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []recordedEvent
	for _, e := range r.events {
		if e.Event == event {
			out = append(out, e)
		}
	}
	return out
}

func counselorIdentity() auth.Identity {
	return auth.Identity{UserID: uuid.New().String(), Role: auth.RoleCounselor, Verified: true}
}

func clientIdentity() auth.Identity {
	return auth.Identity{UserID: uuid.New().String(), Role: auth.RoleClient, Verified: true}
}

// seedSession creates an active session owned by a fresh verified counselor.
func seedSession(t *testing.T, db *gorm.DB, hub *SignalHub, maxParticipants int) (auth.Identity, *model.Session) {
	t.Helper()
	svc := NewSessionService(db, hub, zap.NewNop())
	creator := counselorIdentity()
	sess, err := svc.Create(creator, model.CreateSessionRequest{
		Title:           "weekly check-in",
		Mode:            string(model.SessionModeMessage),
		MaxParticipants: maxParticipants,
	})
	require.NoError(t, err)
	require.NoError(t, svc.Start(sess.ID, creator.UserID))
	sess.IsActive = true
	return creator, sess
}
