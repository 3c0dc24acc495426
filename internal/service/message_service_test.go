package service

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/brownjh18/SafeTalk-sub001/internal/errs"
	"github.com/brownjh18/SafeTalk-sub001/internal/filestore"
	"github.com/brownjh18/SafeTalk-sub001/internal/model"
)

func newMessageFixture(t *testing.T) (*MessageService, *ParticipantService, *SessionService, string, string) {
	t.Helper()
	db := newTestDB(t)
	hub := newTestHub(t)
	creator, sess := seedSession(t, db, hub, 4)
	store, err := filestore.New(t.TempDir(), 1<<20)
	require.NoError(t, err)
	msgs := NewMessageService(db, store, NopNotifier{}, zap.NewNop())
	parts := NewParticipantService(db, NopNotifier{}, zap.NewNop())
	sessions := NewSessionService(db, hub, zap.NewNop())
	return msgs, parts, sessions, sess.ID, creator.UserID
}

func TestPost_RequiresActiveMembership(t *testing.T) {
	req := require.New(t)
	msgs, parts, _, sessionID, creatorID := newMessageFixture(t)

	// Creator posts fine.
	m, err := msgs.Post(sessionID, creatorID, model.PostMessageRequest{Body: "welcome"})
	req.NoError(err)
	req.Equal(model.MessageTypeText, m.Type)

	// A stranger, and a pending requester, both read as not found.
	_, err = msgs.Post(sessionID, clientIdentity().UserID, model.PostMessageRequest{Body: "hi"})
	req.ErrorIs(err, errs.ErrNotFound)

	pending := clientIdentity()
	_, err = parts.RequestJoin(pending, sessionID)
	req.NoError(err)
	_, err = msgs.Post(sessionID, pending.UserID, model.PostMessageRequest{Body: "hi"})
	req.ErrorIs(err, errs.ErrNotFound)
}

func TestPost_RequiresActiveSession(t *testing.T) {
	req := require.New(t)
	msgs, _, sessions, sessionID, creatorID := newMessageFixture(t)

	req.NoError(sessions.End(sessionID, creatorID))
	_, err := msgs.Post(sessionID, creatorID, model.PostMessageRequest{Body: "late"})
	req.ErrorIs(err, errs.ErrConflict)
}

func TestDelete_AuthorOnly(t *testing.T) {
	req := require.New(t)
	msgs, parts, _, sessionID, creatorID := newMessageFixture(t)

	member := clientIdentity()
	_, err := parts.RequestJoin(member, sessionID)
	req.NoError(err)
	_, err = parts.Approve(sessionID, creatorID, member.UserID)
	req.NoError(err)

	m, err := msgs.Post(sessionID, member.UserID, model.PostMessageRequest{Body: "mine"})
	req.NoError(err)

	// Even the creator cannot delete someone else's message.
	req.ErrorIs(msgs.Delete(sessionID, creatorID, m.ID), errs.ErrNotFound)
	req.NoError(msgs.Delete(sessionID, member.UserID, m.ID))
	req.ErrorIs(msgs.Delete(sessionID, member.UserID, m.ID), errs.ErrNotFound)
}

func TestList_NewestFirstWithLimit(t *testing.T) {
	req := require.New(t)
	msgs, _, _, sessionID, creatorID := newMessageFixture(t)

	for i := 0; i < 5; i++ {
		_, err := msgs.Post(sessionID, creatorID, model.PostMessageRequest{Body: fmt.Sprintf("m%d", i)})
		req.NoError(err)
	}
	got, err := msgs.List(sessionID, creatorID, 3)
	req.NoError(err)
	req.Len(got, 3)

	_, err = msgs.List(sessionID, clientIdentity().UserID, 3)
	req.ErrorIs(err, errs.ErrNotFound)
}

func TestPostFile_RecordsAttachmentMetadata(t *testing.T) {
	req := require.New(t)
	msgs, _, _, sessionID, creatorID := newMessageFixture(t)

	body := strings.NewReader("plain text attachment body")
	m, err := msgs.PostFile(sessionID, creatorID, body, "notes.txt", "session notes")
	req.NoError(err)
	req.Equal("session notes", m.Body)
	req.NotEmpty(m.FilePath)
	req.EqualValues(26, m.FileSize)
	req.Contains(m.FileMime, "text/plain")
}
