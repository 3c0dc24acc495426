package service

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/brownjh18/SafeTalk-sub001/internal/auth"
	"github.com/brownjh18/SafeTalk-sub001/internal/errs"
	"github.com/brownjh18/SafeTalk-sub001/internal/model"
)

func TestCreate_RequiresVerifiedCounselor(t *testing.T) {
	req := require.New(t)
	db := newTestDB(t)
	svc := NewSessionService(db, newTestHub(t), zap.NewNop())

	tpl := model.CreateSessionRequest{Title: "group", Mode: "message", MaxParticipants: 4}

	_, err := svc.Create(clientIdentity(), tpl)
	req.ErrorIs(err, errs.ErrForbidden)

	unverified := auth.Identity{UserID: "u1", Role: auth.RoleCounselor, Verified: false}
	_, err = svc.Create(unverified, tpl)
	req.ErrorIs(err, errs.ErrForbidden)

	_, err = svc.Create(counselorIdentity(), tpl)
	req.NoError(err)
}

func TestCreate_AttachesCreatorAsActiveParticipant(t *testing.T) {
	req := require.New(t)
	db := newTestDB(t)
	svc := NewSessionService(db, newTestHub(t), zap.NewNop())
	creator := counselorIdentity()

	sess, err := svc.Create(creator, model.CreateSessionRequest{
		Title: "group", Mode: "audio", MaxParticipants: 3,
	})
	req.NoError(err)
	req.False(sess.IsActive)
	req.Equal(model.SessionModeAudio, sess.Mode)

	var p model.SessionParticipant
	req.NoError(db.Where("session_id = ? AND user_id = ?", sess.ID, creator.UserID).First(&p).Error)
	req.Equal(string(model.ParticipantRoleCreator), p.Role)
	req.Equal(string(model.ParticipantStatusActive), p.Status)
}

func TestStartEnd_IsAToggle(t *testing.T) {
	req := require.New(t)
	db := newTestDB(t)
	svc := NewSessionService(db, newTestHub(t), zap.NewNop())
	creator := counselorIdentity()

	sess, err := svc.Create(creator, model.CreateSessionRequest{
		Title: "group", Mode: "message", MaxParticipants: 4,
	})
	req.NoError(err)

	req.NoError(svc.Start(sess.ID, creator.UserID))
	// Starting an already-active session matches nothing.
	req.ErrorIs(svc.Start(sess.ID, creator.UserID), errs.ErrNotFound)

	req.NoError(svc.End(sess.ID, creator.UserID))
	req.ErrorIs(svc.End(sess.ID, creator.UserID), errs.ErrNotFound)

	// Ended is not terminal: the creator can start again.
	req.NoError(svc.Start(sess.ID, creator.UserID))
}

func TestEnd_ByNonCreatorIsNotFound(t *testing.T) {
	req := require.New(t)
	db := newTestDB(t)
	hub := newTestHub(t)
	creator, sess := seedSession(t, db, hub, 4)
	svc := NewSessionService(db, hub, zap.NewNop())

	err := svc.End(sess.ID, clientIdentity().UserID)
	req.ErrorIs(err, errs.ErrNotFound)

	got, err := svc.Get(creator, sess.ID)
	req.NoError(err)
	req.True(got.IsActive)
}

func TestEnd_KeepsMessagesAndParticipants(t *testing.T) {
	req := require.New(t)
	db := newTestDB(t)
	hub := newTestHub(t)
	creator, sess := seedSession(t, db, hub, 4)
	svc := NewSessionService(db, hub, zap.NewNop())
	msgs := NewMessageService(db, nil, NopNotifier{}, zap.NewNop())

	_, err := msgs.Post(sess.ID, creator.UserID, model.PostMessageRequest{Body: "hello"})
	req.NoError(err)

	req.NoError(svc.End(sess.ID, creator.UserID))

	var nMsgs, nParts int64
	req.NoError(db.Model(&model.SessionMessage{}).Where("session_id = ?", sess.ID).Count(&nMsgs).Error)
	req.NoError(db.Model(&model.SessionParticipant{}).Where("session_id = ?", sess.ID).Count(&nParts).Error)
	req.EqualValues(1, nMsgs)
	req.EqualValues(1, nParts)
}

func TestUpdate_ModeIsImmutable(t *testing.T) {
	req := require.New(t)
	db := newTestDB(t)
	hub := newTestHub(t)
	creator, sess := seedSession(t, db, hub, 4)
	svc := NewSessionService(db, hub, zap.NewNop())

	_, err := svc.Update(sess.ID, creator.UserID, model.UpdateSessionRequest{
		Title: "renamed", Mode: "audio", MaxParticipants: 4,
	})
	req.ErrorIs(err, errs.ErrConflict)

	var ent model.GroupSession
	req.NoError(db.First(&ent, "id = ?", sess.ID).Error)
	req.Equal("message", ent.Mode)
	req.Equal("weekly check-in", ent.Title)

	// Same mode (or omitted) is fine.
	got, err := svc.Update(sess.ID, creator.UserID, model.UpdateSessionRequest{
		Title: "renamed", MaxParticipants: 6,
	})
	req.NoError(err)
	req.Equal("renamed", got.Title)
	req.Equal(6, got.MaxParticipants)
	req.Equal(model.SessionModeMessage, got.Mode)
}

func TestUpdate_OnlyWhileActive(t *testing.T) {
	req := require.New(t)
	db := newTestDB(t)
	hub := newTestHub(t)
	creator, sess := seedSession(t, db, hub, 4)
	svc := NewSessionService(db, hub, zap.NewNop())

	req.NoError(svc.End(sess.ID, creator.UserID))
	_, err := svc.Update(sess.ID, creator.UserID, model.UpdateSessionRequest{
		Title: "renamed", MaxParticipants: 4,
	})
	req.ErrorIs(err, errs.ErrConflict)
}

func TestUpdate_OmittedDescriptionIsKept(t *testing.T) {
	req := require.New(t)
	db := newTestDB(t)
	hub := newTestHub(t)
	creator, sess := seedSession(t, db, hub, 4)
	svc := NewSessionService(db, hub, zap.NewNop())

	desc := "safe space, Tuesdays"
	got, err := svc.Update(sess.ID, creator.UserID, model.UpdateSessionRequest{
		Title: "group", Description: &desc, MaxParticipants: 4,
	})
	req.NoError(err)
	req.Equal(desc, got.Description)

	// A request without the field leaves the stored description alone.
	got, err = svc.Update(sess.ID, creator.UserID, model.UpdateSessionRequest{
		Title: "renamed", MaxParticipants: 4,
	})
	req.NoError(err)
	req.Equal(desc, got.Description)

	// An explicit empty string clears it.
	empty := ""
	got, err = svc.Update(sess.ID, creator.UserID, model.UpdateSessionRequest{
		Title: "renamed", Description: &empty, MaxParticipants: 4,
	})
	req.NoError(err)
	req.Empty(got.Description)
}

func TestDelete_CascadesParticipantsAndMessages(t *testing.T) {
	req := require.New(t)
	db := newTestDB(t)
	hub := newTestHub(t)
	creator, sess := seedSession(t, db, hub, 4)
	svc := NewSessionService(db, hub, zap.NewNop())
	msgs := NewMessageService(db, nil, NopNotifier{}, zap.NewNop())

	_, err := msgs.Post(sess.ID, creator.UserID, model.PostMessageRequest{Body: "hello"})
	req.NoError(err)

	req.ErrorIs(svc.Delete(sess.ID, clientIdentity().UserID), errs.ErrNotFound)
	req.NoError(svc.Delete(sess.ID, creator.UserID))

	var n int64
	req.NoError(db.Model(&model.GroupSession{}).Where("id = ?", sess.ID).Count(&n).Error)
	req.Zero(n)
	req.NoError(db.Model(&model.SessionParticipant{}).Where("session_id = ?", sess.ID).Count(&n).Error)
	req.Zero(n)
	req.NoError(db.Model(&model.SessionMessage{}).Where("session_id = ?", sess.ID).Count(&n).Error)
	req.Zero(n)
}

func TestGet_HidesExistenceFromNonMembers(t *testing.T) {
	req := require.New(t)
	db := newTestDB(t)
	hub := newTestHub(t)
	_, sess := seedSession(t, db, hub, 4)
	svc := NewSessionService(db, hub, zap.NewNop())

	_, err := svc.Get(clientIdentity(), sess.ID)
	req.ErrorIs(err, errs.ErrNotFound)

	_, err = svc.Get(clientIdentity(), "00000000-0000-0000-0000-000000000000")
	req.ErrorIs(err, errs.ErrNotFound)
}

func TestGet_MembersOnlySeeActiveParticipants(t *testing.T) {
	req := require.New(t)
	db := newTestDB(t)
	hub := newTestHub(t)
	creator, sess := seedSession(t, db, hub, 4)
	svc := NewSessionService(db, hub, zap.NewNop())
	parts := NewParticipantService(db, NopNotifier{}, zap.NewNop())

	member := clientIdentity()
	pending := clientIdentity()
	_, err := parts.RequestJoin(member, sess.ID)
	req.NoError(err)
	_, err = parts.Approve(sess.ID, creator.UserID, member.UserID)
	req.NoError(err)
	_, err = parts.RequestJoin(pending, sess.ID)
	req.NoError(err)

	asMember, err := svc.Get(member, sess.ID)
	req.NoError(err)
	req.Len(asMember.Participants, 2) // creator + member

	asCreator, err := svc.Get(creator, sess.ID)
	req.NoError(err)
	req.Len(asCreator.Participants, 3)
}
