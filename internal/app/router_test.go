package app

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vleray/parley/internal/core"
	"github.com/vleray/parley/internal/domain"
)

// fakeConn records every frame the router pushes through it.
type fakeConn struct {
	mu     sync.Mutex
	frames []core.Frame
	closed bool
}

func (f *fakeConn) TrySend(fr core.Frame) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return errors.New("closed")
	}
	f.frames = append(f.frames, fr)
	return nil
}

func (f *fakeConn) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
}

func (f *fakeConn) reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.frames = nil
}

// decoded returns every recorded frame as a generic map.
func (f *fakeConn) decoded(t *testing.T) []map[string]any {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]map[string]any, 0, len(f.frames))
	for _, fr := range f.frames {
		var m map[string]any
		require.NoError(t, json.Unmarshal(fr, &m))
		out = append(out, m)
	}
	return out
}

func (f *fakeConn) ofType(t *testing.T, kind string) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, m := range f.decoded(t) {
		if m["type"] == kind {
			out = append(out, m)
		}
	}
	return out
}

func newTestRouter(t *testing.T, codes ...string) *Router {
	t.Helper()
	filter, err := NewContentFilter(nil, '*')
	require.NoError(t, err)
	return NewRouter(NewRegistry(), NewRoomDirectory(codes), filter)
}

func TestConnectBroadcastsOnlineCount(t *testing.T) {
	req := require.New(t)
	rt := newTestRouter(t)

	a := &fakeConn{}
	b := &fakeConn{}
	rt.Connect(a)
	rt.Connect(b)

	counts := a.ofType(t, core.KindOnlineCount)
	req.Len(counts, 2)
	req.EqualValues(1, counts[0]["count"])
	req.EqualValues(2, counts[1]["count"])

	counts = b.ofType(t, core.KindOnlineCount)
	req.Len(counts, 1)
	req.EqualValues(2, counts[0]["count"])
}

func TestJoinPrivateNormalizesCode(t *testing.T) {
	req := require.New(t)
	rt := newTestRouter(t, "ABCDEFG")

	conn := &fakeConn{}
	sess := rt.Connect(conn)
	conn.reset()

	// Nine raw characters collapse to the seven-char canonical code.
	rt.Handle(sess.ID, core.JoinPrivate{Code: "abcdefghi"})

	req.Equal(domain.Room("ABCDEFG"), sess.Room)
	req.Empty(conn.ofType(t, core.KindInvalid))
}

func TestJoinPrivateInvalidCode(t *testing.T) {
	req := require.New(t)
	rt := newTestRouter(t, "ABCDEFG")

	member := &fakeConn{}
	memberSess := rt.Connect(member)
	rt.Handle(memberSess.ID, core.JoinPrivate{Code: "ABCDEFG"})

	conn := &fakeConn{}
	sess := rt.Connect(conn)
	member.reset()
	conn.reset()

	rt.Handle(sess.ID, core.JoinPrivate{Code: "zzzzzzz"})

	req.Equal(domain.Room(""), sess.Room)
	req.Len(conn.ofType(t, core.KindInvalid), 1)
	// No room-scoped broadcast reaches anyone else.
	req.Empty(member.decoded(t))
}

func TestJoinPublicUnconditional(t *testing.T) {
	rt := newTestRouter(t)
	sess := rt.Connect(&fakeConn{})
	rt.Handle(sess.ID, core.JoinPublic{})
	require.Equal(t, domain.PublicRoom, sess.Room)
}

func TestSetNicknameAnnouncesJoinToRoommates(t *testing.T) {
	req := require.New(t)
	rt := newTestRouter(t)

	a := &fakeConn{}
	aSess := rt.Connect(a)
	rt.Handle(aSess.ID, core.JoinPublic{})
	rt.Handle(aSess.ID, core.SetNickname{Nickname: "alice"})

	b := &fakeConn{}
	bSess := rt.Connect(b)
	rt.Handle(bSess.ID, core.JoinPublic{})
	a.reset()
	b.reset()
	rt.Handle(bSess.ID, core.SetNickname{Nickname: "bob"})

	joins := a.ofType(t, core.KindMessage)
	req.Len(joins, 1)
	req.Equal("join", joins[0]["messageType"])
	req.Equal("The user <b>bob</b> joined the room.", joins[0]["text"])
	req.Equal(string(domain.PublicRoom), joins[0]["room"])

	// The requester never hears about its own join.
	req.Empty(b.decoded(t))
}

func TestSendMessageRoomScopedAndExcludesSender(t *testing.T) {
	req := require.New(t)
	rt := newTestRouter(t, "ABCDEFG")

	sender := &fakeConn{}
	senderSess := rt.Connect(sender)
	rt.Handle(senderSess.ID, core.JoinPublic{})
	rt.Handle(senderSess.ID, core.SetNickname{Nickname: "alice"})

	roommate := &fakeConn{}
	roommateSess := rt.Connect(roommate)
	rt.Handle(roommateSess.ID, core.JoinPublic{})

	outsider := &fakeConn{}
	outsiderSess := rt.Connect(outsider)
	rt.Handle(outsiderSess.ID, core.JoinPrivate{Code: "ABCDEFG"})

	sender.reset()
	roommate.reset()
	outsider.reset()

	rt.Handle(senderSess.ID, core.SendMessage{Text: "hello there"})

	got := roommate.ofType(t, core.KindMessage)
	req.Len(got, 1)
	req.Equal("hello there", got[0]["text"])
	req.Equal("alice", got[0]["nickname"])
	req.Equal(string(domain.PublicRoom), got[0]["room"])
	_, hasKind := got[0]["messageType"]
	req.False(hasKind, "plain chat carries no messageType")

	req.Empty(sender.decoded(t), "sender must not receive its own message")
	req.Empty(outsider.decoded(t), "other rooms must not receive it")
}

func TestSendMessageWhitespaceDroppedSilently(t *testing.T) {
	req := require.New(t)
	rt := newTestRouter(t)

	sender := &fakeConn{}
	senderSess := rt.Connect(sender)
	rt.Handle(senderSess.ID, core.JoinPublic{})

	other := &fakeConn{}
	otherSess := rt.Connect(other)
	rt.Handle(otherSess.ID, core.JoinPublic{})

	sender.reset()
	other.reset()

	rt.Handle(senderSess.ID, core.SendMessage{Text: "   "})

	req.Empty(sender.decoded(t))
	req.Empty(other.decoded(t))
}

func TestDisconnectLeaveNotificationGating(t *testing.T) {
	tests := []struct {
		name        string
		join        bool
		nickname    string
		expectLeave bool
	}{
		{name: "room and nickname", join: true, nickname: "alice", expectLeave: true},
		{name: "room without nickname", join: true, expectLeave: false},
		{name: "nickname without room", nickname: "alice", expectLeave: false},
		{name: "neither", expectLeave: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := require.New(t)
			rt := newTestRouter(t)

			// Watcher sits in a different room: a leave notice is global,
			// so it must arrive here too.
			watcher := &fakeConn{}
			watcherSess := rt.Connect(watcher)
			rt.Handle(watcherSess.ID, core.JoinPublic{})

			conn := &fakeConn{}
			sess := rt.Connect(conn)
			if tt.join {
				rt.Handle(sess.ID, core.JoinPublic{})
			}
			if tt.nickname != "" {
				rt.Handle(sess.ID, core.SetNickname{Nickname: tt.nickname})
			}
			watcher.reset()

			rt.Disconnect(sess.ID)

			leaves := watcher.ofType(t, core.KindMessage)
			if tt.expectLeave {
				req.Len(leaves, 1)
				req.Equal("leave", leaves[0]["messageType"])
				req.Equal("A user left the room.", leaves[0]["text"])
				req.Equal(string(domain.PublicRoom), leaves[0]["room"])
			} else {
				req.Empty(leaves)
			}

			counts := watcher.ofType(t, core.KindOnlineCount)
			req.NotEmpty(counts)
			req.EqualValues(1, counts[len(counts)-1]["count"])
		})
	}
}

func TestDisconnectIdempotent(t *testing.T) {
	req := require.New(t)
	rt := newTestRouter(t)

	watcher := &fakeConn{}
	watcherSess := rt.Connect(watcher)
	rt.Handle(watcherSess.ID, core.JoinPublic{})
	rt.Handle(watcherSess.ID, core.SetNickname{Nickname: "watcher"})

	conn := &fakeConn{}
	sess := rt.Connect(conn)
	rt.Handle(sess.ID, core.JoinPublic{})
	rt.Handle(sess.ID, core.SetNickname{Nickname: "alice"})
	watcher.reset()

	rt.Disconnect(sess.ID)
	rt.Disconnect(sess.ID)

	req.Equal(1, rt.sessions.Len())
	// Exactly one leave notice despite the double disconnect.
	req.Len(watcher.ofType(t, core.KindMessage), 1)
}

func TestOnlineCountAfterConnectsAndDisconnects(t *testing.T) {
	req := require.New(t)
	rt := newTestRouter(t)

	witness := &fakeConn{}
	rt.Connect(witness)

	conns := make([]*Session, 3)
	for i := range conns {
		conns[i] = rt.Connect(&fakeConn{})
	}
	rt.Disconnect(conns[0].ID)
	rt.Disconnect(conns[1].ID)

	counts := witness.ofType(t, core.KindOnlineCount)
	req.NotEmpty(counts)
	// 4 connects minus 2 disconnects.
	req.EqualValues(2, counts[len(counts)-1]["count"])
}

func TestHandleUnknownSessionIsNoop(t *testing.T) {
	rt := newTestRouter(t)
	conn := &fakeConn{}
	rt.Connect(conn)
	conn.reset()

	rt.Handle(domain.SessionID("missing"), core.JoinPublic{})
	require.Empty(t, conn.decoded(t))
}
