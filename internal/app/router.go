// Package app implements the chat relay engine: session registry, room
// directory, content filter and the message router that ties them together.
package app

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/vleray/parley/internal/core"
	"github.com/vleray/parley/internal/domain"
)

// Router interprets inbound events, mutates session state and computes the
// delivery set for every outbound notification.
//
// Broadcast scope is deliberately asymmetric: join notices and chat lines
// are filtered by room here, while leave notices and online counts go to
// every connected session and the receiving side discards room mismatches.
//
// A single mutex serializes every handler end to end, so each event runs to
// completion before the next one touches the registry.
type Router struct {
	mu       sync.Mutex
	sessions *Registry
	rooms    *RoomDirectory
	filter   *ContentFilter
}

func NewRouter(sessions *Registry, rooms *RoomDirectory, filter *ContentFilter) *Router {
	return &Router{
		sessions: sessions,
		rooms:    rooms,
		filter:   filter,
	}
}

// Connect registers a transport as a fresh session and announces the new
// online count to everybody, the new session included.
func (rt *Router) Connect(conn core.Transport) *Session {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	sess := rt.sessions.Register(conn)
	rt.broadcastCount()
	return sess
}

// Handle dispatches one inbound event for the given session. Events for
// unknown sessions are dropped.
func (rt *Router) Handle(id domain.SessionID, ev core.Inbound) {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	sess, ok := rt.sessions.Find(id)
	if !ok {
		log.Warn().Str("module", "app.router").Str("sid", string(id)).Msg("event for unknown session")
		return
	}

	switch e := ev.(type) {
	case core.JoinPrivate:
		rt.joinPrivate(sess, e.Code)
	case core.JoinPublic:
		sess.Room = domain.PublicRoom
		log.Info().Str("module", "app.router").Str("sid", string(sess.ID)).Msg("joined public room")
	case core.SetNickname:
		rt.setNickname(sess, e.Nickname)
	case core.SendMessage:
		rt.sendMessage(sess, e.Text)
	}
}

// Disconnect tears the session down: the leave notice goes out globally,
// and only for sessions that had both a room and a nickname. Removal and
// the count broadcast happen unconditionally, so calling this twice for
// the same ID is harmless.
func (rt *Router) Disconnect(id domain.SessionID) {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	if sess, ok := rt.sessions.Find(id); ok && sess.Room != "" && sess.Nickname != "" {
		rt.broadcast(core.Message{
			Type:        core.KindMessage,
			MessageType: core.MessageLeave,
			Text:        "A user left the room.",
			Room:        string(sess.Room),
		}, nil)
		log.Info().Str("module", "app.router").Str("sid", string(id)).Str("room", string(sess.Room)).Msg("leave announced")
	}

	rt.sessions.Remove(id)
	rt.broadcastCount()
}

// joinPrivate normalizes the code and either assigns the room or signals
// the requester alone. A rejected code leaves the session untouched; the
// client may retry.
func (rt *Router) joinPrivate(sess *Session, raw string) {
	code := domain.NormalizeCode(raw)
	if !rt.rooms.Contains(code) {
		log.Info().Str("module", "app.router").Str("sid", string(sess.ID)).Str("code", string(code)).Msg("invalid room code")
		rt.send(sess, core.Invalid{Type: core.KindInvalid})
		return
	}
	sess.Room = code
	log.Info().Str("module", "app.router").Str("sid", string(sess.ID)).Str("room", string(code)).Msg("joined private room")
}

// setNickname stores the filtered display name and announces the join to
// the session's current room. The announcement waits for the nickname
// because it carries the display name.
func (rt *Router) setNickname(sess *Session, raw string) {
	sess.Nickname = rt.filter.Nickname(raw)
	rt.roomcast(core.Message{
		Type:        core.KindMessage,
		MessageType: core.MessageJoin,
		Text:        fmt.Sprintf("The user <b>%s</b> joined the room.", sess.Nickname),
		Room:        string(sess.Room),
	}, sess.Room, sess)
	log.Info().Str("module", "app.router").Str("sid", string(sess.ID)).Str("nickname", sess.Nickname).Msg("nickname set")
}

// sendMessage relays a chat line to every other session in the sender's
// room. Whitespace-only input is dropped without signaling the sender.
func (rt *Router) sendMessage(sess *Session, raw string) {
	if strings.TrimSpace(raw) == "" {
		return
	}
	rt.roomcast(core.Message{
		Type:     core.KindMessage,
		Nickname: sess.Nickname,
		Text:     rt.filter.Body(raw),
		Room:     string(sess.Room),
	}, sess.Room, sess)
}

func (rt *Router) broadcastCount() {
	rt.broadcast(core.OnlineCount{Type: core.KindOnlineCount, Count: rt.sessions.Len()}, nil)
}

// roomcast delivers to every session whose room matches, except the one
// given.
func (rt *Router) roomcast(env any, room domain.Room, except *Session) {
	for _, other := range rt.sessions.Snapshot() {
		if other == except || other.Room != room {
			continue
		}
		rt.send(other, env)
	}
}

// broadcast delivers to every connected session, except the one given.
func (rt *Router) broadcast(env any, except *Session) {
	for _, other := range rt.sessions.Snapshot() {
		if other == except {
			continue
		}
		rt.send(other, env)
	}
}

func (rt *Router) send(sess *Session, env any) {
	data, err := json.Marshal(env)
	if err != nil {
		log.Error().Err(err).Str("module", "app.router").Msg("marshal outbound")
		return
	}
	if err := sess.Conn.TrySend(core.Frame(data)); err != nil {
		log.Debug().Err(err).Str("module", "app.router").Str("sid", string(sess.ID)).Msg("frame dropped")
	}
}
