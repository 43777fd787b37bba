package core

// Inbound is the closed set of client events the router interprets. One
// struct per kind, so a dispatch switch covers every handler.
type Inbound interface {
	inbound()
}

// JoinPrivate asks to enter the code-gated room. The code arrives raw and
// is normalized by the router.
type JoinPrivate struct {
	Code string
}

// JoinPublic asks to enter the shared public room.
type JoinPublic struct{}

// SetNickname sets the session's display name.
type SetNickname struct {
	Nickname string
}

// SendMessage relays a chat line to the sender's current room.
type SendMessage struct {
	Text string
}

func (JoinPrivate) inbound() {}
func (JoinPublic) inbound()  {}
func (SetNickname) inbound() {}
func (SendMessage) inbound() {}

// Wire names for outbound envelopes.
const (
	KindInvalid     = "invalid"
	KindMessage     = "message"
	KindOnlineCount = "onlineCount"
)

// Message kinds carried inside a message envelope. Empty means plain chat.
const (
	MessageJoin  = "join"
	MessageLeave = "leave"
)

// Invalid tells the requester a private room code was rejected.
type Invalid struct {
	Type string `json:"type"`
}

// Message is the envelope for chat lines and join/leave notices. Receivers
// of a leave notice compare Room against their own room and discard on
// mismatch; join and chat envelopes are pre-filtered by the router.
type Message struct {
	Type        string `json:"type"`
	MessageType string `json:"messageType,omitempty"`
	Nickname    string `json:"nickname,omitempty"`
	Text        string `json:"text"`
	Room        string `json:"room"`
}

// OnlineCount reports the total connected sessions to everybody.
type OnlineCount struct {
	Type  string `json:"type"`
	Count int    `json:"count"`
}
