// Terminal client for the relay. Lines starting with # are commands
// (#room CODE, #public, #nick NAME, #reconnect); everything else is sent as
// a chat message.
package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	ws "github.com/gorilla/websocket"
)

// The server never times anything out; bounding connection establishment is
// the connecting side's job.
const connectTimeout = 10 * time.Second

var (
	addr = flag.String("a", "localhost", "Address of server to connect to")
	port = flag.String("p", "8080", "Port of server to connect to")
)

type frame struct {
	Type     string `json:"type"`
	RoomCode string `json:"roomCode,omitempty"`
	Nickname string `json:"nickname,omitempty"`
	Text     string `json:"text,omitempty"`
}

type client struct {
	url  url.URL
	conn *ws.Conn
}

// connect dials the relay, closing any prior active connection first so the
// client holds at most one live transport.
func (c *client) connect() error {
	if c.conn != nil {
		_ = c.conn.WriteMessage(ws.CloseMessage, ws.FormatCloseMessage(ws.CloseNormalClosure, ""))
		_ = c.conn.Close()
		c.conn = nil
	}

	dialer := ws.Dialer{HandshakeTimeout: connectTimeout}
	conn, _, err := dialer.Dial(c.url.String(), nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", c.url.String(), err)
	}
	c.conn = conn

	go func() {
		for {
			_, message, err := conn.ReadMessage()
			if err != nil {
				fmt.Fprintf(os.Stderr, "read error: %s\n", err)
				return
			}
			fmt.Println(string(message))
		}
	}()
	return nil
}

func (c *client) emit(f frame) {
	data, err := json.Marshal(f)
	if err != nil {
		fmt.Fprintf(os.Stderr, "marshal error: %s\n", err)
		return
	}
	if err := c.conn.WriteMessage(ws.TextMessage, data); err != nil {
		fmt.Fprintf(os.Stderr, "write error: %s\n", err)
	}
}

func main() {
	flag.Parse()

	c := &client{url: url.URL{Scheme: "ws", Host: fmt.Sprintf("%s:%s", *addr, *port), Path: "/ws"}}
	fmt.Printf("Connecting to %s\n", c.url.String())
	if err := c.connect(); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", err)
		os.Exit(1)
	}

	input := bufio.NewScanner(os.Stdin)
	for input.Scan() {
		line := input.Text()
		cmd, arg, _ := strings.Cut(strings.TrimPrefix(line, "#"), " ")
		switch {
		case !strings.HasPrefix(line, "#"):
			c.emit(frame{Type: "sendMessage", Text: line})
		case cmd == "room":
			c.emit(frame{Type: "room", RoomCode: arg})
		case cmd == "public":
			c.emit(frame{Type: "publicRoom"})
		case cmd == "nick":
			c.emit(frame{Type: "nickname", Nickname: arg})
		case cmd == "reconnect":
			if err := c.connect(); err != nil {
				fmt.Fprintf(os.Stderr, "%s\n", err)
			}
		default:
			fmt.Fprintf(os.Stderr, "unknown command: %s\n", cmd)
		}
	}

	if c.conn != nil {
		_ = c.conn.WriteMessage(ws.CloseMessage, ws.FormatCloseMessage(ws.CloseNormalClosure, ""))
		_ = c.conn.Close()
	}
}
