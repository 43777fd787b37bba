// Package domain contains entity types and the few rules that belong to
// them; no transport or lifecycle logic here.
package domain

import "strings"

// Room identifies a broadcast scope. The zero value means the session has
// not joined anywhere yet.
type Room string

// PublicRoom is the sentinel scope clients join without a code.
const PublicRoom Room = "PUBLICROOM"

// MaxCodeLen bounds private room codes.
const MaxCodeLen = 7

// NormalizeCode maps a raw private room code to its canonical form: the
// first seven characters, uppercased. Truncation counts runes, not bytes,
// so multi-byte codes are never split mid-character and uppercasing a
// truncated code cannot push it past the limit again. Normalizing an
// already canonical code yields the same code.
func NormalizeCode(raw string) Room {
	runes := []rune(raw)
	if len(runes) > MaxCodeLen {
		runes = runes[:MaxCodeLen]
	}
	return Room(strings.ToUpper(string(runes)))
}
