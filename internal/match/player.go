// Package match is the hub's core: the per-room battle state machine and
// the matchmaking queue that feeds it. It is transport-independent; bytes
// reach it through the Conn interface.
package match

import (
	"github.com/nocturne-games/battle-hub/internal/protocol"
)

// Conn is one upstream game-server connection as seen by the core. A player
// identity is always the pair (player id, Conn); implementations must be
// comparable (pointers are).
type Conn interface {
	// Send writes one JSON frame. Implementations own their write timeout.
	Send(v any) error
	// Open reports whether the connection currently accepts writes.
	Open() bool
}

// ServerPlayer binds one remote player to the connection that speaks for
// it, for the duration of a single queue entry or match.
type ServerPlayer struct {
	ID   string
	Conn Conn
	Info protocol.PlayerInfo

	// Level starts from Info.Level but is overridden by the startMatch
	// payload, which may carry a fresher value.
	Level int

	// LastScore is the most recent mid-play score report, kept as the
	// fallback result when this player forfeits.
	LastScore *protocol.ScoreUpdate
}

func NewServerPlayer(conn Conn, info protocol.PlayerInfo) *ServerPlayer {
	return &ServerPlayer{
		ID:    info.ID,
		Conn:  conn,
		Info:  info,
		Level: info.Level,
	}
}

// SendMessage delivers a message to this player's connection, wrapped in
// the linker envelope. Messages to a closed connection are dropped; write
// failures are logged by the Conn implementation, never propagated here.
func (p *ServerPlayer) SendMessage(msg protocol.ServerMessage) {
	if p.Conn == nil || !p.Conn.Open() {
		return
	}
	_ = p.Conn.Send(protocol.LinkerMessage{
		Linker:         true,
		TargetPlayerID: p.ID,
		Message:        msg,
	})
}
