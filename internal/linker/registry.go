package linker

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/coder/websocket"
	"go.uber.org/zap"

	"github.com/nocturne-games/battle-hub/internal/match"
	"github.com/nocturne-games/battle-hub/internal/protocol"
)

const reconnectDelay = 1 * time.Second

// Registry tracks one managed connection per battle-socket URL. A URL stays
// managed for the life of the process: when its socket drops, the seats and
// queue entries it owned are forfeited and a new dial starts after a fixed
// delay.
type Registry struct {
	manager *match.RoomsManager
	token   string
	log     *zap.Logger
	ctx     context.Context

	mu      sync.Mutex
	servers map[string]*ServerConn // URL -> current conn, nil while dialing
}

func NewRegistry(ctx context.Context, manager *match.RoomsManager, token string, log *zap.Logger) *Registry {
	if log == nil {
		log = zap.NewNop()
	}
	return &Registry{
		manager: manager,
		token:   token,
		log:     log,
		ctx:     ctx,
		servers: make(map[string]*ServerConn),
	}
}

// Register starts managing a battle-socket URL. A URL already managed is
// left alone; re-registering never produces a second connection loop.
func (g *Registry) Register(url string) {
	g.mu.Lock()
	if _, ok := g.servers[url]; ok {
		g.mu.Unlock()
		return
	}
	g.servers[url] = nil
	g.mu.Unlock()

	go g.maintain(url)
}

// Connected reports whether the URL currently has an identified connection.
func (g *Registry) Connected(url string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	conn, ok := g.servers[url]
	return ok && conn != nil && conn.Open()
}

func (g *Registry) maintain(url string) {
	log := g.log.With(zap.String("url", url))
	for {
		if err := g.serve(url, log); err != nil {
			log.Warn("server connection closed", zap.Error(err))
		}
		select {
		case <-g.ctx.Done():
			return
		case <-time.After(reconnectDelay):
		}
	}
}

// serve runs one connection attempt to completion: dial, identify, then
// read until the socket dies. On exit every seat and queue entry owned by
// this connection is forfeited.
func (g *Registry) serve(url string, log *zap.Logger) error {
	log.Info("connecting to game server")
	ws, _, err := websocket.Dial(g.ctx, url, nil)
	if err != nil {
		return err
	}

	conn := newServerConn(url, ws, log)
	defer func() {
		conn.setOpen(false)
		ws.Close(websocket.StatusNormalClosure, "bye")
		g.mu.Lock()
		if g.servers[url] == conn {
			g.servers[url] = nil
		}
		g.mu.Unlock()
		g.manager.OnServerDisconnect(conn)
	}()

	if err := conn.Send(protocol.Identify{Linker: true, Action: "identify", Token: g.token}); err != nil {
		return err
	}

	for {
		_, data, err := ws.Read(g.ctx)
		if err != nil {
			return err
		}
		g.handleFrame(conn, url, data, log)
	}
}

func (g *Registry) handleFrame(conn *ServerConn, url string, data []byte, log *zap.Logger) {
	if !conn.Open() {
		var ack struct {
			Status string `json:"status"`
			Action string `json:"action"`
		}
		if err := json.Unmarshal(data, &ack); err != nil {
			log.Error("malformed frame during identify", zap.Error(err))
			return
		}
		if ack.Status == protocol.StatusOK && ack.Action == "identified" {
			conn.setOpen(true)
			g.mu.Lock()
			g.servers[url] = conn
			g.mu.Unlock()
			log.Info("authenticated with game server")
		}
		// Anything else before the handshake completes is dropped.
		return
	}

	var env protocol.Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		log.Error("malformed frame", zap.Error(err))
		return
	}
	if !env.Linker || env.PlayerID == "" {
		return
	}
	g.handleEnvelope(conn, env, log)
}

// handleEnvelope routes one player action into the match core. Actions that
// need a bound room yield a soft notice back on the connection when the
// player has none; unknown tags fall through silently.
func (g *Registry) handleEnvelope(conn match.Conn, env protocol.Envelope, log *zap.Logger) {
	action, err := env.Decode()
	if err != nil {
		log.Error("malformed action payload",
			zap.String("player_id", env.PlayerID), zap.Error(err))
		return
	}

	room := g.manager.GetRoomByPlayer(env.PlayerID, conn)

	switch a := action.(type) {
	case protocol.StartMatch:
		if env.PlayerInfo == nil {
			log.Error("startMatch without playerInfo", zap.String("player_id", env.PlayerID))
			g.notice(conn, env.PlayerID, "missing info")
			return
		}
		player := match.NewServerPlayer(conn, *env.PlayerInfo)
		player.Level = a.PlayerLevel
		g.manager.AddPlayer(player)

	case protocol.CancelGame:
		g.manager.RemovePlayer(env.PlayerID, conn)

	case protocol.GameIsOver:
		// Only startMatch and cancelGame are valid without a bound room;
		// a room-less gameIsOver must not touch the queue.
		if room == nil {
			g.notice(conn, env.PlayerID, "player not in a room")
			return
		}
		g.manager.RemovePlayer(env.PlayerID, conn)

	case protocol.Heartbeat:
		// Keepalive only.

	case protocol.BanChart:
		if room == nil {
			g.notice(conn, env.PlayerID, "player not in a room")
			return
		}
		room.OnPlayerSetBan(env.PlayerID, a.ChartIndex)

	case protocol.PlayerReady:
		if room == nil {
			g.notice(conn, env.PlayerID, "player not in a room")
			return
		}
		room.OnPlayerReady(env.PlayerID)

	case protocol.ScoreUpdate:
		if room == nil {
			g.notice(conn, env.PlayerID, "player not in a room")
			return
		}
		room.OnPlayerUpdateScore(env.PlayerID, a)

	case protocol.DonePlaying:
		if room == nil {
			g.notice(conn, env.PlayerID, "player not in a room")
			return
		}
		room.OnPlayerDonePlaying(env.PlayerID, a.JudgeDetails, env.PlayResult)

	case protocol.UnknownAction:
		// Defined no-op.
	}
}

func (g *Registry) notice(conn match.Conn, playerID, text string) {
	_ = conn.Send(protocol.Notice{Linker: true, TargetPlayerID: playerID, Notice: text})
}
