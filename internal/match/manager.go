package match

import (
	"math/rand"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/nocturne-games/battle-hub/internal/catalog"
)

// identity keys queue entries and the room directory. The same player id
// may legitimately appear from two different connections at once, so the
// pair is the unit of identity everywhere, never the id alone.
type identity struct {
	playerID string
	conn     Conn
}

// RoomsManager pairs queued players strictly by arrival order and keeps the
// directory from player identity to active room. One mutex covers the queue
// and the directory so that pairing is atomic with respect to concurrent
// removals. The manager never calls into a Room while holding its own lock;
// room destruction re-enters the manager through the cleanup callback.
type RoomsManager struct {
	mu        sync.Mutex
	queue     []*ServerPlayer
	rooms     map[string]*Room
	directory map[identity]string

	catalog *catalog.Catalog
	timing  Timing
	log     *zap.Logger
}

func NewRoomsManager(cat *catalog.Catalog, timing Timing, log *zap.Logger) *RoomsManager {
	if log == nil {
		log = zap.NewNop()
	}
	return &RoomsManager{
		rooms:     make(map[string]*Room),
		directory: make(map[identity]string),
		catalog:   cat,
		timing:    timing,
		log:       log,
	}
}

// AddPlayer enqueues a player and pairs the two oldest entries whenever the
// queue holds at least two. A no-op when this exact (id, connection) pair
// is already queued or already bound to a room. The paired room's opening
// frames go out only after the manager lock is released, so a slow peer
// never blocks other matchmaking.
func (m *RoomsManager) AddPlayer(p *ServerPlayer) {
	m.mu.Lock()

	key := identity{p.ID, p.Conn}
	if _, ok := m.directory[key]; ok {
		m.mu.Unlock()
		return
	}
	for _, q := range m.queue {
		if q.ID == p.ID && q.Conn == p.Conn {
			m.mu.Unlock()
			return
		}
	}

	m.log.Info("player queued", zap.String("username", p.Info.Username))
	m.queue = append(m.queue, p)
	room := m.pairLocked()
	m.mu.Unlock()

	if room != nil {
		room.Start()
	}
}

// pairLocked runs the FIFO pairing rule and registers the new room. Caller
// holds m.mu; mutating the queue and directory under the lock keeps pairing
// atomic against concurrent removals. The returned room has not announced
// anything yet; the caller starts it after unlocking.
func (m *RoomsManager) pairLocked() *Room {
	if len(m.queue) < 2 {
		return nil
	}
	p0, p1 := m.queue[0], m.queue[1]
	m.queue = append([]*ServerPlayer{}, m.queue[2:]...)

	var room *Room
	room = NewRoom([2]*ServerPlayer{p0, p1}, RoomDeps{
		Catalog: m.catalog,
		Timing:  m.timing,
		Rng:     rand.New(rand.NewSource(time.Now().UnixNano())),
		Log:     m.log,
	}, func() { m.release(room) })

	m.rooms[room.ID] = room
	m.directory[identity{p0.ID, p0.Conn}] = room.ID
	m.directory[identity{p1.ID, p1.Conn}] = room.ID
	return room
}

// release is the room cleanup callback; it runs outside the manager lock.
func (m *RoomsManager) release(room *Room) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range room.Players() {
		delete(m.directory, identity{p.ID, p.Conn})
	}
	delete(m.rooms, room.ID)
}

// GetRoomByPlayer resolves the active room for an identity pair, or nil.
func (m *RoomsManager) GetRoomByPlayer(playerID string, conn Conn) *Room {
	m.mu.Lock()
	defer m.mu.Unlock()
	roomID, ok := m.directory[identity{playerID, conn}]
	if !ok {
		return nil
	}
	return m.rooms[roomID]
}

// RemoveFromQueue withdraws a matching queue entry if present.
func (m *RoomsManager) RemoveFromQueue(playerID string, conn Conn) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.removeFromQueueLocked(playerID, conn)
}

func (m *RoomsManager) removeFromQueueLocked(playerID string, conn Conn) {
	for i, q := range m.queue {
		if q.ID == playerID && q.Conn == conn {
			m.log.Info("player removed from queue", zap.String("username", q.Info.Username))
			m.queue = append(m.queue[:i], m.queue[i+1:]...)
			return
		}
	}
}

// RemovePlayer withdraws the identity from the queue and, when it is seated
// in a room, resolves that seat as a disconnect. Explicit cancel and
// game-ended actions route here: the room treats them identically.
func (m *RoomsManager) RemovePlayer(playerID string, conn Conn) {
	m.mu.Lock()
	m.removeFromQueueLocked(playerID, conn)
	var room *Room
	if roomID, ok := m.directory[identity{playerID, conn}]; ok {
		room = m.rooms[roomID]
	}
	m.mu.Unlock()

	if room != nil {
		room.OnPlayerDisconnect(playerID)
	}
}

// OnServerDisconnect handles an upstream connection dropping entirely: it
// clears every queue entry owned by that connection and forfeits every seat
// it owns across all rooms, leaving unrelated entries untouched.
func (m *RoomsManager) OnServerDisconnect(conn Conn) {
	m.mu.Lock()
	kept := m.queue[:0]
	for _, q := range m.queue {
		if q.Conn == conn {
			m.log.Info("queued player dropped with server", zap.String("username", q.Info.Username))
			continue
		}
		kept = append(kept, q)
	}
	m.queue = kept

	type seat struct {
		room     *Room
		playerID string
	}
	var seats []seat
	for _, room := range m.rooms {
		for _, p := range room.Players() {
			if p.Conn == conn {
				seats = append(seats, seat{room, p.ID})
			}
		}
	}
	m.mu.Unlock()

	if len(seats) > 0 {
		m.log.Info("server disconnected, forfeiting its seats", zap.Int("seats", len(seats)))
	}
	for _, s := range seats {
		s.room.OnPlayerDisconnect(s.playerID)
	}
}

// QueueLen reports the current waiting-queue depth.
func (m *RoomsManager) QueueLen() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.queue)
}

// RoomCount reports the number of active rooms.
func (m *RoomsManager) RoomCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rooms)
}
