package realtime

import (
	"sync"

	"github.com/gorilla/websocket"

	chat "github.com/mohdafzal1700/max-chat/internal/pkg/chat/application/domain"
)

// Mailbox maps each user id to the set of live connections subscribed to that
// user's delivery channel. Membership is purely in-process state: it is
// rebuilt from nothing on restart, which is why presence truth is reconciled
// only through connect/disconnect side effects.
//
// Contention is naturally partitioned by user; a single RWMutex over the
// two-level map keeps publishes to distinct users from blocking each other on
// anything but the brief snapshot.
type Mailbox struct {
	mu      sync.RWMutex
	members map[chat.UserID]map[string]*Connection // userID -> connID -> connection
}

// NewMailbox constructs an empty registry.
func NewMailbox() *Mailbox {
	return &Mailbox{
		members: make(map[chat.UserID]map[string]*Connection),
	}
}

// Join subscribes the connection under its user's mailbox and starts its
// write loop. All live connections of a user receive every published event
// (fan-out to all, multi-device).
func (m *Mailbox) Join(conn *Connection) {
	m.mu.Lock()
	set := m.members[conn.UserID]
	if set == nil {
		set = make(map[string]*Connection)
		m.members[conn.UserID] = set
	}
	set[conn.ID] = conn
	m.mu.Unlock()

	conn.Start()
}

// Leave removes the connection from its user's mailbox. Safe to call for a
// connection that already left.
func (m *Mailbox) Leave(conn *Connection) {
	m.mu.Lock()
	m.leaveLocked(conn.UserID, conn.ID)
	m.mu.Unlock()
}

// Publish delivers payload to every connection joined under userID at the
// moment of the call and returns the number of successful handoffs.
// Connections that join after the snapshot see nothing; a connection whose
// send fails is treated as dead and evicted from future fan-out.
func (m *Mailbox) Publish(userID chat.UserID, payload []byte) int {
	m.mu.RLock()
	set := m.members[userID]
	snapshot := make([]*Connection, 0, len(set))
	for _, conn := range set {
		snapshot = append(snapshot, conn)
	}
	m.mu.RUnlock()

	delivered := 0
	for _, conn := range snapshot {
		if err := conn.Send(payload); err != nil {
			m.evict(conn)
			continue
		}
		delivered++
	}
	return delivered
}

// Connections reports how many live connections are joined for the user.
func (m *Mailbox) Connections(userID chat.UserID) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.members[userID])
}

// Close terminates all tracked connections and clears membership.
func (m *Mailbox) Close() {
	m.mu.Lock()
	conns := make([]*Connection, 0)
	for _, set := range m.members {
		for _, conn := range set {
			conns = append(conns, conn)
		}
	}
	m.members = make(map[chat.UserID]map[string]*Connection)
	m.mu.Unlock()

	for _, conn := range conns {
		conn.Close(websocket.CloseGoingAway, "server shutdown")
	}
}

func (m *Mailbox) evict(conn *Connection) {
	m.mu.Lock()
	m.leaveLocked(conn.UserID, conn.ID)
	m.mu.Unlock()
	conn.Close(websocket.CloseAbnormalClosure, "send failed")
}

func (m *Mailbox) leaveLocked(userID chat.UserID, connID string) {
	set := m.members[userID]
	if set == nil {
		return
	}
	delete(set, connID)
	if len(set) == 0 {
		delete(m.members, userID)
	}
}
