package fanout

import (
	"sync"

	"javelin/internal/models"
)

// PeerTable is the id -> mailbox map the manager and channels use to
// deliver cross-connection control messages (chiefly Disconnect on
// republish). Held behind a reader-writer lock per spec.md §5: hot
// paths acquire it briefly and copy the handle out.
type PeerTable struct {
	mu    sync.RWMutex
	peers map[models.ConnectionId]Mailbox
}

// NewPeerTable returns an empty peer table.
func NewPeerTable() *PeerTable {
	return &PeerTable{peers: make(map[models.ConnectionId]Mailbox)}
}

// Register associates conn with its mailbox so other connections can
// reach it by id.
func (p *PeerTable) Register(conn models.ConnectionId, mb Mailbox) {
	p.mu.Lock()
	p.peers[conn] = mb
	p.mu.Unlock()
}

// Deregister removes conn, typically on Connection actor shutdown.
func (p *PeerTable) Deregister(conn models.ConnectionId) {
	p.mu.Lock()
	delete(p.peers, conn)
	p.mu.Unlock()
}

// Disconnect best-effort delivers a Disconnect message to conn. A
// receiver that has already moved on (deregistered) is treated as
// already gone, matching spec.md §5's cancellation semantics.
func (p *PeerTable) Disconnect(conn models.ConnectionId) {
	p.mu.RLock()
	mb, ok := p.peers[conn]
	p.mu.RUnlock()

	if ok {
		trySend(mb, MailboxMsg{Kind: KindDisconnect})
	}
}
