package gateway

import "sync"

// ConnectionManager safely stores and retrieves active client connections.
type ConnectionManager struct {
	connections sync.Map // map[connID]*Client
}

func NewConnectionManager() *ConnectionManager {
	return &ConnectionManager{}
}

func (cm *ConnectionManager) Add(c *Client) {
	cm.connections.Store(c.ID(), c)
}

func (cm *ConnectionManager) Remove(connID string) {
	cm.connections.Delete(connID)
}

// Count reports the number of connected clients.
func (cm *ConnectionManager) Count() int {
	n := 0
	cm.connections.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}
