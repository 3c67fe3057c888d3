package hub

import "sync"

// Channels tracks which connections belong to which broadcast channels.
// Membership is mutated by explicit join/leave calls and cleared entirely when
// the owning connection disconnects. All methods are safe for concurrent use.
type Channels struct {
	mu        sync.RWMutex
	byConn    map[string]map[string]struct{}
	byChannel map[string]map[string]struct{}
}

// NewChannels creates an empty membership table
func NewChannels() *Channels {
	return &Channels{
		byConn:    make(map[string]map[string]struct{}),
		byChannel: make(map[string]map[string]struct{}),
	}
}

// Join adds the connection to the channel. Joining the same channel twice is
// idempotent.
func (c *Channels) Join(connID, channel string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.byConn[connID] == nil {
		c.byConn[connID] = make(map[string]struct{})
	}
	c.byConn[connID][channel] = struct{}{}

	if c.byChannel[channel] == nil {
		c.byChannel[channel] = make(map[string]struct{})
	}
	c.byChannel[channel][connID] = struct{}{}
}

// Leave removes the connection from the channel. Leaving a channel the
// connection is not in is a no-op.
func (c *Channels) Leave(connID, channel string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.leaveLocked(connID, channel)
}

// LeaveAll removes the connection from every channel it has joined. Called on
// disconnect; must run on every disconnect path or memberships leak.
func (c *Channels) LeaveAll(connID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for channel := range c.byConn[connID] {
		c.leaveLocked(connID, channel)
	}
}

func (c *Channels) leaveLocked(connID, channel string) {
	if members, ok := c.byChannel[channel]; ok {
		delete(members, connID)
		if len(members) == 0 {
			delete(c.byChannel, channel)
		}
	}
	if chans, ok := c.byConn[connID]; ok {
		delete(chans, channel)
		if len(chans) == 0 {
			delete(c.byConn, connID)
		}
	}
}

// MembersOf returns the connection ids currently joined to the channel
func (c *Channels) MembersOf(channel string) []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	members := make([]string, 0, len(c.byChannel[channel]))
	for connID := range c.byChannel[channel] {
		members = append(members, connID)
	}
	return members
}

// ChannelsOf returns the channels the connection has joined
func (c *Channels) ChannelsOf(connID string) []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	channels := make([]string, 0, len(c.byConn[connID]))
	for channel := range c.byConn[connID] {
		channels = append(channels, channel)
	}
	return channels
}

// Count returns the number of channels with at least one member
func (c *Channels) Count() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.byChannel)
}
