// Package book implements §3's client-side mirror of the server's object
// graph and §4.6's declarative message<->book projection. Grounded on the
// teacher's core/state_object.go style: a mutex-guarded aggregate root
// with plain map fields, mutated only through methods that also produce a
// typed change-event log, rather than exposing the maps directly.
package book

import "sync"

// ClientID, ChannelID and ServerGroupID are opaque identifiers assigned by
// the server; entities reference each other only by id (§3 "no back
// pointers").
type ClientID uint64
type ChannelID uint64
type ServerGroupID uint64

// MaxClientsKind is the tag of the MaxClients tri-state described in §4.6.
type MaxClientsKind int

const (
	MaxClientsUnlimited MaxClientsKind = iota
	MaxClientsInherited
	MaxClientsLimited
)

// MaxClients is `Unlimited | Inherited | Limited(u16)` from §3.
type MaxClients struct {
	Kind  MaxClientsKind
	Limit uint16 // valid when Kind == MaxClientsLimited
}

func Unlimited() MaxClients           { return MaxClients{Kind: MaxClientsUnlimited} }
func Inherited() MaxClients           { return MaxClients{Kind: MaxClientsInherited} }
func Limited(n uint16) MaxClients     { return MaxClients{Kind: MaxClientsLimited, Limit: n} }

// ChannelType is `Permanent | SemiPermanent | Temporary` from §3.
type ChannelType int

const (
	Temporary ChannelType = iota
	SemiPermanent
	Permanent
)

// TalkPowerRequest is the pending talk-power request surfaced by the
// `talk_power` transform (§4.6).
type TalkPowerRequest struct {
	Time    int64
	Message string
}

// Channel mirrors one server channel (§3).
type Channel struct {
	ID               ChannelID
	ParentID         ChannelID
	Name             string
	Topic            string
	Type             ChannelType
	MaxClients       MaxClients
	MaxFamilyClients MaxClients
	Order            int64
}

// Client mirrors one connected client (§3).
type Client struct {
	ID           ClientID
	Nickname     string
	ChannelID    ChannelID
	Away         *string // nil when not away, per the `away` transform
	TalkPower    *TalkPowerRequest
}

// ServerGroup mirrors one server group (§3).
type ServerGroup struct {
	ID   ServerGroupID
	Name string
}

// Server is the aggregate root: the book owns one per connection.
type Server struct {
	mu sync.Mutex

	Name           string
	Platform       string
	Version        string
	WelcomeMessage string
	MaxClients     int64
	OwnClientID    ClientID

	Clients map[ClientID]*Client
	Channels map[ChannelID]*Channel
	Groups   map[ServerGroupID]*ServerGroup
}

// NewServer returns an empty book, as it exists before `initserver`.
func NewServer() *Server {
	return &Server{
		Clients:  make(map[ClientID]*Client),
		Channels: make(map[ChannelID]*Channel),
		Groups:   make(map[ServerGroupID]*ServerGroup),
	}
}

// Snapshot returns a deep-enough copy of the book for a caller to read
// without racing the connection task's mutations (§6 "book() -> read-only
// snapshot").
func (s *Server) Snapshot() *Server {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := &Server{
		Name: s.Name, Platform: s.Platform, Version: s.Version,
		WelcomeMessage: s.WelcomeMessage, MaxClients: s.MaxClients, OwnClientID: s.OwnClientID,
		Clients:  make(map[ClientID]*Client, len(s.Clients)),
		Channels: make(map[ChannelID]*Channel, len(s.Channels)),
		Groups:   make(map[ServerGroupID]*ServerGroup, len(s.Groups)),
	}
	for id, c := range s.Clients {
		cc := *c
		out.Clients[id] = &cc
	}
	for id, c := range s.Channels {
		cc := *c
		out.Channels[id] = &cc
	}
	for id, g := range s.Groups {
		gg := *g
		out.Groups[id] = &gg
	}
	return out
}
