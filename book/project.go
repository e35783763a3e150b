package book

import (
	"github.com/imxeno/tsclientlib/internal/message"
	"github.com/imxeno/tsclientlib/internal/tslog"
)

// Book owns the Server aggregate and applies the M2B projection rules
// from §4.6. One Book belongs to exactly one connection.
type Book struct {
	Server *Server
	log    *tslog.Logger
}

// New returns an empty book ready to receive `initserver`.
func New(log *tslog.Logger) *Book {
	if log == nil {
		log = tslog.Nop()
	}
	return &Book{Server: NewServer(), log: log.Component(tslog.ComponentBook)}
}

// ApplyInitServer seeds the server's scalar attributes (§4.4: "seeds the
// book").
func (b *Book) ApplyInitServer(m message.InitServer) []Event {
	b.Server.mu.Lock()
	defer b.Server.mu.Unlock()

	var l eventLog
	setString(&l, PropertyId{Entity: EntityServer, Field: FieldName}, &b.Server.Name, m.VirtualServerName)
	setString(&l, PropertyId{Entity: EntityServer, Field: FieldWelcomeMessage}, &b.Server.WelcomeMessage, m.VirtualServerWelcomeMsg)
	b.Server.Platform = m.VirtualServerPlatform
	b.Server.Version = m.VirtualServerVersion
	b.Server.MaxClients = m.VirtualServerMaxClients
	b.Server.OwnClientID = ClientID(m.ClientID)
	return l.events
}

// ApplyChannelCreated implements the `channelcreated` M2B rule set (§4.6,
// scenario S4): inserts a new Channel and emits one Added event per field
// the rule table writes.
func (b *Book) ApplyChannelCreated(m message.ChannelCreated) []Event {
	b.Server.mu.Lock()
	defer b.Server.mu.Unlock()

	var l eventLog
	id := ChannelID(m.ChannelID)
	c := &Channel{ID: id, ParentID: ChannelID(m.ChannelParentID), Name: m.Name, Topic: m.Topic, Order: m.Order}

	isPermanent, isSemiPermanent := m.IsPermanent, m.IsSemiPermanent
	c.Type = channelTypeTransform(&isPermanent, &isSemiPermanent)

	own, family := maxClientsTransform(maxClientsInput{
		Unlimited:            m.IsMaxClientsUnlimited,
		FamilyUnlimited:      m.IsMaxFamilyClientsUnlimited,
		InheritsMaxFamily:    m.InheritsMaxFamilyClients,
		MaxClients:           m.MaxClients,
		MaxFamilyClients:     m.MaxFamilyClients,
		HaveMaxClients:       true,
		HaveMaxFamilyClients: true,
	}, maxClientsCreateOrEdit)
	if own != nil {
		c.MaxClients = *own
	}
	if family != nil {
		c.MaxFamilyClients = *family
	}

	b.Server.Channels[id] = c

	pid := func(f FieldTag) PropertyId { return PropertyId{Entity: EntityChannel, EntityID: uint64(id), Field: f} }
	l.added(pid(FieldName), c.Name)
	l.added(pid(FieldTopic), c.Topic)
	l.added(pid(FieldParentID), c.ParentID)
	l.added(pid(FieldOrder), c.Order)
	l.added(pid(FieldChannelType), c.Type)
	if own != nil {
		l.added(pid(FieldMaxClients), *own)
	}
	if family != nil {
		l.added(pid(FieldMaxFamilyClients), *family)
	}
	return l.events
}

// ApplyChannelEdited implements the `channeledited` rule set (§4.6):
// updates an existing Channel, recording the prior value of every field
// actually present on the wire message.
func (b *Book) ApplyChannelEdited(m message.ChannelEdited) []Event {
	b.Server.mu.Lock()
	defer b.Server.mu.Unlock()

	var l eventLog
	id := ChannelID(m.ChannelID)
	c, ok := b.Server.Channels[id]
	if !ok {
		b.log.Warn("channeledited: unknown channel", "cid", id)
		return nil
	}
	pid := func(f FieldTag) PropertyId { return PropertyId{Entity: EntityChannel, EntityID: uint64(id), Field: f} }

	if m.Name != "" && m.Name != c.Name {
		l.changed(pid(FieldName), c.Name, m.Name)
		c.Name = m.Name
	}
	if m.Topic != "" && m.Topic != c.Topic {
		l.changed(pid(FieldTopic), c.Topic, m.Topic)
		c.Topic = m.Topic
	}
	if m.IsPermanent != nil || m.IsSemiPermanent != nil {
		newType := channelTypeTransform(m.IsPermanent, m.IsSemiPermanent)
		if newType != c.Type {
			l.changed(pid(FieldChannelType), c.Type, newType)
			c.Type = newType
		}
	}
	return l.events
}

// ApplyServerGroupList implements the `servergrouplist` rule set (§3):
// inserts or updates each named ServerGroup, emitting Added for a group
// seen for the first time and Changed for a rename of a known one.
func (b *Book) ApplyServerGroupList(rows []message.ServerGroup) []Event {
	b.Server.mu.Lock()
	defer b.Server.mu.Unlock()

	var l eventLog
	for _, m := range rows {
		id := ServerGroupID(m.ServerGroupID)
		pid := PropertyId{Entity: EntityServerGroup, EntityID: uint64(id), Field: FieldName}
		g, ok := b.Server.Groups[id]
		if !ok {
			g = &ServerGroup{ID: id, Name: m.Name}
			b.Server.Groups[id] = g
			l.added(pid, g.Name)
			continue
		}
		if g.Name != m.Name {
			l.changed(pid, g.Name, m.Name)
			g.Name = m.Name
		}
	}
	return l.events
}

// ApplyClientMoved implements the `notifyclientmoved` rule set (§4.6):
// updates each named client's channel id.
func (b *Book) ApplyClientMoved(rows []message.ClientMoved) []Event {
	b.Server.mu.Lock()
	defer b.Server.mu.Unlock()

	var l eventLog
	for _, m := range rows {
		id := ClientID(m.ClientID)
		c, ok := b.Server.Clients[id]
		if !ok {
			b.log.Warn("notifyclientmoved: unknown client", "clid", id)
			continue
		}
		old := c.ChannelID
		newCh := ChannelID(m.ChannelID)
		if old == newCh {
			continue
		}
		l.changed(PropertyId{Entity: EntityClient, EntityID: uint64(id), Field: FieldChannelID}, old, newCh)
		c.ChannelID = newCh
	}
	return l.events
}

// ApplyClientUpdated implements the `away` and `talk_power` rules (§4.6).
func (b *Book) ApplyClientUpdated(m message.ClientUpdated) []Event {
	b.Server.mu.Lock()
	defer b.Server.mu.Unlock()

	var l eventLog
	id := ClientID(m.ClientID)
	c, ok := b.Server.Clients[id]
	if !ok {
		b.log.Warn("clientupdated: unknown client", "clid", id)
		return nil
	}
	pid := func(f FieldTag) PropertyId { return PropertyId{Entity: EntityClient, EntityID: uint64(id), Field: f} }

	newAway := awayTransform(m.IsAway, m.AwayMessage)
	if !equalAway(c.Away, newAway) {
		l.changed(pid(FieldAway), c.Away, newAway)
		c.Away = newAway
	}

	newTalk := talkPowerTransform(m.TalkPowerRequestTime, m.TalkPowerRequestMsg, 0)
	if !equalTalkPower(c.TalkPower, newTalk) {
		l.changed(pid(FieldTalkPower), c.TalkPower, newTalk)
		c.TalkPower = newTalk
	}
	return l.events
}

// ApplyClientEnterView implements the `notifycliententerview` rule set
// (§4.6): inserts a Client and emits its initial field events.
func (b *Book) ApplyClientEnterView(m message.ClientEnterView) []Event {
	b.Server.mu.Lock()
	defer b.Server.mu.Unlock()

	var l eventLog
	id := ClientID(m.ClientID)
	c := &Client{ID: id, Nickname: m.Nickname, ChannelID: ChannelID(m.ChannelID)}
	b.Server.Clients[id] = c

	pid := func(f FieldTag) PropertyId { return PropertyId{Entity: EntityClient, EntityID: uint64(id), Field: f} }
	l.added(pid(FieldNickname), c.Nickname)
	l.added(pid(FieldChannelID), c.ChannelID)
	return l.events
}

// ApplyClientLeftView implements the `notifyclientleftview` rule set
// (§4.6): removes a Client, recording its last known state.
func (b *Book) ApplyClientLeftView(m message.ClientLeftView) []Event {
	b.Server.mu.Lock()
	defer b.Server.mu.Unlock()

	id := ClientID(m.ClientID)
	c, ok := b.Server.Clients[id]
	if !ok {
		b.log.Warn("notifyclientleftview: unknown client", "clid", id)
		return nil
	}
	delete(b.Server.Clients, id)
	b.log.Info("client left view", "clid", id, "reason", DisconnectReasonFromID(m.ReasonID))

	var l eventLog
	l.removed(PropertyId{Entity: EntityClient, EntityID: uint64(id), Field: FieldNickname}, c.Nickname)
	return l.events
}

func setString(l *eventLog, p PropertyId, dst *string, value string) {
	if *dst == value {
		return
	}
	old := *dst
	*dst = value
	l.changed(p, old, value)
}

func equalAway(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func equalTalkPower(a, b *TalkPowerRequest) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
