package book

// EntityKind distinguishes which map a PropertyId's EntityID indexes into.
type EntityKind int

const (
	EntityServer EntityKind = iota
	EntityClient
	EntityChannel
	EntityServerGroup
)

// FieldTag names one mutable field of an entity. The concrete set is the
// one the projection rules in project.go actually write; it is not
// exhaustive of the wire schema.
type FieldTag string

const (
	FieldName             FieldTag = "name"
	FieldTopic            FieldTag = "topic"
	FieldChannelType      FieldTag = "channel_type"
	FieldMaxClients       FieldTag = "max_clients"
	FieldMaxFamilyClients FieldTag = "max_family_clients"
	FieldParentID         FieldTag = "parent_id"
	FieldOrder            FieldTag = "order"
	FieldNickname         FieldTag = "nickname"
	FieldChannelID        FieldTag = "channel_id"
	FieldAway             FieldTag = "away"
	FieldTalkPower        FieldTag = "talk_power"
	FieldWelcomeMessage   FieldTag = "welcome_message"
	FieldMaxClientsServer FieldTag = "server_max_clients"
)

// PropertyId identifies one field of one entity (§3 "Event").
type PropertyId struct {
	Entity   EntityKind
	EntityID uint64
	Field    FieldTag
}

// EventKind is the three shapes an Event can take (§3).
type EventKind int

const (
	EventChanged EventKind = iota
	EventAdded
	EventRemoved
)

// Event is a single projected change. OldValue is set for Changed and
// Removed; NewValue is set for Changed and Added.
type Event struct {
	Kind     EventKind
	Property PropertyId
	OldValue any
	NewValue any
}

// eventLog accumulates events during one M2B application; project.go
// methods take a *eventLog so a single inbound message's rule list emits
// everything it touches in one batch.
type eventLog struct {
	events []Event
}

func (l *eventLog) changed(p PropertyId, old, new any) {
	l.events = append(l.events, Event{Kind: EventChanged, Property: p, OldValue: old, NewValue: new})
}

func (l *eventLog) added(p PropertyId, new any) {
	l.events = append(l.events, Event{Kind: EventAdded, Property: p, NewValue: new})
}

func (l *eventLog) removed(p PropertyId, old any) {
	l.events = append(l.events, Event{Kind: EventRemoved, Property: p, OldValue: old})
}
