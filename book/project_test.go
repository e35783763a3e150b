package book

import (
	"testing"

	"github.com/imxeno/tsclientlib/internal/message"
)

// TestChannelCreatedScenario is S4 from spec.md §8.
func TestChannelCreatedScenario(t *testing.T) {
	b := New(nil)
	events := b.ApplyChannelCreated(message.ChannelCreated{
		ChannelID:                   5,
		Name:                        "Lobby",
		IsMaxClientsUnlimited:       true,
		IsMaxFamilyClientsUnlimited: false,
		InheritsMaxFamilyClients:    true,
		IsPermanent:                 false,
		IsSemiPermanent:             true,
	})

	ch, ok := b.Server.Channels[5]
	if !ok {
		t.Fatalf("channel 5 not inserted")
	}
	if ch.MaxClients != Unlimited() {
		t.Fatalf("MaxClients = %+v, want Unlimited", ch.MaxClients)
	}
	if ch.MaxFamilyClients != Inherited() {
		t.Fatalf("MaxFamilyClients = %+v, want Inherited", ch.MaxFamilyClients)
	}
	if ch.Type != SemiPermanent {
		t.Fatalf("Type = %v, want SemiPermanent", ch.Type)
	}

	wantKinds := map[FieldTag]bool{
		FieldName: true, FieldTopic: true, FieldParentID: true, FieldOrder: true,
		FieldChannelType: true, FieldMaxClients: true, FieldMaxFamilyClients: true,
	}
	for _, e := range events {
		if e.Kind != EventAdded {
			t.Fatalf("expected all events to be Added, got %+v", e)
		}
		delete(wantKinds, e.Property.Field)
	}
	if len(wantKinds) != 0 {
		t.Fatalf("missing Added events for fields: %+v", wantKinds)
	}
}

func TestMaxClientsListVariantDefaultsFamilyUnlimited(t *testing.T) {
	own, family := maxClientsTransform(maxClientsInput{MaxClients: 10, HaveMaxClients: true}, maxClientsList)
	if own == nil || *own != Limited(10) {
		t.Fatalf("own = %+v, want Limited(10)", own)
	}
	if family == nil || *family != Unlimited() {
		t.Fatalf("family = %+v, want Unlimited (list-variant quirk)", family)
	}
}

func TestMaxClientsCreateVariantDropsUnmatchedFamily(t *testing.T) {
	_, family := maxClientsTransform(maxClientsInput{MaxClients: 10, HaveMaxClients: true}, maxClientsCreateOrEdit)
	if family != nil {
		t.Fatalf("family = %+v, want nil for create/edit with no match", family)
	}
}

func TestChannelTypeEditFalsePermanentYieldsTemporary(t *testing.T) {
	f := false
	got := channelTypeTransform(&f, nil)
	if got != Temporary {
		t.Fatalf("got %v, want Temporary", got)
	}
}

// TestPropertyChangedRecordsPriorValue is property 5 from spec.md §8.
func TestPropertyChangedRecordsPriorValue(t *testing.T) {
	b := New(nil)
	b.ApplyClientEnterView(message.ClientEnterView{ClientID: 1, ChannelID: 2, Nickname: "alice"})

	events := b.ApplyClientMoved([]message.ClientMoved{{ClientID: 1, ChannelID: 9}})
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %+v", events)
	}
	e := events[0]
	if e.Kind != EventChanged {
		t.Fatalf("expected Changed, got %v", e.Kind)
	}
	if e.OldValue.(ChannelID) != 2 {
		t.Fatalf("OldValue = %v, want 2 (the channel before the move)", e.OldValue)
	}
	if b.Server.Clients[1].ChannelID != 9 {
		t.Fatalf("client not moved: %+v", b.Server.Clients[1])
	}
}

func TestClientLeftViewRemovesClient(t *testing.T) {
	b := New(nil)
	b.ApplyClientEnterView(message.ClientEnterView{ClientID: 1, ChannelID: 2, Nickname: "alice"})
	events := b.ApplyClientLeftView(message.ClientLeftView{ClientID: 1})
	if len(events) != 1 || events[0].Kind != EventRemoved {
		t.Fatalf("unexpected events: %+v", events)
	}
	if _, ok := b.Server.Clients[1]; ok {
		t.Fatalf("client 1 should have been removed")
	}
}

func TestClientUpdatedAwayTransform(t *testing.T) {
	b := New(nil)
	b.ApplyClientEnterView(message.ClientEnterView{ClientID: 1, ChannelID: 2, Nickname: "alice"})
	b.ApplyClientUpdated(message.ClientUpdated{ClientID: 1, IsAway: true, AwayMessage: "brb"})
	if b.Server.Clients[1].Away == nil || *b.Server.Clients[1].Away != "brb" {
		t.Fatalf("away state not applied: %+v", b.Server.Clients[1].Away)
	}
}

func TestServerGroupListInsertsAndRenames(t *testing.T) {
	b := New(nil)
	events := b.ApplyServerGroupList([]message.ServerGroup{
		{ServerGroupID: 1, Name: "Guest"},
		{ServerGroupID: 2, Name: "Admin"},
	})
	if len(events) != 2 {
		t.Fatalf("expected 2 Added events, got %+v", events)
	}
	for _, e := range events {
		if e.Kind != EventAdded || e.Property.Entity != EntityServerGroup {
			t.Fatalf("unexpected event: %+v", e)
		}
	}
	if g, ok := b.Server.Groups[1]; !ok || g.Name != "Guest" {
		t.Fatalf("group 1 not inserted: %+v", b.Server.Groups[1])
	}

	renamed := b.ApplyServerGroupList([]message.ServerGroup{{ServerGroupID: 1, Name: "Visitor"}})
	if len(renamed) != 1 || renamed[0].Kind != EventChanged {
		t.Fatalf("expected a single Changed event for the rename, got %+v", renamed)
	}
	if b.Server.Groups[1].Name != "Visitor" {
		t.Fatalf("group 1 not renamed: %+v", b.Server.Groups[1])
	}
}

func TestUnknownEntityIsLoggedAndSkipped(t *testing.T) {
	b := New(nil)
	events := b.ApplyClientMoved([]message.ClientMoved{{ClientID: 404, ChannelID: 9}})
	if len(events) != 0 {
		t.Fatalf("expected no events for an unknown client, got %+v", events)
	}
}
