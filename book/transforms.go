package book

import (
	"net/netip"
)

// maxClientsVariant selects which of the two quirks in the `max_clients`
// transform apply (§4.6): the `list` variant defaults the family limit to
// Unlimited instead of dropping it when nothing else matches.
type maxClientsVariant int

const (
	maxClientsCreateOrEdit maxClientsVariant = iota
	maxClientsList
)

// maxClientsInput bundles the three wire flags and two limits the
// transform reads, plus whether each limit was present on the wire.
type maxClientsInput struct {
	Unlimited               bool
	FamilyUnlimited         bool
	InheritsMaxFamily       bool
	MaxClients              int64
	MaxFamilyClients        int64
	HaveMaxClients          bool
	HaveMaxFamilyClients    bool
}

// maxClientsTransform implements the `max_clients` rule from §4.6:
// returns (own, family), either of which may be absent (nil).
func maxClientsTransform(in maxClientsInput, variant maxClientsVariant) (*MaxClients, *MaxClients) {
	var own *MaxClients
	switch {
	case in.Unlimited:
		v := Unlimited()
		own = &v
	case in.HaveMaxClients && in.MaxClients >= 0 && in.MaxClients <= 0xffff:
		v := Limited(uint16(in.MaxClients))
		own = &v
	}

	var family *MaxClients
	switch {
	case in.FamilyUnlimited:
		v := Unlimited()
		family = &v
	case in.InheritsMaxFamily:
		v := Inherited()
		family = &v
	case in.HaveMaxFamilyClients && in.MaxFamilyClients >= 0 && in.MaxFamilyClients <= 0xffff:
		v := Limited(uint16(in.MaxFamilyClients))
		family = &v
	case variant == maxClientsList:
		v := Unlimited()
		family = &v
	}
	return own, family
}

// channelTypeTransform implements `channel_type` (§4.6). isPermanent nil
// means the wire message did not report the field at all (no change);
// Some(false) with no semi-permanent flag still yields Temporary.
func channelTypeTransform(isPermanent, isSemiPermanent *bool) ChannelType {
	if isPermanent != nil && *isPermanent {
		return Permanent
	}
	if isSemiPermanent != nil && *isSemiPermanent {
		return SemiPermanent
	}
	return Temporary
}

// awayTransform implements `away` (§4.6).
func awayTransform(isAway bool, message string) *string {
	if !isAway {
		return nil
	}
	m := message
	return &m
}

// awayB2M is the symmetric outbound mapping (§4.6 "away_b2m"): it turns a
// caller-set away message (or its absence) into the `client_away` /
// `client_away_message` argument pair for a `clientupdate` command.
func awayB2M(message *string) (isAway bool, msg string) {
	if message == nil {
		return false, ""
	}
	return true, *message
}

// talkPowerTransform implements `talk_power` (§4.6). epoch is the message
// timestamp the comparison is relative to; in practice the wire value is
// an absolute unix time and epoch is 0.
func talkPowerTransform(requestTime int64, message string, epoch int64) *TalkPowerRequest {
	if requestTime <= epoch {
		return nil
	}
	return &TalkPowerRequest{Time: requestTime, Message: message}
}

// addressTransform implements `address` (§4.6): parses an IP string and
// combines it with a port, returning nil on a malformed address rather
// than erroring the whole projection.
func addressTransform(ip string, port uint16) *netip.AddrPort {
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return nil
	}
	ap := netip.AddrPortFrom(addr, port)
	return &ap
}
