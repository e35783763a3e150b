package book

import "github.com/imxeno/tsclientlib/internal/message"

// SetAway builds the `clientupdate` B2M command for a caller-initiated
// away-state change (§4.6 "away_b2m"). A nil awayMsg clears away state.
func SetAway(awayMsg *string) message.ClientUpdated {
	isAway, msg := awayB2M(awayMsg)
	return message.ClientUpdated{IsAway: isAway, AwayMessage: msg}
}
