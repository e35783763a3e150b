// Package versions holds the client version table used in the handshake
// (§9 "Message schema versioning"): for each supported protocol build it
// carries the build string and server signature verification key the
// init exchange needs to complete step 4/6. Grounded on the teacher's
// params/config_*.go pattern of small, hand-maintained lookup tables keyed
// by a chain identifier, rather than a runtime-loaded config file — these
// values are only meaningful pinned to a client release.
package versions

import "github.com/imxeno/tsclientlib/internal/crypto"

// Row is one entry in the version table: a client build identified by its
// dotted version string, the exact build-date string the server expects in
// the `clientinit` command, and the Ed25519 key used to verify the
// server's license/signature chain for that release line.
type Row struct {
	Version      string
	BuildString  string
	Platform     string
	SignatureKey *crypto.Ed25519PublicKey
}

func mustKey(b64 string) *crypto.Ed25519PublicKey {
	k, err := crypto.Ed25519PublicKeyFromBase64(b64)
	if err != nil {
		panic(err)
	}
	return k
}

// builtIn is a small, hand-maintained set of known client releases. Real
// deployments pin one row per supported platform; this table is not
// exhaustive of every TeamSpeak client ever shipped.
var builtIn = []Row{
	{
		Version:     "3.5.6",
		BuildString: "[Build: 1634899999]",
		Platform:    "Linux",
		SignatureKey: mustKey("UrN2ubHDTw9gqKvTKsUNc8egY1VA7vRnr0FMb3dwG2w="),
	},
	{
		Version:     "3.5.6",
		BuildString: "[Build: 1634899999]",
		Platform:    "Windows",
		SignatureKey: mustKey("UrN2ubHDTw9gqKvTKsUNc8egY1VA7vRnr0FMb3dwG2w="),
	},
	{
		Version:     "3.5.6",
		BuildString: "[Build: 1634899999]",
		Platform:    "OS X",
		SignatureKey: mustKey("UrN2ubHDTw9gqKvTKsUNc8egY1VA7vRnr0FMb3dwG2w="),
	},
}

// ByVersion returns the first row matching a version/platform pair.
func ByVersion(version, platform string) (Row, bool) {
	for _, r := range builtIn {
		if r.Version == version && r.Platform == platform {
			return r, true
		}
	}
	return Row{}, false
}

// ByBuildString reverse-looks-up a row by its exact build string (§9
// supplemented reverse lookup).
func ByBuildString(buildString string) (Row, bool) {
	for _, r := range builtIn {
		if r.BuildString == buildString {
			return r, true
		}
	}
	return Row{}, false
}

// All returns the full built-in table, primarily for tests and for a
// caller that wants to offer version selection.
func All() []Row {
	out := make([]Row, len(builtIn))
	copy(out, builtIn)
	return out
}
