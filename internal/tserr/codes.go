package tserr

// ErrorInfo names one entry of the server's numeric error table (§13): the
// generator that produces the full table is out of scope, so this carries
// only the handful of codes exercised by tests and the handshake's own
// error paths.
type ErrorInfo struct {
	Code uint32
	Name string
}

// codeTable is a hand-populated subset of the server error table, keyed by
// the numeric id the `error` command reports.
var codeTable = map[uint32]ErrorInfo{
	0x0000: {Code: 0x0000, Name: "ok"},
	0x0001: {Code: 0x0001, Name: "undefined"},
	0x0002: {Code: 0x0002, Name: "not_implemented"},
	0x0005: {Code: 0x0005, Name: "library_time_limit_reached"},
	0x0100: {Code: 0x0100, Name: "command_not_found"},
	0x0200: {Code: 0x0200, Name: "use_book_temp_channels"},
	0x0300: {Code: 0x0300, Name: "channel_invalid_id"},
	0x0301: {Code: 0x0301, Name: "channel_not_found"},
	0x0400: {Code: 0x0400, Name: "client_invalid_id"},
	0x0401: {Code: 0x0401, Name: "client_nickname_inuse"},
	0x0501: {Code: 0x0501, Name: "server_invalid_id"},
	0x0700: {Code: 0x0700, Name: "parameter_quote"},
	0x0701: {Code: 0x0701, Name: "parameter_invalid_count"},
	0x0702: {Code: 0x0702, Name: "parameter_invalid"},
	0x0A00: {Code: 0x0A00, Name: "permission_invalid_group_id"},
	0x0A08: {Code: 0x0A08, Name: "permission_invalid_perm_id"},
	0x0B00: {Code: 0x0B00, Name: "accounting_generic"},
}

// NameForCode looks up the human-readable name for a server error code, for
// diagnostics and log lines; ok is false for a code not in codeTable (not
// the same as the server reporting no error).
func NameForCode(code uint32) (string, bool) {
	info, ok := codeTable[code]
	return info.Name, ok
}
