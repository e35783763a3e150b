package message

// Variant structs below are the hand-written equivalent of what a
// generator would emit from the message declaration table (§4.5): one
// struct per named command, field order matching wire declaration order,
// `ts:"key"` naming the wire key and whether the field is static or
// belongs to a list row.

// ClientInitIV is the C2S step-4 command carrying client identity and the
// hash-cash proof (§4.4).
type ClientInitIV struct {
	Alpha            string `ts:"alpha,static"`
	Omega            string `ts:"omega,static"`
	IP               string `ts:"ip,static,optional"`
	ClientKeyOffset  uint64 `ts:"client_key_offset,static"`
}

// InitIvExpand2 is the S2C step-6/8 command carrying the server's license
// chain and proof (§4.4).
type InitIvExpand2 struct {
	License    string `ts:"l,static"`
	Beta       string `ts:"beta,static"`
	Omega      string `ts:"omega,static"`
	Time       uint64 `ts:"time,static"`
	Alpha      string `ts:"alpha,static"`
	Proof      string `ts:"proof,static"`
}

// ClientInit is the terminal C2S handshake command sent once session keys
// are derived (§4.4).
type ClientInit struct {
	Nickname               string `ts:"client_nickname,static"`
	Version                string `ts:"client_version,static"`
	Platform               string `ts:"client_platform,static"`
	InputHardwareEnabled   bool   `ts:"client_input_hardware,static"`
	OutputHardwareEnabled  bool   `ts:"client_output_hardware,static"`
	DefaultChannel         string `ts:"client_default_channel,static,optional"`
	DefaultChannelPassword string `ts:"client_default_channel_password,static,optional"`
	ServerPassword         string `ts:"client_server_password,static,optional"`
	MetaData               string `ts:"client_meta_data,static,optional"`
	VersionSign            string `ts:"client_version_sign,static"`
	Badges                 string `ts:"client_badges,static,optional"`
	HardwareID             string `ts:"hwid,static,optional"`
	DefaultToken           string `ts:"client_default_token,static,optional"`
}

// InitServer is the S2C push that seeds the book (§4.4).
type InitServer struct {
	VirtualServerName        string `ts:"virtualserver_name,static"`
	VirtualServerWelcomeMsg  string `ts:"virtualserver_welcomemessage,static,optional"`
	VirtualServerPlatform    string `ts:"virtualserver_platform,static,optional"`
	VirtualServerVersion     string `ts:"virtualserver_version,static,optional"`
	VirtualServerMaxClients  int64  `ts:"virtualserver_maxclients,static,optional"`
	ClientID                 uint64 `ts:"aclid,static"`
}

// ChannelCreated is the S2C push that inserts a channel into the book
// (§4.6, scenario S4).
type ChannelCreated struct {
	ChannelID                 uint64  `ts:"cid,static"`
	ChannelParentID           uint64  `ts:"cpid,static,optional"`
	Name                      string  `ts:"channel_name,static"`
	Topic                     string  `ts:"channel_topic,static,optional"`
	IsPermanent               bool    `ts:"channel_flag_permanent,static,optional"`
	IsSemiPermanent           bool    `ts:"channel_flag_semi_permanent,static,optional"`
	IsMaxClientsUnlimited     bool    `ts:"channel_flag_maxclients_unlimited,static,optional"`
	MaxClients                int64   `ts:"channel_maxclients,static,optional"`
	IsMaxFamilyClientsUnlimited bool  `ts:"channel_flag_maxfamilyclients_unlimited,static,optional"`
	InheritsMaxFamilyClients  bool    `ts:"channel_flag_maxfamilyclients_inherited,static,optional"`
	MaxFamilyClients          int64   `ts:"channel_maxfamilyclients,static,optional"`
	Order                     int64   `ts:"channel_order,static,optional"`
	InvokerID                 uint64  `ts:"invokerid,static,optional"`
}

// ChannelEdited is the S2C push for an existing channel's property changes
// (§4.6).
type ChannelEdited struct {
	ChannelID             uint64 `ts:"cid,static"`
	Name                  string `ts:"channel_name,static,optional"`
	Topic                 string `ts:"channel_topic,static,optional"`
	IsPermanent           *bool  `ts:"channel_flag_permanent,static,optional"`
	IsSemiPermanent       *bool  `ts:"channel_flag_semi_permanent,static,optional"`
	InvokerID             uint64 `ts:"invokerid,static,optional"`
}

// ClientMoved is the S2C push reporting a client's channel move (§4.6).
type ClientMoved struct {
	ClientID   uint64 `ts:"clid,list"`
	ChannelID  uint64 `ts:"ctid,static"`
	ReasonID   uint64 `ts:"reasonid,static"`
}

// ClientUpdated carries property updates for one client, e.g. away state
// and talk power requests (§4.6).
type ClientUpdated struct {
	ClientID              uint64 `ts:"clid,static"`
	IsAway                bool   `ts:"client_away,static,optional"`
	AwayMessage           string `ts:"client_away_message,static,optional"`
	TalkPowerRequestTime  int64  `ts:"client_talk_request,static,optional"`
	TalkPowerRequestMsg   string `ts:"client_talk_request_msg,static,optional"`
}

// ClientEnterView is the S2C push announcing a client joining the server
// or moving into visibility (§4.6).
type ClientEnterView struct {
	ClientID  uint64 `ts:"clid,static"`
	ChannelID uint64 `ts:"ctid,static"`
	Nickname  string `ts:"client_nickname,static"`
}

// ClientLeftView is the S2C push announcing a client leaving visibility or
// disconnecting (§4.6).
type ClientLeftView struct {
	ClientID uint64 `ts:"clid,static"`
	ReasonID int64  `ts:"reasonid,static,optional"`
}

// ServerGroup is the S2C `servergrouplist` push answering a caller's group
// list request (§3 "groups: map<ServerGroupId, ServerGroup>"): one row per
// group, static fields promoted per row the same way ClientEnterView is.
type ServerGroup struct {
	ServerGroupID uint64 `ts:"sgid,static"`
	Name          string `ts:"name,static"`
}

// TextMessage is the C2S `sendtextmessage` / S2C `notifytextmessage`
// command (§6 caller API, scenario S5).
type TextMessage struct {
	TargetMode int64  `ts:"targetmode,static"`
	Target     uint64 `ts:"target,static,optional"`
	Msg        string `ts:"msg,static"`
	ReturnCode string `ts:"return_code,static,optional"`
}

// ClientDisconnect is the graceful-shutdown COMMAND (§4.4 cancellation,
// scenario S6).
type ClientDisconnect struct {
	ReasonID  int64  `ts:"reasonid,static"`
	ReasonMsg string `ts:"reasonmsg,static,optional"`
}

// Ack mirrors the small `ackN`-style body of ACK/ACK_LOW packets, which
// carry no command text but are represented here for symmetry with the
// rest of the codec surface used by tests.
type Ack struct {
	PacketID uint64 `ts:"pid,static"`
}
