// Command ts3cli is a minimal interactive client: it connects, prints
// server and book events to stdout, and lets the operator send raw
// commands from the terminal.
//
// Usage:
//
//	ts3cli [flags]
//
// Flags:
//
//	--addr        Server address host:port (default: 127.0.0.1:9987)
//	--nickname    Client nickname (default: ts3cli)
//	--identity    Path to an identity file; created if missing
//	--hashcash    Hash-cash level to mine for a freshly created identity (default: 8)
//	--version     Print version and exit
package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/imxeno/tsclientlib/client"
	"github.com/imxeno/tsclientlib/internal/crypto"
)

// Build-time version info, overridable with ldflags:
//
//	go build -ldflags "-X main.version=v0.2.0 -X main.commit=abc1234"
var (
	version = "v0.1.0-dev"
	commit  = "unknown"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

// run is the actual entry point, returning an exit code. Accepts CLI
// arguments (without the program name) so it can be tested in isolation.
func run(args []string) int {
	cfg, exit, code := parseFlags(args)
	if exit {
		return code
	}

	log.SetFlags(log.Ldate | log.Ltime | log.Lmicroseconds)
	log.Printf("ts3cli %s starting", version)
	log.Printf("  addr:     %s", cfg.Addr)
	log.Printf("  nickname: %s", cfg.Nickname)
	log.Printf("  identity: %s", cfg.IdentityPath)

	identity, err := loadOrCreateIdentity(cfg.IdentityPath, cfg.HashCashLevel)
	if err != nil {
		log.Printf("identity: %v", err)
		return 1
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	conn, err := client.Connect(ctx, cfg.Addr, identity, client.Options{
		Nickname:      cfg.Nickname,
		HashCashLevel: cfg.HashCashLevel,
	})
	if err != nil {
		log.Printf("connect: %v", err)
		return 1
	}
	log.Printf("connected, own client id %d", conn.Book().OwnClientID)

	go printEvents(conn)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go readCommands(ctx, conn)

	sig := <-sigCh
	log.Printf("received signal %v, disconnecting...", sig)

	if err := conn.Disconnect(context.Background()); err != nil {
		log.Printf("error during disconnect: %v", err)
		return 1
	}
	log.Println("disconnected")
	return 0
}

func printEvents(conn *client.Connection) {
	for ev := range conn.SubscribeEvents() {
		fmt.Printf("[event] %+v\n", ev)
	}
}

// readCommands reads `name key=value ...` lines from stdin and sends them
// as commands with no list arguments. It is a debugging aid, not a full
// grammar parser: operators who need list arguments should use the
// package directly.
func readCommands(ctx context.Context, conn *client.Connection) {
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		reply, err := conn.SendCommand(ctx, line, nil, nil)
		if err != nil {
			fmt.Printf("error: %v\n", err)
			continue
		}
		fmt.Printf("ok: %s\n", reply.Name)
	}
}

func loadOrCreateIdentity(path string, level uint8) (*client.Identity, error) {
	data, err := os.ReadFile(path)
	if err == nil {
		return client.ParseIdentity(string(data))
	}
	if !os.IsNotExist(err) {
		return nil, err
	}

	log.Printf("no identity at %s, generating a new one (level %d)...", path, level)
	key, err := crypto.GeneratePrivateKey()
	if err != nil {
		return nil, err
	}
	offset, err := crypto.FindHashCash(context.Background(), key.Public(), level)
	if err != nil {
		return nil, err
	}
	id := &client.Identity{Key: key, Offset: offset}
	if err := os.WriteFile(path, []byte(id.String()), 0o600); err != nil {
		return nil, err
	}
	return id, nil
}

type config struct {
	Addr          string
	Nickname      string
	IdentityPath  string
	HashCashLevel uint8
}

func defaultConfig() config {
	return config{
		Addr:          "127.0.0.1:9987",
		Nickname:      "ts3cli",
		IdentityPath:  "ts3cli.identity",
		HashCashLevel: 8,
	}
}

// parseFlags parses CLI arguments into a config. Returns the config,
// whether the caller should exit immediately, and the exit code.
func parseFlags(args []string) (config, bool, int) {
	cfg := defaultConfig()
	fs := newFlagSet(&cfg)

	showVersion := fs.Bool("version", false, "print version and exit")

	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return cfg, true, 2
	}

	if *showVersion {
		fmt.Printf("ts3cli %s (commit %s)\n", version, commit)
		return cfg, true, 0
	}

	return cfg, false, 0
}

// newFlagSet creates a flag.FlagSet that binds all CLI flags to the given
// config. The FlagSet uses ContinueOnError so callers control the error
// handling behavior.
func newFlagSet(cfg *config) *flagSet {
	fs := newCustomFlagSet("ts3cli")
	fs.StringVar(&cfg.Addr, "addr", cfg.Addr, "server address host:port")
	fs.StringVar(&cfg.Nickname, "nickname", cfg.Nickname, "client nickname")
	fs.StringVar(&cfg.IdentityPath, "identity", cfg.IdentityPath, "path to identity file")
	fs.Uint8Var(&cfg.HashCashLevel, "hashcash", cfg.HashCashLevel, "hash-cash level for a freshly generated identity")
	return fs
}
