// Package natsbus runs the embedded NATS server carrying agent
// heartbeats and orchestration events, and the client wrapper the rest
// of the daemon talks through.
package natsbus

import (
	"fmt"
	"net"
	"os"
	"time"

	natsserver "github.com/nats-io/nats-server/v2/server"
	"github.com/quantumnex/nexord/internal/config"
)

type Bus struct {
	server *natsserver.Server
}

// New starts the embedded server. Durable state lives in SQLite, so
// JetStream is only enabled when a data dir is configured; heartbeats
// and events are fire-and-forget either way.
func New(cfg config.NATSConfig) (*Bus, error) {
	opts := &natsserver.Options{
		ServerName: "nexord",
		Port:       cfg.Port,
		NoLog:      true,
		NoSigs:     true,
	}
	if cfg.DataDir != "" {
		if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
			return nil, fmt.Errorf("create nats data dir: %w", err)
		}
		opts.JetStream = true
		opts.StoreDir = cfg.DataDir
	}

	ns, err := natsserver.NewServer(opts)
	if err != nil {
		return nil, fmt.Errorf("create nats server: %w", err)
	}

	go ns.Start()

	if !ns.ReadyForConnections(5 * time.Second) {
		return nil, fmt.Errorf("nats server not ready")
	}

	return &Bus{server: ns}, nil
}

func (b *Bus) ClientURL() string {
	return b.server.ClientURL()
}

// Port reports the actually bound port, which differs from the
// configured one when it was 0.
func (b *Bus) Port() int {
	if addr, ok := b.server.Addr().(*net.TCPAddr); ok {
		return addr.Port
	}
	return 0
}

func (b *Bus) Close() {
	b.server.Shutdown()
	b.server.WaitForShutdown()
}
