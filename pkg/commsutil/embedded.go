package commsutil

import (
	"fmt"
	"time"

	commsserver "github.com/nats-io/nats-server/v2/server"
)

const embeddedLogPrefix = "commsutil:embedded"

// StartEmbedded runs an in-process bus server and blocks until it accepts
// connections. Used when the backend should not depend on an external
// broker; connect to srv.ClientURL() afterwards.
func StartEmbedded(host string, port int) (*commsserver.Server, error) {
	opts := &commsserver.Options{
		Host:   host,
		Port:   port,
		NoLog:  true,
		NoSigs: true,
	}
	srv, err := commsserver.NewServer(opts)
	if err != nil {
		return nil, fmt.Errorf("%s - failed to create embedded server: %w", embeddedLogPrefix, err)
	}

	go srv.Start()
	if !srv.ReadyForConnections(10 * time.Second) {
		srv.Shutdown()
		return nil, fmt.Errorf("%s - embedded server did not become ready", embeddedLogPrefix)
	}
	return srv, nil
}
