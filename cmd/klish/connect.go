package main

import (
	"fmt"
	"net"
	"os"

	"klish/internal/kconfig"
	"klish/internal/ktp/client"
)

// connect dials klishd's socket and performs the auth handshake
// (spec.md §4.H "Environment: the USER env var supplies the default
// peer username when the socket peer lookup fails" — the client always
// sends USER since it has no other identity to offer).
func connect() (*client.Client, func(), error) {
	cfg, err := kconfig.LoadClientConfig(flagConfig)
	if err != nil {
		return nil, nil, err
	}
	if flagSocket != "" {
		cfg.Socket = flagSocket
	}

	conn, err := net.Dial("unix", cfg.Socket)
	if err != nil {
		return nil, nil, fmt.Errorf("klish: connect %s: %w", cfg.Socket, err)
	}

	c := client.New(conn)
	if err := c.Auth(os.Getenv("USER"), ""); err != nil {
		conn.Close()
		return nil, nil, fmt.Errorf("klish: auth: %w", err)
	}

	return c, func() { conn.Close() }, nil
}
