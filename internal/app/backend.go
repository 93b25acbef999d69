package app

import (
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/blackwell-systems/tagctl/internal/api"
	"github.com/blackwell-systems/tagctl/internal/dto"
	"github.com/blackwell-systems/tagctl/internal/gateway"
)

const healthWait = 2 * time.Second

// startBackend returns the proxy base URL every command talks to. With
// defaults.backend set it is the configured address; otherwise a
// loopback proxy is served from this process on an ephemeral port.
func startBackend() (string, func(), error) {
	if backend := cfg.Defaults.Backend; backend != "" {
		if err := waitHealthy(backend); err != nil {
			return "", nil, fmt.Errorf("backend %s not reachable: %w", backend, err)
		}
		return backend, func() {}, nil
	}

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return "", nil, fmt.Errorf("starting loopback proxy: %w", err)
	}

	// The loopback proxy logs nowhere: its request log would land in
	// the middle of the TUI.
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	srv := &http.Server{Handler: api.New(api.Options{
		Base:     cfg.Jellyfin.Base,
		APIKey:   cfg.Jellyfin.APIKey,
		WriteNFO: cfg.Defaults.WriteNFO,
	}, logger)}
	go func() { _ = srv.Serve(ln) }()

	base := "http://" + ln.Addr().String()
	if err := waitHealthy(base); err != nil {
		_ = srv.Close()
		return "", nil, fmt.Errorf("loopback proxy did not come up: %w", err)
	}
	return base, func() { _ = srv.Close() }, nil
}

// waitHealthy polls the proxy health endpoint until it answers or the
// wait runs out.
func waitHealthy(base string) error {
	probe := gateway.New(base, dto.Auth{})
	deadline := time.Now().Add(healthWait)
	for {
		err := probe.Health()
		if err == nil {
			return nil
		}
		if time.Now().After(deadline) {
			return err
		}
		time.Sleep(20 * time.Millisecond)
	}
}
