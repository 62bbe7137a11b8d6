// SAGE - Secure Agent Guarantee Engine
// Copyright (C) 2025 SAGE-X-project
//
// This file is part of SAGE.
//
// SAGE is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// SAGE is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with SAGE. If not, see <https://www.gnu.org/licenses/>.

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/bramblewire/securelink/audit"
	"github.com/bramblewire/securelink/config"
	"github.com/bramblewire/securelink/handshake"
	"github.com/bramblewire/securelink/health"
	"github.com/bramblewire/securelink/identity"
	"github.com/bramblewire/securelink/identity/keys"
	"github.com/bramblewire/securelink/internal/logger"
	"github.com/bramblewire/securelink/internal/metrics"
	"github.com/bramblewire/securelink/protocol"
	"github.com/bramblewire/securelink/record"
	"github.com/bramblewire/securelink/session"
	"github.com/bramblewire/securelink/transport"
	"github.com/bramblewire/securelink/transport/tcp"
)

var serveFlags struct {
	configDir     string
	listenAddr    string
	identityPath  string
	peerKeyPath   string
	peerKeyType   string
	auditDSN      string
	metricsAddr   string
	healthAddr    string
	idleTimeout   time.Duration
	handshakeTime time.Duration
	logLevel      string
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the responder daemon: accept connections, authenticate them, and serve sessions",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	f := serveCmd.Flags()
	f.StringVar(&serveFlags.configDir, "config-dir", "", "directory holding environment.yaml config files (flags override values loaded from here)")
	f.StringVar(&serveFlags.listenAddr, "listen", ":8443", "address to accept connections on")
	f.StringVar(&serveFlags.identityPath, "identity-key", "chand_identity.pem", "path to this daemon's long-term RSA private key (generated on first run if missing)")
	f.StringVar(&serveFlags.peerKeyPath, "peer-key", "", "path to the single pinned peer's public key PEM (required)")
	f.StringVar(&serveFlags.peerKeyType, "peer-key-type", "rsa-2048", "key type of --peer-key (rsa-2048, ed25519, secp256k1)")
	f.StringVar(&serveFlags.auditDSN, "audit-dsn", "", "Postgres DSN for the session audit trail (disabled if empty)")
	f.StringVar(&serveFlags.metricsAddr, "metrics-addr", "", "address to serve Prometheus metrics on (disabled if empty)")
	f.StringVar(&serveFlags.healthAddr, "health-addr", "", "address to serve /health, /health/live, /health/ready on (disabled if empty)")
	f.DurationVar(&serveFlags.idleTimeout, "idle-timeout", record.DefaultIdleTimeout, "idle read timeout for an established session")
	f.DurationVar(&serveFlags.handshakeTime, "handshake-timeout", handshake.DefaultTimeout, "deadline for completing the handshake")
	f.StringVar(&serveFlags.logLevel, "log-level", "info", "debug, info, warn, or error")
}

func parseLevel(s string) logger.Level {
	switch strings.ToLower(s) {
	case "debug":
		return logger.DebugLevel
	case "warn":
		return logger.WarnLevel
	case "error":
		return logger.ErrorLevel
	default:
		return logger.InfoLevel
	}
}

// applyServeConfig loads --config-dir (if set) and fills in any flag the
// caller did not pass explicitly on the command line, so a deployment can
// ship environment.yaml defaults and still override individual values with
// flags or SAGE_* / .env entries per config.Load's precedence.
func applyServeConfig(cmd *cobra.Command) error {
	if serveFlags.configDir == "" {
		return nil
	}
	cfg, err := config.Load(config.LoaderOptions{ConfigDir: serveFlags.configDir})
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	f := cmd.Flags()
	if !f.Changed("listen") && cfg.Transport != nil && cfg.Transport.ListenAddr != "" {
		serveFlags.listenAddr = cfg.Transport.ListenAddr
	}
	if !f.Changed("identity-key") && cfg.Identity != nil && cfg.Identity.KeyPath != "" {
		serveFlags.identityPath = cfg.Identity.KeyPath
	}
	if !f.Changed("peer-key-type") && cfg.Identity != nil && cfg.Identity.KeyType != "" {
		serveFlags.peerKeyType = cfg.Identity.KeyType
	}
	if !f.Changed("audit-dsn") && cfg.Audit != nil && cfg.Audit.Enabled {
		serveFlags.auditDSN = cfg.Audit.DSN
	}
	if !f.Changed("metrics-addr") && cfg.Metrics != nil && cfg.Metrics.Enabled {
		serveFlags.metricsAddr = fmt.Sprintf(":%d", cfg.Metrics.Port)
	}
	if !f.Changed("health-addr") && cfg.Health != nil && cfg.Health.Enabled {
		serveFlags.healthAddr = fmt.Sprintf(":%d", cfg.Health.Port)
	}
	if !f.Changed("handshake-timeout") && cfg.Handshake != nil && cfg.Handshake.Timeout > 0 {
		serveFlags.handshakeTime = cfg.Handshake.Timeout
	}
	if !f.Changed("idle-timeout") && cfg.Session != nil && cfg.Session.MaxIdleTime > 0 {
		serveFlags.idleTimeout = cfg.Session.MaxIdleTime
	}
	if !f.Changed("log-level") && cfg.Logging != nil && cfg.Logging.Level != "" {
		serveFlags.logLevel = cfg.Logging.Level
	}
	return nil
}

func runServe(cmd *cobra.Command, args []string) error {
	if err := applyServeConfig(cmd); err != nil {
		return err
	}
	if serveFlags.peerKeyPath == "" {
		return fmt.Errorf("--peer-key is required: this daemon pins exactly one expected initiator identity")
	}

	log := logger.NewLogger(os.Stdout, parseLevel(serveFlags.logLevel))

	local, err := keys.LoadOrGenerateRSAKeyPair(serveFlags.identityPath)
	if err != nil {
		return fmt.Errorf("load identity key: %w", err)
	}
	log.Info("identity key ready", logger.String("id", local.ID()), logger.String("path", serveFlags.identityPath))

	peerDER, err := keys.ReadPublicKeyPEM(serveFlags.peerKeyPath)
	if err != nil {
		return fmt.Errorf("load peer key: %w", err)
	}
	peer, err := keys.NewVerifier(identity.KeyType(serveFlags.peerKeyType), peerDER)
	if err != nil {
		return fmt.Errorf("build peer verifier: %w", err)
	}
	log.Info("peer identity pinned", logger.String("id", peer.ID()))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var store *audit.PostgresStore
	if serveFlags.auditDSN != "" {
		store, err = audit.NewPostgresStore(ctx, serveFlags.auditDSN)
		if err != nil {
			return fmt.Errorf("connect audit store: %w", err)
		}
		defer store.Close()
		if err := store.EnsureSchema(ctx); err != nil {
			return err
		}
		log.Info("audit logging enabled")
	}

	if serveFlags.metricsAddr != "" {
		go func() {
			if err := metrics.StartServerContext(ctx, serveFlags.metricsAddr); err != nil {
				log.Error("metrics server stopped", logger.Error(err))
			}
		}()
		log.Info("metrics server listening", logger.String("addr", serveFlags.metricsAddr))
	}

	registry := session.NewRegistry()
	ln, err := tcp.Listen(serveFlags.listenAddr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", serveFlags.listenAddr, err)
	}
	defer ln.Close()
	log.Info("listening", logger.String("addr", ln.Addr().String()))

	checker := health.NewHealthChecker(5 * time.Second)
	checker.SetLogger(log)
	checker.RegisterCheck("listener", health.ListenerHealthCheck(func(context.Context) error {
		if ln.Addr() == nil {
			return fmt.Errorf("listener not bound")
		}
		return nil
	}))
	if store != nil {
		checker.RegisterCheck("audit_db", health.DatabaseHealthCheck(store.Ping))
	}

	var healthSrv *health.Server
	if serveFlags.healthAddr != "" {
		port, err := healthPort(serveFlags.healthAddr)
		if err != nil {
			return err
		}
		healthSrv = health.NewServer(checker, log, port)
		if err := healthSrv.Start(); err != nil {
			return fmt.Errorf("start health server: %w", err)
		}
		defer func() {
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer shutdownCancel()
			_ = healthSrv.Stop(shutdownCtx)
		}()
		log.Info("health server listening", logger.String("addr", serveFlags.healthAddr))
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Info("shutting down")
		cancel()
		ln.Close()
	}()

	resolve := func(clientID uint32, sessionID [16]byte) (identity.KeyPair, error) {
		return peer, nil
	}

	for {
		conn, err := ln.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return nil
			default:
				log.Warn("accept failed", logger.Error(err))
				continue
			}
		}
		go serveConn(ctx, conn, registry, local, resolve, store, log)
	}
}

func healthPort(addr string) (int, error) {
	parts := strings.Split(addr, ":")
	last := parts[len(parts)-1]
	var port int
	if _, err := fmt.Sscanf(last, "%d", &port); err != nil {
		return 0, fmt.Errorf("parse health port from %q: %w", addr, err)
	}
	return port, nil
}

func serveConn(ctx context.Context, conn transport.Conn, registry *session.Registry, local identity.KeyPair, resolve handshake.ResolvePeer, store *audit.PostgresStore, log logger.Logger) {
	defer conn.Close()

	// connID correlates every log line for this TCP connection even before
	// a session-id exists (the handshake can still fail before one is
	// assigned), and again afterwards alongside the session-id.
	connID := uuid.NewString()
	log = log.WithFields(logger.String("conn_id", connID))

	start := time.Now()
	metrics.HandshakesStarted.WithLabelValues("responder").Inc()

	st, err := handshake.Accept(ctx, conn, registry, handshake.ResponderOptions{
		Local:   local,
		Resolve: resolve,
		Timeout: serveFlags.handshakeTime,
		Logger:  log,
	})
	metrics.HandshakeFlightLatency.WithLabelValues("finalize").Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.HandshakesFinished.WithLabelValues("failure").Inc()
		log.Warn("handshake failed", logger.Error(err))
		return
	}
	metrics.HandshakesFinished.WithLabelValues("success").Inc()
	metrics.SessionsAuthenticated.WithLabelValues("success").Inc()
	metrics.SessionsOpen.Inc()
	defer metrics.SessionsOpen.Dec()

	sessionID := st.SessionID()
	sessionIDHex := fmt.Sprintf("%x", sessionID[:])
	log.Info("session authenticated", logger.String("session_id", sessionIDHex))

	if store != nil {
		_ = store.Record(ctx, audit.Event{
			SessionID:  sessionIDHex,
			ClientID:   st.ClientID(),
			Kind:       audit.EventSessionAuthenticated,
			Role:       "responder",
			Epoch:      st.Epoch(),
			OccurredAt: time.Now(),
		})
	}

	recOpts := record.Options{IdleTimeout: serveFlags.idleTimeout, Logger: log}

	defer func() {
		st.Close()
		registry.Remove(sessionID)
		metrics.SessionsTerminated.Inc()
		if store != nil {
			_ = store.Record(context.Background(), audit.Event{
				SessionID:  sessionIDHex,
				ClientID:   st.ClientID(),
				Kind:       audit.EventSessionClosed,
				Role:       "responder",
				Epoch:      st.Epoch(),
				OccurredAt: time.Now(),
			})
		}
	}()

	for {
		plaintext, err := record.Recv(conn, st, recOpts)
		if err != nil {
			if perr, ok := err.(*protocol.Error); ok {
				if perr.Kind == protocol.KindReplay {
					metrics.ReplayRejections.Inc()
				}
				if perr.Kind == protocol.KindClosed {
					log.Info("session closed by peer", logger.String("session_id", sessionIDHex))
					return
				}
			}
			log.Warn("recv failed", logger.Error(err), logger.String("session_id", sessionIDHex))
			if store != nil {
				_ = store.Record(context.Background(), audit.Event{
					SessionID:  sessionIDHex,
					ClientID:   st.ClientID(),
					Kind:       audit.EventSessionFailed,
					Role:       "responder",
					Epoch:      st.Epoch(),
					Detail:     err.Error(),
					OccurredAt: time.Now(),
				})
			}
			return
		}

		metrics.RecordsProcessed.WithLabelValues("binary", "success").Inc()
		metrics.RecordSize.Observe(float64(len(plaintext)))

		if err := record.Send(conn, st, plaintext, recOpts); err != nil {
			log.Warn("send failed", logger.Error(err), logger.String("session_id", sessionIDHex))
			return
		}
	}
}
