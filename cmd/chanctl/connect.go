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
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/bramblewire/securelink/config"
	"github.com/bramblewire/securelink/handshake"
	"github.com/bramblewire/securelink/identity"
	"github.com/bramblewire/securelink/identity/keys"
	"github.com/bramblewire/securelink/internal/logger"
	"github.com/bramblewire/securelink/record"
	"github.com/bramblewire/securelink/transport/tcp"
)

func parseLevel(s string) logger.Level {
	switch strings.ToLower(s) {
	case "debug":
		return logger.DebugLevel
	case "info":
		return logger.InfoLevel
	case "error":
		return logger.ErrorLevel
	default:
		return logger.WarnLevel
	}
}

var connectFlags struct {
	configDir     string
	identityPath  string
	peerKeyPath   string
	peerKeyType   string
	dialTimeout   time.Duration
	handshakeTime time.Duration
	idleTimeout   time.Duration
	logLevel      string
}

var connectCmd = &cobra.Command{
	Use:   "connect [addr]",
	Short: "Open a session to a chand listener and relay stdin lines as records",
	Args:  cobra.ExactArgs(1),
	RunE:  runConnect,
}

func init() {
	rootCmd.AddCommand(connectCmd)

	f := connectCmd.Flags()
	f.StringVar(&connectFlags.configDir, "config-dir", "", "directory holding environment.yaml config files (flags override values loaded from here)")
	f.StringVar(&connectFlags.identityPath, "identity-key", "chanctl_identity.pem", "path to this client's long-term RSA private key (generated on first run if missing)")
	f.StringVar(&connectFlags.peerKeyPath, "peer-key", "", "path to the responder's public key PEM (required)")
	f.StringVar(&connectFlags.peerKeyType, "peer-key-type", "rsa-2048", "key type of --peer-key (rsa-2048, ed25519, secp256k1)")
	f.DurationVar(&connectFlags.dialTimeout, "dial-timeout", 10*time.Second, "TCP dial timeout")
	f.DurationVar(&connectFlags.handshakeTime, "handshake-timeout", handshake.DefaultTimeout, "deadline for completing the handshake")
	f.DurationVar(&connectFlags.idleTimeout, "idle-timeout", record.DefaultIdleTimeout, "idle read timeout while waiting for a reply")
	f.StringVar(&connectFlags.logLevel, "log-level", "warn", "debug, info, warn, or error")
}

// applyConnectConfig loads --config-dir (if set) and fills in any flag the
// caller did not pass explicitly, mirroring applyServeConfig's precedence.
func applyConnectConfig(cmd *cobra.Command) error {
	if connectFlags.configDir == "" {
		return nil
	}
	cfg, err := config.Load(config.LoaderOptions{ConfigDir: connectFlags.configDir})
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	f := cmd.Flags()
	if !f.Changed("identity-key") && cfg.Identity != nil && cfg.Identity.KeyPath != "" {
		connectFlags.identityPath = cfg.Identity.KeyPath
	}
	if !f.Changed("peer-key-type") && cfg.Identity != nil && cfg.Identity.KeyType != "" {
		connectFlags.peerKeyType = cfg.Identity.KeyType
	}
	if !f.Changed("dial-timeout") && cfg.Transport != nil && cfg.Transport.DialTimeout > 0 {
		connectFlags.dialTimeout = cfg.Transport.DialTimeout
	}
	if !f.Changed("handshake-timeout") && cfg.Handshake != nil && cfg.Handshake.Timeout > 0 {
		connectFlags.handshakeTime = cfg.Handshake.Timeout
	}
	if !f.Changed("idle-timeout") && cfg.Session != nil && cfg.Session.MaxIdleTime > 0 {
		connectFlags.idleTimeout = cfg.Session.MaxIdleTime
	}
	if !f.Changed("log-level") && cfg.Logging != nil && cfg.Logging.Level != "" {
		connectFlags.logLevel = cfg.Logging.Level
	}
	return nil
}

func runConnect(cmd *cobra.Command, args []string) error {
	if err := applyConnectConfig(cmd); err != nil {
		return err
	}
	if connectFlags.peerKeyPath == "" {
		return fmt.Errorf("--peer-key is required: the initiator must know the responder's identity in advance")
	}
	addr := args[0]

	log := logger.NewLogger(os.Stderr, parseLevel(connectFlags.logLevel))

	local, err := keys.LoadOrGenerateRSAKeyPair(connectFlags.identityPath)
	if err != nil {
		return fmt.Errorf("load identity key: %w", err)
	}

	peerDER, err := keys.ReadPublicKeyPEM(connectFlags.peerKeyPath)
	if err != nil {
		return fmt.Errorf("load peer key: %w", err)
	}
	peer, err := keys.NewVerifier(identity.KeyType(connectFlags.peerKeyType), peerDER)
	if err != nil {
		return fmt.Errorf("build peer verifier: %w", err)
	}

	conn, err := tcp.Dial(addr, connectFlags.dialTimeout)
	if err != nil {
		return fmt.Errorf("dial %s: %w", addr, err)
	}
	defer conn.Close()

	ctx := context.Background()
	st, err := handshake.Open(ctx, conn, handshake.InitiatorOptions{
		Local:   local,
		Peer:    peer,
		Timeout: connectFlags.handshakeTime,
		Logger:  log,
	})
	if err != nil {
		return fmt.Errorf("handshake: %w", err)
	}
	fmt.Fprintf(os.Stderr, "session established, epoch %d\n", st.Epoch())

	recOpts := record.Options{IdleTimeout: connectFlags.idleTimeout, Logger: log}

	fmt.Fprintln(os.Stderr, "Interactive mode - type 'quit' to exit, 'rotate' to rotate keys")
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Fprint(os.Stderr, "> ")
		if !scanner.Scan() {
			break
		}
		input := scanner.Text()

		switch {
		case input == "quit" || input == "exit":
			return record.Close(conn, st)
		case input == "rotate":
			if err := record.Rotate(conn, st, recOpts); err != nil {
				fmt.Fprintf(os.Stderr, "key rotation failed: %v\n", err)
				continue
			}
			fmt.Fprintf(os.Stderr, "key rotation successful, epoch now %d\n", st.Epoch())
		case strings.TrimSpace(input) != "":
			if err := record.Send(conn, st, []byte(input), recOpts); err != nil {
				return fmt.Errorf("send: %w", err)
			}
			reply, err := record.Recv(conn, st, recOpts)
			if err != nil {
				return fmt.Errorf("recv: %w", err)
			}
			fmt.Println(string(reply))
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read stdin: %w", err)
	}
	return record.Close(conn, st)
}
