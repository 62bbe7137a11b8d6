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
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bramblewire/securelink/identity/keys"
)

var keygenFlags struct {
	identityPath string
	publicOut    string
}

var keygenCmd = &cobra.Command{
	Use:   "keygen",
	Short: "Generate (or load) this daemon's long-term identity and export its public key",
	Long: `keygen loads the identity key at --identity-key, generating one if it
does not yet exist, and writes its public key to --public-out so it can be
handed to a peer for pinning via --peer-key.`,
	RunE: runKeygen,
}

func init() {
	rootCmd.AddCommand(keygenCmd)

	f := keygenCmd.Flags()
	f.StringVar(&keygenFlags.identityPath, "identity-key", "chand_identity.pem", "path to this daemon's long-term RSA private key")
	f.StringVar(&keygenFlags.publicOut, "public-out", "chand_identity.pub.pem", "where to write the exported public key")
}

func runKeygen(cmd *cobra.Command, args []string) error {
	kp, err := keys.LoadOrGenerateRSAKeyPair(keygenFlags.identityPath)
	if err != nil {
		return fmt.Errorf("load identity key: %w", err)
	}
	if err := keys.WritePublicKeyPEM(keygenFlags.publicOut, kp.PublicKeyBytes()); err != nil {
		return err
	}
	fmt.Printf("identity %s ready; public key written to %s\n", kp.ID(), keygenFlags.publicOut)
	return nil
}
