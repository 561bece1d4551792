package main

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/sage-x-project/sage-agentauth-go/pkg/claims"
	"github.com/sage-x-project/sage-agentauth-go/pkg/client"
	"github.com/sage-x-project/sage-agentauth-go/pkg/signer"
)

func newHashBodyCmd() *cobra.Command {
	var bf bodyFlags

	cmd := &cobra.Command{
		Use:   "hash-body",
		Short: "Print the body_hash of a request body",
		Long: `Print the lowercase hex SHA-256 that a token's body_hash claim carries.
Without --body or --body-file the body is absent and hashes as "{}".`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := bf.resolve(cmd)
			if err != nil {
				return err
			}
			h, err := signer.HashBody(body)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), h)
			return err
		},
	}
	bf.register(cmd)
	return cmd
}

func newSignRequestCmd(a *app) *cobra.Command {
	var (
		bf       bodyFlags
		scope    string
		method   string
		path     string
		lifetime time.Duration
	)

	cmd := &cobra.Command{
		Use:   "sign-request",
		Short: "Sign a per-request agent token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := a.signingKey()
			if err != nil {
				return err
			}
			agentID, err := a.agentID()
			if err != nil {
				return err
			}
			body, err := bf.resolve(cmd)
			if err != nil {
				return err
			}

			s := signer.NewDefaultAgentSigner(&signer.SignerOptions{RequestLifetime: lifetime})
			signed, err := s.SignAgentRequest(key, agentID, scope, method, path, body)
			if err != nil {
				return err
			}
			return printJSON(cmd, signed)
		},
	}

	bf.register(cmd)
	cmd.Flags().StringVar(&scope, "scope", "", "scope claimed for this request")
	cmd.Flags().StringVar(&method, "method", "GET", "HTTP method")
	cmd.Flags().StringVar(&path, "path", "", "request path, without query string")
	cmd.Flags().DurationVar(&lifetime, "lifetime", 0, "add iat/exp with this lifetime (0 omits them)")
	_ = cmd.MarkFlagRequired("scope")
	_ = cmd.MarkFlagRequired("path")
	return cmd
}

func newHandshakeCmd(a *app) *cobra.Command {
	var (
		scopes   []string
		ttl      int
		envelope bool
		url      string
	)

	cmd := &cobra.Command{
		Use:   "handshake",
		Short: "Build a handshake token, or perform a handshake with --url",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := a.signingKey()
			if err != nil {
				return err
			}
			agentID, err := a.agentID()
			if err != nil {
				return err
			}

			if url != "" {
				proposal, err := client.NewAgentClient(agentID, key, nil).
					Handshake(context.Background(), url, scopes, signer.WithSessionTTL(ttl))
				if err != nil {
					return err
				}
				return printJSON(cmd, proposal)
			}

			signed, err := signer.NewDefaultAgentSigner(nil).BuildHandshakeRequest(key, agentID, scopes, signer.WithSessionTTL(ttl))
			if err != nil {
				return err
			}
			if !envelope {
				return printJSON(cmd, signed)
			}
			return printJSON(cmd, claims.HandshakeEnvelope{
				AgentID:         agentID,
				HandshakeJWS:    signed.Token,
				RequestedScopes: scopes,
				Nonce:           signed.Nonce,
				Timestamp:       signed.Timestamp,
			})
		},
	}

	cmd.Flags().StringSliceVar(&scopes, "scopes", nil, "requested scopes, in order")
	cmd.Flags().IntVar(&ttl, "ttl", claims.DefaultSessionTTL, "requested session lifetime in seconds")
	cmd.Flags().BoolVar(&envelope, "envelope", false, "print the handshake endpoint request body")
	cmd.Flags().StringVar(&url, "url", "", "POST the handshake to this endpoint and print the session proposal")
	_ = cmd.MarkFlagRequired("scopes")
	return cmd
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
