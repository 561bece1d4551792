package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/sage-x-project/sage-agentauth-go/internal/config"
	"github.com/sage-x-project/sage-agentauth-go/internal/logger"
	"github.com/sage-x-project/sage-agentauth-go/pkg/bodyhash"
	"github.com/sage-x-project/sage-agentauth-go/pkg/keys"
)

// app is shared by all subcommands; cfg is filled in PersistentPreRunE
type app struct {
	configFile string
	cfg        *config.Config
}

// NewRootCmd builds the agentauth command tree
func NewRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "agentauth",
		Short: "Sign and verify agent request tokens",
		Long: `agentauth builds the EdDSA tokens an agent attaches to requests
("Authorization: Agent <token>") and to session handshakes, and verifies them.

Examples:
  agentauth hash-body --body '{"a":1}'
  agentauth sign-request --key agent.pem --agent-id agent-123 \
      --scope orders:write --method POST --path /v1/orders --body-file order.json
  agentauth handshake --scopes orders:read,orders:write --ttl 600
  agentauth verify --public-key agent.pub.pem --token <token> --method POST --path /v1/orders
`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(cmd)
		},
	}

	root.PersistentFlags().StringVar(&a.configFile, "config", "", "config file (default: ./agentauth.yaml if present)")
	root.PersistentFlags().String("log-level", "", "log level (debug, info, warn, error)")
	root.PersistentFlags().String("agent-id", "", "agent id put in tokens (env AGENTAUTH_AGENT_ID)")
	root.PersistentFlags().String("key", "", "Ed25519 private key file, PEM or JWK (env AGENTAUTH_AGENT_KEY_FILE)")

	root.AddCommand(
		newHashBodyCmd(),
		newSignRequestCmd(a),
		newHandshakeCmd(a),
		newVerifyCmd(a),
		newVersionCmd(),
	)
	return root
}

// init loads configuration, with flags taking precedence, and sets up logging
func (a *app) init(cmd *cobra.Command) error {
	loader := config.NewConfigLoader(a.configFile, config.DefaultEnvPrefix)

	v := loader.Viper()
	for key, flag := range map[string]string{
		"log.level":      "log-level",
		"agent.id":       "agent-id",
		"agent.key_file": "key",
	} {
		if f := cmd.Flags().Lookup(flag); f != nil && f.Changed {
			if err := v.BindPFlag(key, f); err != nil {
				return fmt.Errorf("failed to bind flag %s: %w", flag, err)
			}
		}
	}

	cfg, err := loader.Load()
	if err != nil {
		return err
	}
	if _, err := logger.InitLogger(&cfg.Log); err != nil {
		return fmt.Errorf("failed to init logger: %w", err)
	}

	a.cfg = cfg
	return nil
}

// signingKey loads the configured private key
func (a *app) signingKey() (keys.SigningKey, error) {
	if a.cfg.Agent.KeyFile == "" {
		return nil, fmt.Errorf("no signing key: set --key or agent.key_file")
	}
	return keys.LoadFile(a.cfg.Agent.KeyFile)
}

// agentID returns the configured agent id
func (a *app) agentID() (string, error) {
	if a.cfg.Agent.ID == "" {
		return "", fmt.Errorf("no agent id: set --agent-id or agent.id")
	}
	return a.cfg.Agent.ID, nil
}

// bodyFlags are shared by commands that take a request body
type bodyFlags struct {
	body     string
	bodyFile string
	asJSON   bool
}

func (f *bodyFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.body, "body", "", "request body text")
	cmd.Flags().StringVar(&f.bodyFile, "body-file", "", `read the body from a file ("-" for stdin)`)
	cmd.Flags().BoolVar(&f.asJSON, "json", false, "parse the body as JSON and hash its canonical form")
	cmd.MarkFlagsMutuallyExclusive("body", "body-file")
}

// resolve returns the body; no body flag means an absent body
func (f *bodyFlags) resolve(cmd *cobra.Command) (bodyhash.Body, error) {
	var text string
	switch {
	case cmd.Flags().Changed("body"):
		text = f.body
	case cmd.Flags().Changed("body-file"):
		data, err := readInput(cmd, f.bodyFile)
		if err != nil {
			return bodyhash.Absent(), err
		}
		text = string(data)
	default:
		return bodyhash.Absent(), nil
	}

	if !f.asJSON {
		return bodyhash.Text(text), nil
	}
	return bodyhash.ParseJSON([]byte(text))
}

// readInput reads a file, or stdin for "-"
func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	return os.ReadFile(path)
}
