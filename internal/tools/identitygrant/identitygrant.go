// Package identitygrant generates grant signing keys and mints identity
// grants for local use against a crowdfund server.
package identitygrant

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"flag"
	"fmt"
	"io"
	"time"

	"github.com/Yochiyuu/stellar-crowdFunding/internal/services/crowdfund/auth"
	"github.com/Yochiyuu/stellar-crowdFunding/internal/services/crowdfund/domain/identity"
)

const usage = "usage: identity-grant keygen | identity-grant mint -subject <identity>"

// Options carries the tool's dependencies.
type Options struct {
	Out io.Writer
	// Rand seeds key generation; nil uses crypto/rand.
	Rand io.Reader
	// Now is the mint clock; nil uses time.Now.
	Now func() time.Time
}

// Run executes the subcommand named by args[0].
func Run(args []string, opts Options) error {
	if opts.Out == nil {
		return errors.New("output is required")
	}
	if len(args) == 0 {
		return errors.New(usage)
	}
	switch args[0] {
	case "keygen":
		return keygen(opts)
	case "mint":
		return mint(args[1:], opts)
	default:
		return fmt.Errorf("unknown command %q; %s", args[0], usage)
	}
}

func keygen(opts Options) error {
	reader := opts.Rand
	if reader == nil {
		reader = rand.Reader
	}
	publicKey, privateKey, err := ed25519.GenerateKey(reader)
	if err != nil {
		return fmt.Errorf("generate grant key: %w", err)
	}
	if _, err := fmt.Fprintf(opts.Out, "export %s=%s\n", auth.EnvGrantPrivateKey, base64.RawStdEncoding.EncodeToString(privateKey)); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(opts.Out, "export %s=%s\n", auth.EnvGrantPublicKey, base64.RawStdEncoding.EncodeToString(publicKey)); err != nil {
		return err
	}
	return nil
}

func mint(args []string, opts Options) error {
	fs := flag.NewFlagSet("mint", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	subject := fs.String("subject", "", "identity the grant authenticates")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("parse mint flags: %w", err)
	}
	id, err := identity.Parse(*subject)
	if err != nil {
		return fmt.Errorf("-subject: %w", err)
	}
	cfg, err := auth.LoadSignerConfigFromEnv(opts.Now)
	if err != nil {
		return err
	}
	grant, err := auth.MintGrant(id, cfg)
	if err != nil {
		return fmt.Errorf("mint grant: %w", err)
	}
	_, err = fmt.Fprintln(opts.Out, grant)
	return err
}
