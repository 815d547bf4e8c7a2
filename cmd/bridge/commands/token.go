package commands

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/aussiebroadwan/ircbridge/pkg/jwtx"
	"github.com/spf13/cobra"
)

var tokenOpts struct {
	secret   string
	subject  string
	username string
	name     string
	scopes   []string
	issuer   string
	audience []string
	ttl      time.Duration
}

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Mint an HS256 caller token for local testing",
	Long: `Sign a caller token with the shared secret so the provisioning API can
be exercised without the owning application. Only useful when the service
verifies with UPSTREAM_HMAC_SECRET.

Example:
  UPSTREAM_HMAC_SECRET=dev bridge token --sub u1 --name Bob --scope irc:provision`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		secret := tokenOpts.secret
		if secret == "" {
			secret = os.Getenv("UPSTREAM_HMAC_SECRET")
		}
		if secret == "" {
			return errors.New("--secret or UPSTREAM_HMAC_SECRET is required")
		}

		signer, err := jwtx.NewHMACSigner([]byte(secret))
		if err != nil {
			return err
		}

		tok, err := signer.Sign(jwtx.NewClaims(
			tokenOpts.subject,
			tokenOpts.username,
			tokenOpts.name,
			tokenOpts.scopes,
			tokenOpts.ttl,
			tokenOpts.issuer,
			tokenOpts.audience,
			time.Now(),
		))
		if err != nil {
			return fmt.Errorf("sign token: %w", err)
		}

		_, err = fmt.Fprintln(cmd.OutOrStdout(), tok)
		return err
	},
}

func init() {
	f := tokenCmd.Flags()
	f.StringVar(&tokenOpts.secret, "secret", "", "HS256 secret (default $UPSTREAM_HMAC_SECRET)")
	f.StringVar(&tokenOpts.subject, "sub", "", "stable user id")
	f.StringVar(&tokenOpts.username, "username", "", "username claim")
	f.StringVar(&tokenOpts.name, "name", "", "preferred_name claim")
	f.StringSliceVar(&tokenOpts.scopes, "scope", nil, "granted scope (repeatable)")
	f.StringVar(&tokenOpts.issuer, "issuer", os.Getenv("UPSTREAM_ISSUER"), "iss claim")
	f.StringSliceVar(&tokenOpts.audience, "audience", nil, "aud claim (repeatable)")
	f.DurationVar(&tokenOpts.ttl, "ttl", time.Hour, "token lifetime")

	_ = tokenCmd.MarkFlagRequired("sub")
}
