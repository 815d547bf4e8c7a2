package commands

import (
	"fmt"

	"github.com/aussiebroadwan/ircbridge/pkg/deeplink"
	"github.com/spf13/cobra"
)

var deeplinkOpts struct {
	clientURL string
	params    deeplink.Params
}

var deeplinkCmd = &cobra.Command{
	Use:   "deeplink",
	Short: "Print a web client login URL",
	Long: `Build the auto-login URL the embedded web client reads on page load.

The URL contains the secret. Do not paste it anywhere that is logged.

Example:
  bridge deeplink --client-url https://chat.example.net/ --host irc.example.net \
    --user bob_7k2m9q --secret s3cret --channel general --channel random`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		link, err := deeplink.Build(deeplinkOpts.clientURL, deeplinkOpts.params)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), link)
		return err
	},
}

func init() {
	f := deeplinkCmd.Flags()
	p := &deeplinkOpts.params

	f.StringVar(&deeplinkOpts.clientURL, "client-url", "", "web client base URL")
	f.StringVar(&p.Connection.Host, "host", "", "IRC host")
	f.IntVar(&p.Connection.Port, "port", 6697, "IRC port")
	f.BoolVar(&p.Connection.TLS, "tls", true, "connect with TLS")
	f.BoolVar(&p.Connection.RejectUnauthorized, "reject-unauthorized", true, "reject invalid TLS certificates")
	f.StringVar(&p.Username, "user", "", "bouncer username")
	f.StringVar(&p.Secret, "secret", "", "bouncer secret or login ticket")
	f.StringVar(&p.Nick, "nick", "", "nick (defaults to the username)")
	f.StringVar(&p.RealName, "realname", "", "real name")
	f.StringArrayVar(&p.Channels, "channel", nil, "channel to join (repeatable)")

	_ = deeplinkCmd.MarkFlagRequired("client-url")
	_ = deeplinkCmd.MarkFlagRequired("user")
	_ = deeplinkCmd.MarkFlagRequired("secret")
}
