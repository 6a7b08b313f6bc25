package main

import (
	"net/url"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/cityequip/cityequip/internal/config"
)

const redacted = "****"

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration as YAML",
	Long:  "Prints configuration after merging defaults, config.yaml, dotenv files and environment. Secrets are masked.",
	RunE: func(cmd *cobra.Command, args []string) error {
		enc := yaml.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent(2)
		if err := enc.Encode(masked(*cfg)); err != nil {
			return eris.Wrap(err, "encode config")
		}
		return enc.Close()
	},
}

// masked returns a copy of c with credentials hidden.
func masked(c config.Config) config.Config {
	if c.Store.Driver != "sqlite" {
		c.Store.DatabaseURL = maskDSN(c.Store.DatabaseURL)
	}
	if len(c.Server.APIKeys) > 0 {
		keys := make([]string, len(c.Server.APIKeys))
		for i := range keys {
			keys[i] = redacted
		}
		c.Server.APIKeys = keys
	}
	c.Source.URL = maskDSN(c.Source.URL)
	return c
}

// maskDSN hides the password of URL-style connection strings. Anything
// else that is not empty is masked entirely.
func maskDSN(dsn string) string {
	if dsn == "" {
		return ""
	}
	u, err := url.Parse(dsn)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return redacted
	}
	if _, ok := u.User.Password(); !ok {
		return u.String()
	}
	// url.UserPassword would percent-encode the mask, so splice it in.
	u.User = url.User(u.User.Username())
	s := u.String()
	prefix := u.Scheme + "://" + u.User.String()
	return prefix + ":" + redacted + s[len(prefix):]
}

func init() {
	rootCmd.AddCommand(configCmd)
}
