// File: cmd/config.go
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/xkilldash9x/intake-cli/internal/config"
)

const secretMask = "********"

// configDump is the printed form of the configuration. Secret fields never
// marshal; their presence is reported under secrets instead.
type configDump struct {
	config.Config `yaml:",inline"`
	Secrets       map[string]string `yaml:"secrets"`
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Prints the effective configuration as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := getConfigFromContext(cmd.Context())
			if err != nil {
				return err
			}
			out, err := renderConfig(cfg)
			if err != nil {
				return err
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), out)
			return err
		},
	}
}

func renderConfig(cfg *config.Config) (string, error) {
	dump := configDump{
		Config: *cfg,
		Secrets: map[string]string{
			"mail.password":      mask(cfg.Mail.Password),
			"archive.access_key": mask(cfg.Archive.AccessKey),
			"archive.secret_key": mask(cfg.Archive.SecretKey),
		},
	}
	b, err := yaml.Marshal(dump)
	if err != nil {
		return "", fmt.Errorf("failed to render configuration: %w", err)
	}
	return string(b), nil
}

func mask(s string) string {
	if s == "" {
		return "(unset)"
	}
	return secretMask
}
