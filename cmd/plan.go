package cmd

import (
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/ezenkico/meet-commander/models"
	"github.com/ezenkico/meet-commander/services/config"
	"github.com/ezenkico/meet-commander/services/secret"
)

type plan struct {
	StackVersion  string               `yaml:"stack_version"`
	ConfigRootDir string               `yaml:"config_root_dir"`
	Network       string               `yaml:"network"`
	PullPolicy    models.PullPolicy    `yaml:"pull_policy"`
	PurgeConfig   bool                 `yaml:"purge_config"`
	Anchor        string               `yaml:"anchor"`
	Directories   []string             `yaml:"directories"`
	Services      []models.ServiceSpec `yaml:"services"`
}

func init() {
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Print the resolved services as YAML without touching the host",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, flush, lookup, err := setup()
			if err != nil {
				return err
			}
			defer flush()

			secrets := secret.NewSecrets(nil)
			cfg, err := config.Resolve(lookup, secrets)
			if err != nil {
				return err
			}
			ordered, err := cfg.Ordered()
			if err != nil {
				return err
			}

			out := plan{
				StackVersion:  cfg.StackVersion,
				ConfigRootDir: cfg.ConfigRootDir,
				Network:       cfg.NetworkName,
				PullPolicy:    cfg.PullPolicy,
				PurgeConfig:   cfg.PurgeConfig,
				Anchor:        cfg.Anchor,
				Directories:   config.HostDirs(),
			}
			for _, spec := range ordered {
				out.Services = append(out.Services, spec.Redacted(secrets))
			}

			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			if err := enc.Encode(out); err != nil {
				return err
			}
			return enc.Close()
		},
	}
	rootCmd.AddCommand(cmd)
}
