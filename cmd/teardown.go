package cmd

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/ezenkico/meet-commander/services/config"
	"github.com/ezenkico/meet-commander/services/docker"
	"github.com/ezenkico/meet-commander/services/filesystem"
)

var (
	teardownPurge   bool
	teardownNetwork bool
)

func init() {
	cmd := &cobra.Command{
		Use:   "teardown",
		Short: "Remove every container of the stack, e.g. after a crashed run",
		RunE: func(cmd *cobra.Command, args []string) error {
			log, flush, lookup, err := setup()
			if err != nil {
				return err
			}
			defer flush()

			stack, _ := lookup(config.EnvNetworkName)
			if stack == "" {
				return fmt.Errorf("%s: %w", config.EnvNetworkName, config.ErrMissingVariable)
			}
			var root string
			if teardownPurge {
				if root, _ = lookup(config.EnvConfigRootDir); root == "" {
					return fmt.Errorf("%s: %w", config.EnvConfigRootDir, config.ErrMissingVariable)
				}
				if root, err = config.ExpandRoot(root); err != nil {
					return err
				}
			}

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			platform, err := docker.NewDockerPlatform(stack, uuid.Nil,
				docker.WithLogger(log.WithName("docker")),
				docker.WithStopTimeout(stopTimeout),
			)
			if err != nil {
				return err
			}
			defer platform.Close()

			removed, err := platform.TeardownStack(ctx)
			log.Info("Teardown finished", "stack", stack, "removed", removed)
			if err != nil {
				return err
			}
			if teardownNetwork {
				if err := platform.RemoveNetwork(ctx, stack); err != nil {
					return err
				}
			}
			if teardownPurge {
				if err := filesystem.NewPreparer(root, config.HostDirs()).Purge(); err != nil {
					return err
				}
				log.Info("Purged config root", "root", root)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&teardownPurge, "purge", false, "Also empty the config root")
	cmd.Flags().BoolVar(&teardownNetwork, "remove-network", false, "Also remove the bridge network")
	cmd.Flags().IntVar(&stopTimeout, "stop-timeout", 10, "Seconds to wait for a container to stop before it is killed")
	rootCmd.AddCommand(cmd)
}
