package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/ezenkico/meet-commander/services/config"
	"github.com/ezenkico/meet-commander/services/docker"
	"github.com/ezenkico/meet-commander/services/filesystem"
	"github.com/ezenkico/meet-commander/services/orchestrator"
	"github.com/ezenkico/meet-commander/services/secret"
)

var (
	printSecrets    bool
	purgeOnExit     bool
	followLogs      bool
	pullConcurrency int
	stopTimeout     int
)

func init() {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start the stack and block until the XMPP service exits or a signal arrives",
		RunE:  runStack,
	}
	addRunFlags(cmd)
	rootCmd.AddCommand(cmd)
}

func addRunFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.BoolVar(&printSecrets, "print-secrets", false, "Log the generated secrets once the stack is up")
	f.BoolVar(&purgeOnExit, "purge-on-exit", false, "Empty the config root after teardown")
	f.BoolVar(&followLogs, "follow-logs", false, "Stream the XMPP container output to stdout/stderr")
	f.IntVar(&pullConcurrency, "pull-concurrency", 0, "Parallel image pulls (0 = all)")
	f.IntVar(&stopTimeout, "stop-timeout", 10, "Seconds to wait for a container to stop before it is killed")
}

func runStack(cmd *cobra.Command, _ []string) error {
	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	log, flush, lookup, err := setup()
	if err != nil {
		return err
	}
	defer flush()

	cfg, err := config.Resolve(lookup, secret.NewSecrets(nil))
	if err != nil {
		log.Error(err, "Invalid configuration")
		return err
	}

	run := uuid.New()
	platform, err := docker.NewDockerPlatform(cfg.NetworkName, run,
		docker.WithLogger(log.WithName("docker")),
		docker.WithStopTimeout(stopTimeout),
	)
	if err != nil {
		log.Error(err, "Cannot reach container host")
		return err
	}
	defer platform.Close()

	opts := orchestrator.Options{
		Config:          cfg,
		Runtime:         platform,
		Files:           filesystem.NewPreparer(cfg.ConfigRootDir, config.HostDirs()),
		Log:             log.WithValues("run", run.String()),
		PurgeOnExit:     purgeOnExit,
		PrintSecrets:    printSecrets,
		PullConcurrency: pullConcurrency,
	}
	if followLogs {
		opts.Stdout = os.Stdout
		opts.Stderr = os.Stderr
	}

	controller, err := orchestrator.New(opts)
	if err != nil {
		return err
	}
	return controller.Run(ctx)
}
