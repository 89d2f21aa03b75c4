package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/viper"
	"github.com/tyemirov/claimrelay/clients/cli/internal/command"
	cliConfig "github.com/tyemirov/claimrelay/clients/cli/internal/config"
	"github.com/tyemirov/claimrelay/pkg/client"
	"github.com/tyemirov/claimrelay/pkg/logging"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := command.NewRootCommand(command.Dependencies{
		Viper: viper.New(),
		NewSubmitter: func(cfg cliConfig.Config) (command.Submitter, error) {
			settings, err := client.NewSettings(cfg.ServerURL, cfg.Timeout())
			if err != nil {
				return nil, err
			}
			logger := logging.NewLoggerWithWriter(cfg.LogLevel, os.Stderr)
			return client.NewSubmissionClient(settings, logger), nil
		},
		Output: os.Stdout,
	})
	root.SetOut(os.Stdout)
	root.SetErr(os.Stderr)

	if execErr := root.ExecuteContext(ctx); execErr != nil {
		fmt.Fprintln(os.Stderr, execErr)
		stop()
		os.Exit(1)
	}
}
