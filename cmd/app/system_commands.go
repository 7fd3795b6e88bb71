package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/allisson/msc/cmd/app/commands"
	"github.com/allisson/msc/internal/app"
	"github.com/allisson/msc/internal/config"
)

func getSystemCommands(version string) []*cli.Command {
	return []*cli.Command{
		{
			Name:  "server",
			Usage: "Start the HTTP server",
			Action: func(ctx context.Context, cmd *cli.Command) error {
				return commands.RunServer(ctx, version)
			},
		},
		{
			Name:  "migrate",
			Usage: "Run database migrations for REPLAY_STORE=database",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:  "dir",
					Value: "migrations",
					Usage: "Directory holding the postgresql and mysql migration sets",
				},
				&cli.BoolFlag{
					Name:  "down",
					Usage: "Roll back every applied migration",
				},
				formatFlag(),
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				return commands.RunMigrations(
					container.Logger(),
					commands.DefaultIO().Writer,
					commands.MigrationOptions{
						Driver:           cfg.DBDriver,
						ConnectionString: cfg.DBConnectionString,
						Dir:              cmd.String("dir"),
						Down:             cmd.Bool("down"),
						Format:           cmd.String("format"),
					},
				)
			},
		},
		{
			Name:  "purge-replay-nonces",
			Usage: "Delete remembered request ids whose replay window has passed",
			Flags: []cli.Flag{formatFlag()},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				replayUseCase, err := container.ReplayUseCase()
				if err != nil {
					return err
				}

				return commands.RunPurgeReplayNonces(
					ctx,
					replayUseCase,
					container.Logger(),
					commands.DefaultIO().Writer,
					cmd.String("format"),
				)
			},
		},
	}
}
