package main

import (
	"context"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/allisson/msc/cmd/app/commands"
	"github.com/allisson/msc/internal/app"
	"github.com/allisson/msc/internal/config"
	envelopeService "github.com/allisson/msc/internal/envelope/service"
)

func getKeyCommands() []*cli.Command {
	return []*cli.Command{
		{
			Name:  "master-key-fingerprint",
			Usage: "Print the fingerprint of the master key derived from SERVER_SECRET and SERVER_SALT",
			Flags: []cli.Flag{formatFlag()},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				masterKey, err := container.MasterKey()
				if err != nil {
					return err
				}

				return commands.RunMasterKeyFingerprint(
					masterKey,
					container.Logger(),
					commands.DefaultIO().Writer,
					cmd.String("format"),
				)
			},
		},
		{
			Name:  "encrypt-server-secret",
			Usage: "Encrypt SERVER_SECRET with a KMS key",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     "kms-key-uri",
					Value:    "",
					Required: true,
					Usage:    "KMS key URI (e.g., base64key://, gcpkms://projects/.../cryptoKeys/...)",
				},
				&cli.StringFlag{
					Name:  "secret",
					Value: "",
					Usage: "Plain server secret (defaults to SERVER_SECRET)",
				},
				formatFlag(),
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				secret := cmd.String("secret")
				if secret == "" {
					secret = os.Getenv("SERVER_SECRET")
				}

				return commands.RunEncryptServerSecret(
					ctx,
					container.KMSService(),
					container.Logger(),
					commands.DefaultIO().Writer,
					cmd.String("kms-key-uri"),
					secret,
					cmd.String("format"),
				)
			},
		},
		{
			Name:  "hash-access-token",
			Usage: "Hash an access token for ACCESS_TOKEN_HASH (generates one when --token is omitted)",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:    "token",
					Aliases: []string{"t"},
					Value:   "",
					Usage:   "Access token to hash",
				},
				formatFlag(),
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				return commands.RunHashAccessToken(
					container.Logger(),
					commands.DefaultIO().Writer,
					cmd.String("token"),
					cmd.String("format"),
				)
			},
		},
		{
			Name:  "generate-keypair",
			Usage: "Generate an RSA key pair for a client",
			Flags: []cli.Flag{
				&cli.IntFlag{
					Name:    "bits",
					Aliases: []string{"b"},
					Value:   envelopeService.MinRSAKeyBits,
					Usage:   "RSA modulus size in bits",
				},
				&cli.StringFlag{
					Name:  "private-key",
					Value: "",
					Usage: "Path to write the private key (PKCS#8 PEM)",
				},
				&cli.StringFlag{
					Name:  "public-key",
					Value: "",
					Usage: "Path to write the public key (PKIX PEM)",
				},
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				return commands.RunGenerateKeyPair(
					container.Logger(),
					commands.DefaultIO().Writer,
					int(cmd.Int("bits")),
					cmd.String("private-key"),
					cmd.String("public-key"),
				)
			},
		},
		{
			Name:  "wrap-session-key",
			Usage: "Generate a session key and wrap it under a client public key",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     "public-key",
					Required: true,
					Usage:    "Path to the client public key (PEM or OpenSSH)",
				},
				formatFlag(),
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				return commands.RunWrapSessionKey(
					container.KeyExchange(),
					container.Logger(),
					commands.DefaultIO().Writer,
					cmd.String("public-key"),
					cmd.String("format"),
				)
			},
		},
		{
			Name:  "unwrap-session-key",
			Usage: "Recover a session key from a wrapped_key with the client private key",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     "private-key",
					Required: true,
					Usage:    "Path to the client private key (PEM)",
				},
				&cli.StringFlag{
					Name:     "wrapped-key",
					Aliases:  []string{"w"},
					Required: true,
					Usage:    "Base64 wrapped_key returned by POST /v1/sessions",
				},
				formatFlag(),
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				return commands.RunUnwrapSessionKey(
					container.KeyExchange(),
					container.Logger(),
					commands.DefaultIO().Writer,
					cmd.String("private-key"),
					cmd.String("wrapped-key"),
					cmd.String("format"),
				)
			},
		},
	}
}
