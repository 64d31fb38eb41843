package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/vitalvas/reqauth/authscheme"
)

type rootOptions struct {
	profilesPath string
	envFiles     []string
	verbose      bool
	logJSON      bool

	log *logrus.Logger
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{log: logrus.New()}

	cmd := &cobra.Command{
		Use:           "reqsign",
		Short:         "Sign HTTP requests and obtain OAuth 2.0 tokens",
		Long:          `Computes Basic, Bearer, API key, Digest, OAuth 1.0a, AWS SigV4 and OAuth 2.0 credentials for HTTP requests from named profiles.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return opts.setup(cmd)
		},
	}

	cmd.SetVersionTemplate("reqsign version {{.Version}}\n")

	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.profilesPath, "profiles", authscheme.DefaultProfilesFile, "profiles file")
	flags.StringArrayVar(&opts.envFiles, "env-file", nil, "dotenv file to load before reading profiles (default .env when present)")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "enable debug logging")
	flags.BoolVar(&opts.logJSON, "log-json", false, "log in JSON format")

	cmd.AddCommand(
		newSignCmd(opts),
		newDigestChallengeCmd(opts),
		newOAuth2Cmd(opts),
	)

	return cmd
}

func (o *rootOptions) setup(cmd *cobra.Command) error {
	o.log.SetOutput(cmd.ErrOrStderr())

	if o.logJSON {
		o.log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		o.log.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	}

	o.log.SetLevel(logrus.InfoLevel)
	if o.verbose {
		o.log.SetLevel(logrus.DebugLevel)
	}

	if len(o.envFiles) > 0 {
		if err := godotenv.Load(o.envFiles...); err != nil {
			return fmt.Errorf("load env files: %w", err)
		}

		o.log.WithField("files", o.envFiles).Debug("loaded env files")

		return nil
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}

	return nil
}

// scheme resolves the named profile, filling AWS credentials from the
// default chain when the profile has no static keys.
func (o *rootOptions) scheme(ctx context.Context, name string) (authscheme.Scheme, error) {
	profiles, err := authscheme.LoadProfiles(o.profilesPath)
	if err != nil {
		return nil, err
	}

	s, err := profiles.Scheme(name)
	if err != nil {
		return nil, err
	}

	o.log.WithFields(logrus.Fields{
		"profile": name,
		"scheme":  s.Kind(),
	}).Debug("resolved profile")

	return authscheme.Resolve(ctx, s)
}
