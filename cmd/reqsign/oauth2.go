package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/vitalvas/reqauth/authscheme"
	"github.com/vitalvas/reqauth/oauth2flow"
)

var errNotOAuth2 = errors.New("profile is not an oauth2 profile")

func newOAuth2Cmd(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "oauth2",
		Short: "Run OAuth 2.0 grants",
		Long:  `Commands that obtain OAuth 2.0 tokens using the client configuration of an oauth2 profile.`,
	}

	cmd.AddCommand(
		newOAuth2AuthorizeCmd(root),
		newOAuth2ExchangeCmd(root),
		newOAuth2ClientCredentialsCmd(root),
		newOAuth2RefreshCmd(root),
	)

	return cmd
}

func newOAuth2AuthorizeCmd(root *rootOptions) *cobra.Command {
	var profile, stateFile string

	cmd := &cobra.Command{
		Use:   "authorize",
		Short: "Print the authorization URL and save the flow state",
		Long: `Starts an authorization-code flow. The URL to open is printed and the
flow state (state token and PKCE verifier) is written to --state-file for
the matching "oauth2 exchange" call.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			m, err := root.manager(cmd.Context(), profile)
			if err != nil {
				return err
			}

			authURL, flow, err := m.AuthorizationURL()
			if err != nil {
				return err
			}

			data, err := json.MarshalIndent(flow, "", "  ")
			if err != nil {
				return err
			}

			if err := os.WriteFile(stateFile, data, 0o600); err != nil {
				return fmt.Errorf("write state file: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), authURL)

			return nil
		},
	}

	cmd.Flags().StringVarP(&profile, "profile", "p", "", "oauth2 profile name")
	cmd.Flags().StringVar(&stateFile, "state-file", "", "file to write the flow state to")
	cmd.MarkFlagRequired("profile")
	cmd.MarkFlagRequired("state-file")

	return cmd
}

func newOAuth2ExchangeCmd(root *rootOptions) *cobra.Command {
	var profile, stateFile, callback string

	cmd := &cobra.Command{
		Use:   "exchange",
		Short: "Exchange the code from a redirect callback for a token",
		Long: `Completes an authorization-code flow started with "oauth2 authorize".
The state file is removed afterwards whatever the outcome; a flow state is
valid for one exchange only.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			m, err := root.manager(cmd.Context(), profile)
			if err != nil {
				return err
			}

			flow, err := readFlowState(stateFile)
			if err != nil {
				return err
			}

			defer func() {
				if err := os.Remove(stateFile); err != nil {
					root.log.WithError(err).Warn("failed to remove state file")
				}
			}()

			code, state, err := oauth2flow.ParseCallback(callback)
			if err != nil {
				return err
			}

			token, err := m.Exchange(cmd.Context(), flow, code, state)
			if err != nil {
				return err
			}

			return printToken(cmd.OutOrStdout(), token)
		},
	}

	cmd.Flags().StringVarP(&profile, "profile", "p", "", "oauth2 profile name")
	cmd.Flags().StringVar(&stateFile, "state-file", "", "flow state written by oauth2 authorize")
	cmd.Flags().StringVar(&callback, "callback", "", "redirect URL the provider sent the browser to")
	cmd.MarkFlagRequired("profile")
	cmd.MarkFlagRequired("state-file")
	cmd.MarkFlagRequired("callback")

	return cmd
}

func newOAuth2ClientCredentialsCmd(root *rootOptions) *cobra.Command {
	var profile string

	cmd := &cobra.Command{
		Use:   "client-credentials",
		Short: "Request a token with the client-credentials grant",
		RunE: func(cmd *cobra.Command, _ []string) error {
			m, err := root.manager(cmd.Context(), profile)
			if err != nil {
				return err
			}

			token, err := m.ClientCredentials(cmd.Context())
			if err != nil {
				return err
			}

			return printToken(cmd.OutOrStdout(), token)
		},
	}

	cmd.Flags().StringVarP(&profile, "profile", "p", "", "oauth2 profile name")
	cmd.MarkFlagRequired("profile")

	return cmd
}

func newOAuth2RefreshCmd(root *rootOptions) *cobra.Command {
	var profile, refreshToken string

	cmd := &cobra.Command{
		Use:   "refresh",
		Short: "Exchange a refresh token for a new access token",
		RunE: func(cmd *cobra.Command, _ []string) error {
			m, p, err := root.oauth2Profile(cmd.Context(), profile)
			if err != nil {
				return err
			}

			if refreshToken == "" {
				refreshToken = p.Token.RefreshToken
			}

			token, err := m.Refresh(cmd.Context(), refreshToken)
			if err != nil {
				return err
			}

			return printToken(cmd.OutOrStdout(), token)
		},
	}

	cmd.Flags().StringVarP(&profile, "profile", "p", "", "oauth2 profile name")
	cmd.Flags().StringVar(&refreshToken, "refresh-token", "", "refresh token (defaults to the profile refresh_token)")
	cmd.MarkFlagRequired("profile")

	return cmd
}

// manager builds a flow manager from an oauth2 profile.
func (o *rootOptions) manager(ctx context.Context, name string) (*oauth2flow.Manager, error) {
	m, _, err := o.oauth2Profile(ctx, name)
	return m, err
}

func (o *rootOptions) oauth2Profile(ctx context.Context, name string) (*oauth2flow.Manager, authscheme.OAuth2, error) {
	s, err := o.scheme(ctx, name)
	if err != nil {
		return nil, authscheme.OAuth2{}, err
	}

	p, ok := s.(authscheme.OAuth2)
	if !ok {
		return nil, authscheme.OAuth2{}, fmt.Errorf("%w: %q is %s", errNotOAuth2, name, s.Kind())
	}

	return oauth2flow.New(p.Config, oauth2flow.WithLogger(o.log)), p, nil
}

func readFlowState(path string) (oauth2flow.FlowState, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return oauth2flow.FlowState{}, fmt.Errorf("read state file: %w", err)
	}

	var flow oauth2flow.FlowState
	if err := json.Unmarshal(data, &flow); err != nil {
		return oauth2flow.FlowState{}, fmt.Errorf("decode state file: %w", err)
	}

	return flow, nil
}

func printToken(w io.Writer, token oauth2flow.Token) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	return enc.Encode(token)
}
