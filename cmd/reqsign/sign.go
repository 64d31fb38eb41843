package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"slices"
	"strings"

	"github.com/spf13/cobra"
	"github.com/vitalvas/reqauth/authscheme"
)

type signOptions struct {
	profile  string
	method   string
	url      string
	headers  []string
	data     string
	dataFile string
	output   string
}

func newSignCmd(root *rootOptions) *cobra.Command {
	opts := &signOptions{}

	cmd := &cobra.Command{
		Use:   "sign",
		Short: "Print the credentials that authenticate a request",
		Long:  `Applies the scheme of a profile to the described request and prints the headers and query parameters to attach.`,
		Example: `  reqsign sign --profile github --url https://api.github.com/user
  reqsign sign --profile s3 --method PUT --url https://bucket.s3.amazonaws.com/key --data-file ./obj`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSign(cmd, root, opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&opts.profile, "profile", "p", "", "profile name")
	flags.StringVarP(&opts.method, "method", "X", http.MethodGet, "HTTP method")
	flags.StringVar(&opts.url, "url", "", "absolute request URL")
	flags.StringArrayVarP(&opts.headers, "header", "H", nil, `request header as "Name: value" (repeatable)`)
	flags.StringVarP(&opts.data, "data", "d", "", "request body")
	flags.StringVar(&opts.dataFile, "data-file", "", "read request body from file")
	flags.StringVarP(&opts.output, "output", "o", "text", "output format: text or json")

	cmd.MarkFlagRequired("profile")
	cmd.MarkFlagRequired("url")
	cmd.MarkFlagsMutuallyExclusive("data", "data-file")

	return cmd
}

func runSign(cmd *cobra.Command, root *rootOptions, opts *signOptions) error {
	header, err := parseHeaders(opts.headers)
	if err != nil {
		return err
	}

	body := []byte(opts.data)
	if opts.dataFile != "" {
		if body, err = os.ReadFile(opts.dataFile); err != nil {
			return fmt.Errorf("read body: %w", err)
		}
	}

	s, err := root.scheme(cmd.Context(), opts.profile)
	if err != nil {
		return err
	}

	res, err := authscheme.Apply(s, authscheme.Request{
		Method: strings.ToUpper(opts.method),
		URL:    opts.url,
		Header: header,
		Body:   body,
	})
	if err != nil {
		return err
	}

	return printResult(cmd.OutOrStdout(), opts, res)
}

func parseHeaders(raw []string) (http.Header, error) {
	header := make(http.Header, len(raw))

	for _, h := range raw {
		name, value, ok := strings.Cut(h, ":")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid header %q, want \"Name: value\"", h)
		}

		header.Add(name, strings.TrimSpace(value))
	}

	return header, nil
}

func printResult(w io.Writer, opts *signOptions, res authscheme.Result) error {
	switch opts.output {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")

		return enc.Encode(struct {
			Header http.Header `json:"headers"`
			Query  url.Values  `json:"query,omitempty"`
		}{res.Header, res.Query})

	case "text":
		names := make([]string, 0, len(res.Header))
		for name := range res.Header {
			names = append(names, name)
		}

		slices.Sort(names)

		for _, name := range names {
			for _, v := range res.Header[name] {
				fmt.Fprintf(w, "%s: %s\n", name, v)
			}
		}

		if len(res.Query) > 0 {
			u, err := url.Parse(opts.url)
			if err != nil {
				return err
			}

			u.RawQuery = res.MergeQuery(u.RawQuery)
			fmt.Fprintf(w, "URL: %s\n", u)
		}

		return nil

	default:
		return fmt.Errorf("unknown output format %q", opts.output)
	}
}
