package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"market-insights/backend-go/internal/handlers"
)

func newFetchCmd() *cobra.Command {
	var compact bool
	cmd := &cobra.Command{
		Use:       "fetch <endpoint>",
		Short:     "Run one cache-aside fetch and print the payload",
		Args:      cobra.ExactArgs(1),
		ValidArgs: handlers.Endpoints,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validEndpoint(args[0]); err != nil {
				return err
			}
			a, err := buildApp()
			if err != nil {
				return err
			}
			defer a.close()

			ctx, cancel := context.WithTimeout(cmd.Context(), a.cfg.OriginTimeout)
			defer cancel()
			res, err := a.fetcher.Fetch(ctx, args[0])
			if err != nil {
				return err
			}
			out := res.Body
			if !compact {
				var buf bytes.Buffer
				if err := json.Indent(&buf, res.Body, "", "  "); err == nil {
					out = buf.Bytes()
				}
			}
			source := "origin"
			if res.Cached {
				source = "cache"
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "source: %s\n", source)
			fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return nil
		},
	}
	cmd.Flags().BoolVar(&compact, "compact", false, "print the payload without indentation")
	return cmd
}

func validEndpoint(name string) error {
	for _, e := range handlers.Endpoints {
		if e == name {
			return nil
		}
	}
	return fmt.Errorf("unknown endpoint %q (want one of %s)", name, strings.Join(handlers.Endpoints, ", "))
}
