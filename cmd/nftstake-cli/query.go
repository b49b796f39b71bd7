package main

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	"github.com/spf13/cobra"
)

// getCommand builds a read-only subcommand fetching the path returned by
// path(args).
func getCommand(use, short string, nargs int, path func(args []string) string) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(nargs),
		RunE: func(cmd *cobra.Command, args []string) error {
			var out json.RawMessage
			if err := newClient().do(cmd.Context(), http.MethodGet, path(args), nil, &out); err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), out)
		},
	}
}

func escape(args []string) []string {
	out := make([]string, len(args))
	for i, a := range args {
		out[i] = url.PathEscape(strings.TrimSpace(a))
	}
	return out
}

func queryCommand() *cobra.Command {
	cmd := &cobra.Command{Use: "query", Short: "Read ledger state", Aliases: []string{"q"}}
	cmd.AddCommand(
		getCommand("configs", "List every pool", 0, func([]string) string { return "/v1/configs" }),
		getCommand("config <id>", "Show a pool", 1, func(a []string) string {
			return "/v1/configs/" + escape(a)[0]
		}),
		getCommand("positions <config>", "List the staked NFTs of a pool", 1, func(a []string) string {
			return "/v1/configs/" + escape(a)[0] + "/positions"
		}),
		getCommand("pending <config> <nft>", "Show the claimable reward of a position", 2, func(a []string) string {
			e := escape(a)
			return "/v1/configs/" + e[0] + "/positions/" + e[1] + "/pending"
		}),
		getCommand("audit <config>", "Show the reconfiguration history of a pool", 1, func(a []string) string {
			return "/v1/configs/" + escape(a)[0] + "/audit"
		}),
		getCommand("history <config>", "Show indexed events of a pool", 1, func(a []string) string {
			return "/v1/configs/" + escape(a)[0] + "/history"
		}),
		getCommand("balance <address> <asset>", "Show an account balance", 2, func(a []string) string {
			e := escape(a)
			return "/v1/accounts/" + e[0] + "/balances/" + e[1]
		}),
		getCommand("account <address>", "Show an account nonce", 1, func(a []string) string {
			return "/v1/accounts/" + escape(a)[0]
		}),
		getCommand("collection <id>", "Show a collection", 1, func(a []string) string {
			return "/v1/collections/" + escape(a)[0]
		}),
	)
	return cmd
}
