package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"nftstaking/cmd/internal/passphrase"
)

const (
	programName = "nftstake-cli"
	rpcURLEnv   = "NFTSTAKE_RPC_URL"
	rpcTokenEnv = "NFTSTAKE_RPC_TOKEN"
	passEnv     = "NFTSTAKE_PASS"
)

var globalFlags = struct {
	rpcURL   string
	token    string
	keystore string
}{}

func defaultRPCURL() string {
	if v := strings.TrimSpace(os.Getenv(rpcURLEnv)); v != "" {
		return v
	}
	return "http://localhost:8080"
}

func rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           programName,
		Short:         "Operate NFT staking pools over the ledger HTTP API",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&globalFlags.rpcURL, "rpc", defaultRPCURL(), "ledger API base URL")
	root.PersistentFlags().StringVar(&globalFlags.token, "token", os.Getenv(rpcTokenEnv), "bearer token for the API")
	root.PersistentFlags().StringVar(&globalFlags.keystore, "keystore", "", "path to the signing key file")

	root.AddCommand(keygenCommand())
	root.AddCommand(addressCommand())
	root.AddCommand(openCommand())
	root.AddCommand(positionCommand("lock", "Stake an NFT into a pool"))
	root.AddCommand(positionCommand("claim", "Claim the rewards of a staked NFT"))
	root.AddCommand(positionCommand("unlock", "Withdraw a staked NFT"))
	root.AddCommand(reconfigureCommand())
	root.AddCommand(closeCommand())
	root.AddCommand(queryCommand())
	return root
}

func newClient() *client {
	return newHTTPClient(globalFlags.rpcURL, globalFlags.token)
}

func keySource() *passphrase.Source {
	return passphrase.NewSource(passEnv, "Enter keystore passphrase: ")
}

func main() {
	if err := rootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
