package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"nftstaking/crypto"
)

func keygenCommand() *cobra.Command {
	var light bool
	cmd := &cobra.Command{
		Use:   "keygen",
		Short: "Generate a signing key and seal it into --keystore",
		RunE: func(cmd *cobra.Command, _ []string) error {
			path := strings.TrimSpace(globalFlags.keystore)
			if path == "" {
				return errors.New("--keystore is required")
			}
			pass, err := keySource().Get()
			if err != nil {
				return err
			}
			key, err := crypto.GeneratePrivateKey()
			if err != nil {
				return err
			}
			strength := crypto.ScryptStandard
			if light {
				strength = crypto.ScryptLight
			}
			if err := crypto.SaveToKeystore(path, key, pass, strength); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), key.PubKey().Address().String())
			return nil
		},
	}
	cmd.Flags().BoolVar(&light, "light", false, "use light scrypt parameters (devnets only)")
	return cmd
}

func addressCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "address",
		Short: "Print the account address of --keystore",
		RunE: func(cmd *cobra.Command, _ []string) error {
			key, err := loadKey()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), key.PubKey().Address().String())
			return nil
		},
	}
}

func loadKey() (*crypto.PrivateKey, error) {
	path := strings.TrimSpace(globalFlags.keystore)
	if path == "" {
		return nil, errors.New("--keystore is required")
	}
	pass, err := keySource().Get()
	if err != nil {
		return nil, err
	}
	key, err := crypto.LoadFromKeystore(path, pass)
	if err != nil {
		return nil, fmt.Errorf("unable to decrypt keystore %s: %w", path, err)
	}
	return key, nil
}

func parseAddress(value string, prefix crypto.AddressPrefix) ([20]byte, error) {
	decoded, err := crypto.DecodeAddress(strings.TrimSpace(value))
	if err != nil {
		return [20]byte{}, fmt.Errorf("invalid address %q: %w", value, err)
	}
	if decoded.Prefix() != prefix {
		return [20]byte{}, fmt.Errorf("address %q: expected %s prefix", value, prefix)
	}
	return decoded.Array(), nil
}
