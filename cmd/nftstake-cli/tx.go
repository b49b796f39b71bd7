package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/spf13/cobra"

	"nftstaking/crypto"
	"nftstaking/native/nftstaking"
	"nftstaking/rpc"
)

var positionOps = map[string]string{
	"lock":   rpc.OpLock,
	"claim":  rpc.OpClaim,
	"unlock": rpc.OpUnlock,
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func configPath(config [20]byte) string {
	return "/v1/configs/" + crypto.FromArray(crypto.AccountPrefix, config).String()
}

func openPool(ctx context.Context, c *client, key *crypto.PrivateKey, params nftstaking.OpenParams) (*rpc.ConfigView, error) {
	signed, err := c.sign(ctx, key, rpc.OpOpen, rpc.OpenFields(params))
	if err != nil {
		return nil, err
	}
	req := rpc.OpenRequest{
		Signed:                signed,
		Collection:            crypto.FromArray(crypto.AssetPrefix, params.Collection).String(),
		RewardAsset:           params.RewardAsset,
		RatePerSecond:         params.RatePerSecond,
		HorizonStart:          params.HorizonStart,
		HorizonEnd:            params.HorizonEnd,
		MinimumEligiblePeriod: params.MinimumEligiblePeriod,
		MaxCapacity:           params.MaxCapacity,
	}
	var out rpc.ConfigView
	if err := c.do(ctx, http.MethodPost, "/v1/configs", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// positionAction signs and submits lock, claim or unlock, decoding the
// answer into out.
func positionAction(ctx context.Context, c *client, key *crypto.PrivateKey, action string, config, nft [20]byte, out interface{}) error {
	op, ok := positionOps[action]
	if !ok {
		return fmt.Errorf("unknown position action %q", action)
	}
	signed, err := c.sign(ctx, key, op, rpc.PositionFields(config, nft))
	if err != nil {
		return err
	}
	req := rpc.PositionRequest{Signed: signed, NFT: crypto.FromArray(crypto.AssetPrefix, nft).String()}
	return c.do(ctx, http.MethodPost, configPath(config)+"/"+action, req, out)
}

func reconfigurePool(ctx context.Context, c *client, key *crypto.PrivateKey, config [20]byte, params nftstaking.ReconfigureParams) (*rpc.ReconfigureView, error) {
	signed, err := c.sign(ctx, key, rpc.OpReconfigure, rpc.ReconfigureFields(config, params))
	if err != nil {
		return nil, err
	}
	req := rpc.ReconfigureRequest{Signed: signed, RatePerSecond: params.RatePerSecond, HorizonEnd: params.HorizonEnd}
	var out rpc.ReconfigureView
	if err := c.do(ctx, http.MethodPost, configPath(config)+"/reconfigure", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func closePool(ctx context.Context, c *client, key *crypto.PrivateKey, config [20]byte) (*rpc.CloseView, error) {
	signed, err := c.sign(ctx, key, rpc.OpClose, rpc.CloseFields(config))
	if err != nil {
		return nil, err
	}
	var out rpc.CloseView
	if err := c.do(ctx, http.MethodPost, configPath(config)+"/close", rpc.CloseRequest{Signed: signed}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func openCommand() *cobra.Command {
	var (
		collection string
		params     nftstaking.OpenParams
	)
	cmd := &cobra.Command{
		Use:   "open",
		Short: "Open and fund a staking pool for a collection",
		RunE: func(cmd *cobra.Command, _ []string) error {
			id, err := parseAddress(collection, crypto.AssetPrefix)
			if err != nil {
				return err
			}
			params.Collection = id
			key, err := loadKey()
			if err != nil {
				return err
			}
			cfg, err := openPool(cmd.Context(), newClient(), key, params)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), cfg)
		},
	}
	f := cmd.Flags()
	f.StringVar(&collection, "collection", "", "collection id (nft1...)")
	f.StringVar(&params.RewardAsset, "asset", "", "reward asset symbol")
	f.Uint64Var(&params.RatePerSecond, "rate", 0, "reward per NFT per second, in whole units")
	f.Int64Var(&params.HorizonStart, "start", 0, "horizon start, unix seconds")
	f.Int64Var(&params.HorizonEnd, "end", 0, "horizon end, unix seconds")
	f.Int64Var(&params.MinimumEligiblePeriod, "min-period", 0, "seconds an NFT must stay locked before rewards are paid")
	f.Uint64Var(&params.MaxCapacity, "capacity", 0, "maximum number of staked NFTs")
	_ = cmd.MarkFlagRequired("collection")
	_ = cmd.MarkFlagRequired("asset")
	return cmd
}

func positionCommand(action, short string) *cobra.Command {
	var config, nft string
	cmd := &cobra.Command{
		Use:   action,
		Short: short,
		RunE: func(cmd *cobra.Command, _ []string) error {
			configID, err := parseAddress(config, crypto.AccountPrefix)
			if err != nil {
				return err
			}
			nftID, err := parseAddress(nft, crypto.AssetPrefix)
			if err != nil {
				return err
			}
			key, err := loadKey()
			if err != nil {
				return err
			}
			var out json.RawMessage
			if err := positionAction(cmd.Context(), newClient(), key, action, configID, nftID, &out); err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), out)
		},
	}
	cmd.Flags().StringVar(&config, "config", "", "pool id (stk1...)")
	cmd.Flags().StringVar(&nft, "nft", "", "NFT id (nft1...)")
	_ = cmd.MarkFlagRequired("config")
	_ = cmd.MarkFlagRequired("nft")
	return cmd
}

func reconfigureCommand() *cobra.Command {
	var (
		config string
		rate   uint64
		end    int64
	)
	cmd := &cobra.Command{
		Use:   "reconfigure",
		Short: "Change the reward rate or extend the horizon of a pool",
		RunE: func(cmd *cobra.Command, _ []string) error {
			configID, err := parseAddress(config, crypto.AccountPrefix)
			if err != nil {
				return err
			}
			var params nftstaking.ReconfigureParams
			if cmd.Flags().Changed("rate") {
				params.RatePerSecond = &rate
			}
			if cmd.Flags().Changed("end") {
				params.HorizonEnd = &end
			}
			if params.RatePerSecond == nil && params.HorizonEnd == nil {
				return fmt.Errorf("nothing to change; pass --rate and/or --end")
			}
			key, err := loadKey()
			if err != nil {
				return err
			}
			out, err := reconfigurePool(cmd.Context(), newClient(), key, configID, params)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), out)
		},
	}
	cmd.Flags().StringVar(&config, "config", "", "pool id (stk1...)")
	cmd.Flags().Uint64Var(&rate, "rate", 0, "new reward rate")
	cmd.Flags().Int64Var(&end, "end", 0, "new horizon end, unix seconds")
	_ = cmd.MarkFlagRequired("config")
	return cmd
}

func closeCommand() *cobra.Command {
	var config string
	cmd := &cobra.Command{
		Use:   "close",
		Short: "Close a pool and refund the unobligated rewards",
		RunE: func(cmd *cobra.Command, _ []string) error {
			configID, err := parseAddress(config, crypto.AccountPrefix)
			if err != nil {
				return err
			}
			key, err := loadKey()
			if err != nil {
				return err
			}
			out, err := closePool(cmd.Context(), newClient(), key, configID)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), out)
		},
	}
	cmd.Flags().StringVar(&config, "config", "", "pool id (stk1...)")
	_ = cmd.MarkFlagRequired("config")
	return cmd
}
