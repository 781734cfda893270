package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/layer-3/walletauth/client"
	"github.com/layer-3/walletauth/core"
	"github.com/layer-3/walletauth/signer"
	"github.com/urfave/cli/v2"
)

var keygenCmd = &cli.Command{
	Name:  "keygen",
	Usage: "generate a wallet key pair for testing",
	Flags: []cli.Flag{networkFlag},
	Action: func(cctx *cli.Context) error {
		network, err := core.ParseNetwork(cctx.String("network"))
		if err != nil {
			return err
		}
		key, err := crypto.GenerateKey()
		if err != nil {
			return err
		}

		s := signer.NewKeySigner(key, network)
		address, err := s.Address()
		if err != nil {
			return err
		}
		return printJSON(map[string]string{
			"network":     string(network),
			"address":     address,
			"private_key": s.Key(),
		})
	},
}

var signCmd = &cli.Command{
	Name:  "sign",
	Usage: "log in to a running server with a local wallet key",
	Flags: []cli.Flag{
		networkFlag,
		&cli.StringFlag{Name: "server", Value: "http://localhost:8080", EnvVars: []string{"WALLETAUTH_SERVER"}},
		&cli.StringFlag{Name: "key", Usage: "hex private key of the wallet", Required: true, EnvVars: []string{"WALLETAUTH_WALLET_KEY"}},
		&cli.StringFlag{Name: "link-key", Usage: "hex private key of a wallet to link and verify after login"},
		&cli.StringFlag{Name: "link-network", Value: string(core.NetworkEthereum)},
	},
	Action: func(cctx *cli.Context) error {
		ctx := cctx.Context
		network, err := core.ParseNetwork(cctx.String("network"))
		if err != nil {
			return err
		}
		wallet, err := signer.ParseKeySigner(cctx.String("key"), network)
		if err != nil {
			return err
		}

		c := client.New(cctx.String("server"), client.NewSessionHolder(), client.DefaultOptions())
		session, err := c.Login(ctx, wallet, network)
		if err != nil {
			return fmt.Errorf("login failed: %w", err)
		}

		if cctx.IsSet("link-key") {
			linkNetwork, err := core.ParseNetwork(cctx.String("link-network"))
			if err != nil {
				return err
			}
			linked, err := signer.ParseKeySigner(cctx.String("link-key"), linkNetwork)
			if err != nil {
				return err
			}
			address, err := linked.Address()
			if err != nil {
				return err
			}

			w, err := c.ConnectWallet(ctx, address, linkNetwork)
			if err != nil {
				return fmt.Errorf("connect failed: %w", err)
			}
			if err := c.VerifyWallet(ctx, w.ID, linked); err != nil {
				return fmt.Errorf("verification failed: %w", err)
			}
			log.Infow("wallet linked", "address", address, "wallet", w.ID)
		}

		return printJSON(session)
	},
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
