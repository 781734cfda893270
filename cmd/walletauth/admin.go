package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/layer-3/walletauth/core"
	"github.com/urfave/cli/v2"
)

var networkFlag = &cli.StringFlag{
	Name:  "network",
	Usage: "tron or ethereum",
	Value: string(core.NetworkTron),
}

var adminCmd = &cli.Command{
	Name:  "admin",
	Usage: "manage the administrator whitelist",
	Subcommands: []*cli.Command{
		{
			Name:      "add",
			Usage:     "whitelist a wallet as administrator",
			ArgsUsage: "<address>",
			Flags:     append([]cli.Flag{networkFlag, &cli.StringFlag{Name: "notes"}}, overrideFlags...),
			Action: func(cctx *cli.Context) error {
				if cctx.NArg() != 1 {
					return fmt.Errorf("expected one address, got %d arguments", cctx.NArg())
				}
				network, err := core.ParseNetwork(cctx.String("network"))
				if err != nil {
					return err
				}

				cfg, err := loadConfig(cctx)
				if err != nil {
					return err
				}
				n, err := newNode(cctx.Context, cfg)
				if err != nil {
					return err
				}
				defer n.Close()

				admin, err := n.service.AddAdminWallet(cctx.Context, cctx.Args().First(), network, cctx.String("notes"))
				if err != nil {
					return err
				}
				log.Infow("admin wallet added", "address", admin.Address, "network", admin.Network)
				return nil
			},
		},
		{
			Name:  "list",
			Usage: "list whitelisted wallets",
			Flags: overrideFlags,
			Action: func(cctx *cli.Context) error {
				cfg, err := loadConfig(cctx)
				if err != nil {
					return err
				}
				n, err := newNode(cctx.Context, cfg)
				if err != nil {
					return err
				}
				defer n.Close()

				admins, err := n.service.ListAdminWallets(cctx.Context)
				if err != nil {
					return err
				}

				w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
				fmt.Fprintln(w, "ADDRESS\tNETWORK\tACTIVE\tADDED\tNOTES")
				for _, a := range admins {
					fmt.Fprintf(w, "%s\t%s\t%t\t%s\t%s\n", a.Address, a.Network, a.IsActive, a.AddedAt.Format("2006-01-02"), a.Notes)
				}
				for _, a := range cfg.Auth.AdminWalletList() {
					fmt.Fprintf(w, "%s\t(config)\ttrue\t-\t\n", a)
				}
				return w.Flush()
			},
		},
	},
}
