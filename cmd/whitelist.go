package cmd

import (
	"encoding/json"
	"errors"

	"github.com/MakeNowJust/heredoc"
	"github.com/spf13/cobra"
)

var whitelistCmd = &cobra.Command{
	Use:     "whitelist",
	Aliases: []string{"wl"},
	Short:   "liquidator whitelist cmd group",
	Example: heredoc.Doc(`
		$margin whitelist show --market {market_id}
		$margin whitelist add --caller {admin} --market {market_id} --liquidator {owner}
		$margin whitelist remove --caller {admin} --market {market_id} --liquidator {owner}
		$margin whitelist unrestrict --caller {admin} --market {market_id}
	`),
}

var showWhitelistCmd = &cobra.Command{
	Use:   "show",
	Short: "show the liquidator policy of a market",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		e := provideEngine()
		defer e.db.Close()

		marketID, _ := cmd.Flags().GetUint64("market")
		policy, err := e.registry.Policy(ctx, marketID)
		if err != nil {
			cmd.PrintErrln("policy:", err)
			return
		}

		data, _ := json.MarshalIndent(policy, "", "  ")
		cmd.Println(string(data))
	},
}

var addWhitelistCmd = &cobra.Command{
	Use:     "add",
	Aliases: []string{"ad"},
	Short:   "add a liquidator to a market, restricting it",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		e := provideEngine()
		defer e.db.Close()

		caller, marketID, liquidator := whitelistFlags(cmd)
		if err := e.registry.AddLiquidator(ctx, caller, marketID, liquidator); err != nil {
			cmd.PrintErrln("add liquidator:", err)
		}
	},
}

var removeWhitelistCmd = &cobra.Command{
	Use:     "remove",
	Aliases: []string{"rm"},
	Short:   "remove a liquidator from a market",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		e := provideEngine()
		defer e.db.Close()

		caller, marketID, liquidator := whitelistFlags(cmd)
		if err := e.registry.RemoveLiquidator(ctx, caller, marketID, liquidator); err != nil {
			cmd.PrintErrln("remove liquidator:", err)
		}
	},
}

var unrestrictWhitelistCmd = &cobra.Command{
	Use:   "unrestrict",
	Short: "allow anyone to liquidate a market",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		e := provideEngine()
		defer e.db.Close()

		caller, marketID, _ := whitelistFlags(cmd)
		if err := e.registry.SetUnrestricted(ctx, caller, marketID); err != nil {
			cmd.PrintErrln("unrestrict:", err)
		}
	},
}

func whitelistFlags(cmd *cobra.Command) (caller string, marketID uint64, liquidator string) {
	caller, _ = cmd.Flags().GetString("caller")
	marketID, _ = cmd.Flags().GetUint64("market")
	liquidator, _ = cmd.Flags().GetString("liquidator")

	if marketID == 0 {
		panic(errors.New("no market specified"))
	}

	return
}

func init() {
	rootCmd.AddCommand(whitelistCmd)
	whitelistCmd.AddCommand(showWhitelistCmd, addWhitelistCmd, removeWhitelistCmd, unrestrictWhitelistCmd)

	whitelistCmd.PersistentFlags().Uint64("market", 0, "market id")
	whitelistCmd.PersistentFlags().String("caller", "", "admin id")
	whitelistCmd.PersistentFlags().String("liquidator", "", "liquidator owner")
}
