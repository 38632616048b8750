package cmd

import (
	"time"

	"margin/core"

	"github.com/MakeNowJust/heredoc"
	"github.com/spf13/cobra"
)

var expiryCmd = &cobra.Command{
	Use:   "expiry",
	Short: "borrow expiry cmd group",
	Example: heredoc.Doc(`
		$margin expiry set --owner {owner} --number 1 --market {market_id} --at 2026-12-31T00:00:00Z
		$margin expiry clear --owner {owner} --number 1 --market {market_id}
	`),
}

var setExpiryCmd = &cobra.Command{
	Use:   "set",
	Short: "tag the debt of an account in a market with an expiry",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		e := provideEngine()
		defer e.db.Close()

		account, marketID := expiryFlags(cmd)
		at, _ := cmd.Flags().GetString("at")
		expiresAt, err := time.Parse(time.RFC3339, at)
		if err != nil {
			cmd.PrintErrln("parse --at:", err)
			return
		}

		if err := e.position.SetExpiry(ctx, account, marketID, expiresAt); err != nil {
			cmd.PrintErrln("set expiry:", err)
		}
	},
}

var clearExpiryCmd = &cobra.Command{
	Use:   "clear",
	Short: "remove the expiry of a debt",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		e := provideEngine()
		defer e.db.Close()

		account, marketID := expiryFlags(cmd)
		if err := e.position.ClearExpiry(ctx, account, marketID); err != nil {
			cmd.PrintErrln("clear expiry:", err)
		}
	},
}

func expiryFlags(cmd *cobra.Command) (core.AccountID, uint64) {
	owner, _ := cmd.Flags().GetString("owner")
	number, _ := cmd.Flags().GetUint64("number")
	marketID, _ := cmd.Flags().GetUint64("market")
	return core.AccountID{Owner: owner, Number: number}, marketID
}

func init() {
	rootCmd.AddCommand(expiryCmd)
	expiryCmd.AddCommand(setExpiryCmd, clearExpiryCmd)

	expiryCmd.PersistentFlags().String("owner", "", "account owner")
	expiryCmd.PersistentFlags().Uint64("number", 0, "account number")
	expiryCmd.PersistentFlags().Uint64("market", 0, "debt market id")
	setExpiryCmd.Flags().String("at", "", "expiry, RFC3339")
}
