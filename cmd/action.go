package cmd

import (
	"encoding/json"

	"github.com/MakeNowJust/heredoc"
	"github.com/spf13/cobra"
)

var actionCmd = &cobra.Command{
	Use:   "action",
	Short: "async action cmd group",
	Example: heredoc.Doc(`
		$margin action show --key {key}
		$margin action cancel --caller {requester} --key {key}
		$margin action unwind --caller {admin} --key {key}
	`),
}

var showActionCmd = &cobra.Command{
	Use:   "show",
	Short: "show an outstanding async action",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		e := provideEngine()
		defer e.db.Close()

		key, _ := cmd.Flags().GetString("key")
		action, err := e.actions.Find(ctx, key)
		if err != nil {
			cmd.PrintErrln("find action:", err)
			return
		}

		data, _ := json.MarshalIndent(action, "", "  ")
		cmd.Println(string(data))
	},
}

var cancelActionCmd = &cobra.Command{
	Use:   "cancel",
	Short: "cancel a pending action, requester only",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		e := provideEngine()
		defer e.db.Close()

		caller, _ := cmd.Flags().GetString("caller")
		key, _ := cmd.Flags().GetString("key")
		if err := e.freezable.Cancel(ctx, caller, key); err != nil {
			cmd.PrintErrln("cancel:", err)
		}
	},
}

var unwindActionCmd = &cobra.Command{
	Use:   "unwind",
	Short: "unwind a stuck action and unfreeze its account",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		e := provideEngine()
		defer e.db.Close()

		caller, _ := cmd.Flags().GetString("caller")
		key, _ := cmd.Flags().GetString("key")
		if err := e.freezable.Unwind(ctx, caller, key); err != nil {
			cmd.PrintErrln("unwind:", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(actionCmd)
	actionCmd.AddCommand(showActionCmd, cancelActionCmd, unwindActionCmd)

	actionCmd.PersistentFlags().String("key", "", "action key")
	actionCmd.PersistentFlags().String("caller", "", "caller id")
}
