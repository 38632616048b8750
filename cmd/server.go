package cmd

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"margin/handler"

	"github.com/drone/signal"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "run margin api server",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()

		e := provideEngine()
		defer e.db.Close()

		mux := handler.Server{
			Version:      rootCmd.Version,
			Ledger:       e.ledger,
			Markets:      e.markets,
			Expiries:     e.expiries,
			Actions:      e.actions,
			Transactions: e.transactions,
			Accounts:     e.accounts,
			Liquidation:  e.liquidation,
			Freezable:    e.freezable,
		}.Handler()

		port, _ := cmd.Flags().GetInt("port")
		addr := fmt.Sprintf(":%d", port)

		server := &http.Server{
			Addr:    addr,
			Handler: mux,
		}

		ctx, quit := context.WithCancel(ctx)
		done := make(chan struct{}, 1)
		signal.WithContextFunc(ctx, func() {
			quit()

			ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
			defer cancel()

			if err := server.Shutdown(ctx); err != nil {
				logrus.WithError(err).Error("graceful shutdown server failed")
			}

			close(done)
		})

		logrus.Infoln("serve at", addr)
		err := server.ListenAndServe()
		if err != http.ErrServerClosed {
			logrus.WithError(err).Fatal("server aborted")
		}

		<-done
	},
}

func init() {
	rootCmd.AddCommand(serverCmd)
	serverCmd.Flags().IntP("port", "p", 9000, "server port")
}
