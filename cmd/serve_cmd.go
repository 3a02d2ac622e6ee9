package cmd

import (
	"context"
	"net"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/supabase/siws/internal/api"
	"github.com/supabase/siws/internal/observability"
	"github.com/supabase/siws/internal/utilities"
)

var serveCmd = cobra.Command{
	Use:  "serve",
	Long: "Start API server",
	Run: func(cmd *cobra.Command, args []string) {
		serve(cmd.Context())
	},
}

func serve(ctx context.Context) {
	config := loadGlobalConfig()

	if err := observability.ConfigureTracing(ctx, &config.Tracing); err != nil {
		logrus.WithError(err).Error("unable to configure tracing")
	}

	if err := observability.ConfigureMetrics(ctx, &config.Metrics); err != nil {
		logrus.WithError(err).Error("unable to configure metrics")
	}

	if err := utilities.InitVersionMetrics(ctx); err != nil {
		logrus.WithError(err).Warn("unable to record version metrics")
	}

	a := api.NewAPIWithVersion(config, utilities.Version)

	addr := net.JoinHostPort(config.API.Host, config.API.Port)
	logrus.WithField("domain", config.SIWS.Domain).Info("serving Sign-In with Solana verification")

	a.ListenAndServe(ctx, addr)
}
