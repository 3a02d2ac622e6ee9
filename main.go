package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/supabase/siws/cmd"
	"github.com/supabase/siws/internal/api"
	"github.com/supabase/siws/internal/observability"
)

func main() {
	execCtx, execCancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer execCancel()

	go func() {
		<-execCtx.Done()
		logrus.Info("received graceful shutdown signal")
	}()

	// command is expected to obey the cancellation signal on execCtx and
	// block while it is running
	if err := cmd.RootCommand().ExecuteContext(execCtx); err != nil {
		log.Fatal(err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), time.Minute)
	defer shutdownCancel()

	// wait for API servers and observability exporters to shut down
	api.WaitForCleanup(shutdownCtx)
	observability.WaitForCleanup(shutdownCtx)
}
