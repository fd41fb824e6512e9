package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/Pat-Reen/FitnessChat/pkg/config"
	clog "github.com/Pat-Reen/FitnessChat/pkg/log"
	"github.com/Pat-Reen/FitnessChat/pkg/server"
	"github.com/Pat-Reen/FitnessChat/pkg/signal"
	"github.com/Pat-Reen/FitnessChat/pkg/store"
	"github.com/Pat-Reen/FitnessChat/pkg/style"
)

var (
	serveAddr string
	serveDB   string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the wizard as a JSON HTTP API",
	Long: `Serve the workout wizard over HTTP. Sessions are stored in SQLite so they
survive restarts.

Set server.api_key (or FITCHAT_SERVER_API_KEY) to require an X-API-Key
header on every /api/v1 request.

Examples:
  fitchat serve
  fitchat serve --addr 127.0.0.1:9000 --db /var/lib/fitchat/sessions.db`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (overrides server.addr)")
	serveCmd.Flags().StringVar(&serveDB, "db", "", "SQLite database path (overrides server.db)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	addr := cfg.Server.Addr
	if serveAddr != "" {
		addr = serveAddr
	}
	dbPath := cfg.Server.DB
	if serveDB != "" {
		dbPath = serveDB
	}

	m, client, err := loadMachine()
	if err != nil {
		return err
	}
	defer client.Close()

	st, err := store.Open(dbPath)
	if err != nil {
		return err
	}
	defer st.Close()

	// Request logs are the point of a server, so show them unless --quiet
	if !quiet && !verbose {
		clog.SetLevel(slog.LevelInfo)
	}
	log := clog.Logger()

	srv := &http.Server{
		Addr:              addr,
		Handler:           server.New(m, st, cfg.Server.APIKey, log),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, cancel := signal.WithInterrupt(cmd.Context())
	defer cancel()

	errc := make(chan error, 1)
	go func() {
		errc <- srv.ListenAndServe()
	}()
	fmt.Printf("%s Serving on %s %s\n", style.Check(), style.C(style.Cyan, addr), style.Dim("(Ctrl-C to stop)"))
	if cfg.Server.APIKey == "" {
		fmt.Printf("%s No API key set; the API is open to anyone who can reach it\n", style.Warn())
	}

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, done := context.WithTimeout(context.Background(), 10*time.Second)
	defer done()
	return srv.Shutdown(shutdownCtx)
}
