package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/realtyml/hpctl/pkg/logging"
	"github.com/realtyml/hpctl/pkg/serve"
)

const (
	serverShutdownWaitSeconds = 5
	serverTimeoutSeconds      = 300
	serverMaxHeaderBytes      = 20
	serverPortDefault         = 8080
)

var (
	portFlag = &cli.IntFlag{
		Name:     "port",
		Usage:    "Port on which the server will listen",
		Value:    serverPortDefault,
		Required: false,
	}

	serveModelsDirFlag = &cli.StringFlag{
		Name:  "models-dir",
		Usage: "Directory holding the trained model artifacts",
		Value: "models/trained",
	}

	serverCmd = &cli.Command{
		Name:    "server",
		Aliases: []string{"serve"},
		Usage:   "Start the prediction HTTP server",
		Action:  cmdStartServer,
		Flags: []cli.Flag{
			portFlag,
			serveModelsDirFlag,
			debugFlag,
		},
	}
)

func cmdStartServer(c *cli.Context) error {
	level := "info"
	if c.Bool(debugFlag.Name) {
		level = "debug"
	}
	logging.SetDefaultServerLogger(level)

	// no serving without a valid artifact: load failure ends the process
	engine, err := serve.NewEngine(c.String(serveModelsDirFlag.Name))
	if err != nil {
		return fmt.Errorf("loading model: %w", err)
	}

	address := fmt.Sprintf("0.0.0.0:%d", c.Int(portFlag.Name))
	s := &http.Server{
		Addr:           address,
		Handler:        serve.NewRouter(engine),
		ReadTimeout:    serverTimeoutSeconds * time.Second,
		WriteTimeout:   serverTimeoutSeconds * time.Second,
		MaxHeaderBytes: 1 << serverMaxHeaderBytes,
	}

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := s.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("error starting server", "error", err)
		}
	}()
	slog.Info("server started", "address", fmt.Sprintf("http://%s", address))

	<-done

	ctx, cancel := context.WithTimeout(context.Background(), serverShutdownWaitSeconds*time.Second)
	defer cancel()

	if err := s.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("error shutting down server", "error", err)
	}
	return nil
}
