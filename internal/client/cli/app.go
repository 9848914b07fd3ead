// Package cli is the interactive client for the content vault: it uploads
// files, reconciles their outcome through the push callback and the pull
// query, and exposes the server's status endpoints as REPL commands.
package cli

import (
	"bufio"
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/vikinglab/contentvault/internal/client/api"
	"github.com/vikinglab/contentvault/internal/client/callback"
	"github.com/vikinglab/contentvault/internal/client/config"
	"github.com/vikinglab/contentvault/internal/client/reconcile"
	"github.com/vikinglab/contentvault/internal/logging"
)

type App struct {
	config     *config.Config
	api        *api.Client
	listener   *callback.Listener
	reconciler *reconcile.Reconciler
	userName   string
	reader     *bufio.Reader
}

func NewApp(c *config.Config) *App {

	// REPL output is the interface here; diagnostics stay out of the way
	logger := logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))

	apiClient := api.New(c.ServerEndpointAddr, c.QueryTimeout)
	listener := callback.NewListener(c.CallbackListenAddr, c.CallbackBaseURL, c.NotificationWaitTimeout, logger)
	reconciler := reconcile.New(apiClient, listener,
		c.NotificationWaitTimeout, c.NotificationPollInterval, c.QueryTimeout, logger)

	return &App{
		config:     c,
		api:        apiClient,
		listener:   listener,
		reconciler: reconciler,
		reader:     bufio.NewReader(os.Stdin),
	}
}

func (a *App) isLoggedIn() bool {
	return a.api.IsLoggedIn()
}

// Run starts the callback listener and hands control to the REPL. The
// listener dies with the REPL's context.
func (a *App) Run(ctx context.Context) {

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() {
		if err := a.listener.Run(ctx); err != nil {
			printlnFn("callback listener failed:", err.Error())
		}
	}()

	a.Root(ctx)
}
