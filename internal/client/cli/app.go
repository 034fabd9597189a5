package cli

import (
	"bufio"
	"context"
	"io"
	"os"

	"github.com/dmitrijs2005/facelock/internal/client/client"
	"github.com/dmitrijs2005/facelock/internal/client/config"
)

// dialer opens a connection using the effective configuration.
type dialer func(cfg *config.Config) (client.Client, error)

func dialGRPC(cfg *config.Config) (client.Client, error) {
	return client.NewFaceLockClientService(cfg.ServerEndpointAddr, cfg.AccessToken, cfg.Locale)
}

type App struct {
	config     *config.Config
	dial       dialer
	client     client.Client
	reader     *bufio.Reader
	jsonOutput bool
}

func NewApp() *App {
	return &App{dial: dialGRPC, reader: bufio.NewReader(os.Stdin)}
}

// connect dials once per command run.
func (a *App) connect() (client.Client, error) {
	if a.client != nil {
		return a.client, nil
	}
	c, err := a.dial(a.config)
	if err != nil {
		return nil, err
	}
	a.client = c
	return c, nil
}

func (a *App) close() {
	if a.client != nil {
		_ = a.client.Close()
		a.client = nil
	}
}

// withTimeout bounds a unary call by the configured request timeout.
func (a *App) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if a.config.RequestTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, a.config.RequestTimeout)
}

// Run executes the command line in args and returns the process exit code.
func (a *App) Run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	root := a.NewRootCmd()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	defer a.close()
	if err := root.ExecuteContext(ctx); err != nil {
		root.PrintErrln("error:", err)
		return 1
	}
	return 0
}
