package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/dmitrijs2005/authgate/internal/client/client"
	"github.com/dmitrijs2005/authgate/internal/client/config"
	"github.com/dmitrijs2005/authgate/internal/client/services"
)

type App struct {
	config      *config.Config
	authService services.AuthService
	userService services.UserService
	reader      *bufio.Reader
	out         io.Writer
	userEmail   string
}

func NewApp(c *config.Config) *App {
	hc := &http.Client{Timeout: c.RequestTimeout}
	api := client.NewHTTPClient(c.ServerURL, hc)

	return &App{
		config:      c,
		authService: services.NewAuthService(api),
		userService: services.NewUserService(api, hc),
		reader:      bufio.NewReader(os.Stdin),
		out:         os.Stdout,
	}
}

// Run greets the user, probes the server and starts the REPL.
func (a *App) Run(ctx context.Context) {
	fmt.Fprintln(a.out, "authgate CLI (type 'help' for commands)")
	if err := a.authService.Ping(ctx); err != nil {
		fmt.Fprintf(a.out, "warning: %s is not reachable: %v\n", a.config.ServerURL, err)
	}

	runREPL(ctx, a, a.getStatus, a.reader)

	if a.isLoggedIn() {
		_ = a.authService.Logout(context.WithoutCancel(ctx))
	}
}

func (a *App) isLoggedIn() bool {
	return a.authService.LoggedIn()
}

func (a *App) getStatus() string {
	if a.isLoggedIn() && a.userEmail != "" {
		return "(" + a.userEmail + ")"
	}
	return ""
}
