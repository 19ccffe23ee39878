package cli

import (
	"context"
	"os"
	"strings"
)

// getSecret is an indirection used to facilitate testing.
var getSecret = GetSecret

// promptToken asks for a bearer token when none is configured and stdin is
// a terminal. An empty answer leaves the client unauthenticated.
func (a *App) promptToken(ctx context.Context) error {
	if a.config.AccessToken != "" || !isTerminal(int(os.Stdin.Fd())) {
		return nil
	}

	token, err := getSecret("Access token (empty to skip)", a.out)
	if err != nil {
		return err
	}
	t := strings.TrimSpace(string(token))
	if t == "" {
		a.logger.Debug(ctx, "continuing without access token")
		return nil
	}
	a.api.SetAccessToken(t)
	return nil
}
