package api

import (
	"github.com/rs/zerolog"

	"github.com/urbaninsight/insight-edge/internal/core/ports"
)

// NewLoginNavigator returns the Navigator the API client fires when a
// session is invalidated. At the edge the "navigation" a browser would
// perform is rendered by the error handler from the propagated error; the
// navigator's job is to record that the redirect was issued, once per
// invalidated session.
func NewLoginNavigator(log zerolog.Logger, loginPath string) ports.Navigator {
	return ports.NavigateFunc(func(path, returnTo string) {
		if path == "" {
			path = loginPath
		}
		log.Info().
			Str("login", path).
			Str("return_to", returnTo).
			Msg("viewer redirected to login")
	})
}
