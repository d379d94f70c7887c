package middleware

import (
	"context"
	"errors"
	"net/http"

	"weddingplanner/api"
	"weddingplanner/db"
	"weddingplanner/models"
	"weddingplanner/utils"
)

// TokenHeader carries an admin API token.
const TokenHeader = "X-Auth-Token"

// TokenFinder looks up admin tokens by digest.
type TokenFinder interface {
	FindByHash(ctx context.Context, hash string) (*models.Token, error)
}

// Admin elevates the request when the session is an admin session or the
// request carries a known API token. It runs before routing, so predicates
// always see the final flag.
func Admin(tokens TokenFinder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			req := api.FromContext(r.Context())
			if req == nil {
				next.ServeHTTP(w, r)
				return
			}
			if req.Session.Bound() && req.Session.Admin {
				req.Admin = true
			} else if secret := r.Header.Get(TokenHeader); secret != "" {
				token, err := tokens.FindByHash(r.Context(), utils.TokenDigest(secret))
				switch {
				case err == nil:
					req.Admin = true
					req.TokenName = token.Name
					req.Log = req.Log.With().Str("token", token.Name).Logger()
					req.Log.Info().Str("path", r.URL.Path).Msg("request authorised by api token")
				case errors.Is(err, db.ErrNotFound):
					req.Log.Warn().Str("ip", req.IP).Msg("unknown api token")
				default:
					req.Log.Error().Err(err).Msg("api token lookup failed")
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}
