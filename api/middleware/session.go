package middleware

import (
	"context"
	"net/http"

	"github.com/vendora/storefront-backend/api/responses"
	"github.com/vendora/storefront-backend/internal/session"
	"github.com/vendora/storefront-backend/pkg/logger"
)

// SessionTokenHeader carries the anonymous cart session token. The server
// echoes it on every response so clients learn freshly minted tokens.
const SessionTokenHeader = "X-Cart-Session"

type sessionResolver interface {
	Resolve(ctx context.Context, token string) (*session.Session, error)
}

// CartSession resolves the session token into a cart id and stores both in
// the request context. Requests without a token get a new session minted.
func CartSession(manager sessionResolver, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			sess, err := manager.Resolve(ctx, r.Header.Get(SessionTokenHeader))
			if err != nil {
				responses.WriteError(ctx, logg, w, err)
				return
			}

			w.Header().Set(SessionTokenHeader, sess.Token)

			ctx = WithSessionToken(ctx, sess.Token)
			ctx = WithCartID(ctx, sess.CartID)
			if logg != nil {
				ctx = logg.WithCartID(ctx, sess.CartID)
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
