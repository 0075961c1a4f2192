package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/GoArmGo/ContactsApp/internal/core/ports"
)

type sessionKey struct{}

// SessionMiddleware выдаёт каждому запросу свою сессию и закрывает её
// на любом пути выхода, в том числе при панике.
func SessionMiddleware(provider ports.SessionProvider, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess := provider.AcquireSession()
			defer func() {
				if err := sess.Close(); err != nil {
					logger.Error("failed to close session", "path", r.URL.Path, "error", err)
				}
			}()

			ctx := context.WithValue(r.Context(), sessionKey{}, sess)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// sessionFrom достаёт сессию запроса; без SessionMiddleware это ошибка сборки роутера.
func sessionFrom(ctx context.Context) ports.Session {
	sess, ok := ctx.Value(sessionKey{}).(ports.Session)
	if !ok {
		panic("handler: session middleware is not installed")
	}
	return sess
}
