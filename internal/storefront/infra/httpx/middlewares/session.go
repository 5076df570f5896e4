package middlewares

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/jcmexdev/lvs-storefront/internal/pkg/interceptors/constants"
)

// Session resolves the cart session id from X-Session-ID, minting one when the
// client has none yet. The id is always echoed back.
func Session(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(constants.HeaderSessionID))
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(constants.HeaderSessionID, id)
		ctx := context.WithValue(r.Context(), constants.ContextKeySessionID, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// SessionID returns the id stored by Session, or "".
func SessionID(ctx context.Context) string {
	id, _ := ctx.Value(constants.ContextKeySessionID).(string)
	return id
}
