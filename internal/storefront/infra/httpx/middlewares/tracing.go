package middlewares

import (
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/jcmexdev/lvs-storefront/internal/pkg/interceptors"
	"github.com/jcmexdev/lvs-storefront/internal/pkg/interceptors/constants"
)

// AttachTracingMetadata copies chi's request id and the client's
// X-Idempotency-Key into the context and echoes the request id.
func AttachTracingMetadata(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := middleware.GetReqID(r.Context())
		idempotencyKey := r.Header.Get(constants.HeaderIdempotencyKey)

		if requestID != "" {
			w.Header().Set(constants.HeaderRequestID, requestID)
		}
		ctx := interceptors.WithRequestIDs(r.Context(), requestID, idempotencyKey)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
