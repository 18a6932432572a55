package auth

import (
	"crypto/subtle"
	"net/http"

	"github.com/a-h/respond"
	"github.com/lotl-ai/lotlchat/models"
)

// Header carries the shared secret on authenticated routes.
const Header = "X-LOT-KEY"

// New wraps next with a shared-secret check. An empty secret disables
// authentication and every request passes through.
func New(secret string, next http.Handler) *Auth {
	return &Auth{
		Secret: secret,
		Next:   next,
	}
}

type Auth struct {
	Secret string
	Next   http.Handler
}

func (a *Auth) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if a.Secret != "" {
		key := r.Header.Get(Header)
		if subtle.ConstantTimeCompare([]byte(key), []byte(a.Secret)) != 1 {
			respond.WithJSON(w, models.ErrorResponse{Error: "unauthorized"}, http.StatusUnauthorized)
			return
		}
	}
	a.Next.ServeHTTP(w, r)
}
