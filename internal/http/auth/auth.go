// Package auth verifies bearer tokens and carries the resulting caller in the request context.
package auth

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/MrJamesThe3rd/zakati/internal/http/respond"
	"github.com/MrJamesThe3rd/zakati/internal/ledger"
)

// Claims are the token fields the API reads. The subject is the user id.
type Claims struct {
	Staff bool `json:"staff"`
	jwt.RegisteredClaims
}

type ctxKey struct{}

func WithCaller(ctx context.Context, c ledger.Caller) context.Context {
	return context.WithValue(ctx, ctxKey{}, c)
}

// CallerFrom returns the authenticated caller, or the zero caller which may act for nobody.
func CallerFrom(ctx context.Context) ledger.Caller {
	c, _ := ctx.Value(ctxKey{}).(ledger.Caller)
	return c
}

type Verifier struct {
	secret []byte
	parser *jwt.Parser
}

func NewVerifier(secret string) *Verifier {
	return &Verifier{
		secret: []byte(secret),
		parser: jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})),
	}
}

func (v *Verifier) Verify(raw string) (ledger.Caller, error) {
	var claims Claims

	_, err := v.parser.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
		return v.secret, nil
	})
	if err != nil {
		return ledger.Caller{}, fmt.Errorf("parsing token: %w", err)
	}

	id, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || id <= 0 {
		return ledger.Caller{}, fmt.Errorf("invalid subject %q", claims.Subject)
	}

	return ledger.Caller{UserID: id, Staff: claims.Staff}, nil
}

// Sign issues a token for c. Used by tests and local tooling.
func (v *Verifier) Sign(c ledger.Caller) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Staff:            c.Staff,
		RegisteredClaims: jwt.RegisteredClaims{Subject: strconv.FormatInt(c.UserID, 10)},
	})

	return token.SignedString(v.secret)
}

func (v *Verifier) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || raw == "" {
			respond.Message(w, http.StatusUnauthorized, "missing bearer token")
			return
		}

		caller, err := v.Verify(strings.TrimSpace(raw))
		if err != nil {
			respond.Message(w, http.StatusUnauthorized, "invalid token")
			return
		}

		next.ServeHTTP(w, r.WithContext(WithCaller(r.Context(), caller)))
	})
}

// RequireStaff rejects callers without the staff flag.
func RequireStaff(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !CallerFrom(r.Context()).Staff {
			respond.Error(w, ledger.ErrForbidden)
			return
		}

		next.ServeHTTP(w, r)
	})
}
