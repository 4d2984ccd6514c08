// Package identity turns the upstream gateway's authentication result into a
// tenant-scoped identity on the request context. The gateway is trusted: this
// package does not issue sessions, it only reads what the gateway asserts.
package identity

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	id "tallysync/pkg/domain"
	dErrors "tallysync/pkg/domain-errors"
	"tallysync/pkg/platform/httputil"
	pstrings "tallysync/pkg/platform/strings"
	"tallysync/pkg/requestcontext"
)

// Header names set by the gateway when it forwards an authenticated request.
const (
	HeaderTenantID = "X-Tenant-ID"
	HeaderSubject  = "X-Subject-ID"
	HeaderRoles    = "X-Subject-Roles"
)

// RoleReviewer may adjudicate conflicting tallies.
const RoleReviewer = "reviewer"

// Identity is the tenant-scoped caller asserted by the trust boundary.
type Identity struct {
	TenantID  id.TenantID
	SubjectID id.SubjectID
	Roles     []string
}

// Resolver extracts an Identity from an inbound request.
type Resolver interface {
	Resolve(r *http.Request) (*Identity, error)
}

// HeaderResolver reads the identity from gateway headers.
type HeaderResolver struct{}

func (HeaderResolver) Resolve(r *http.Request) (*Identity, error) {
	return build(r.Header.Get(HeaderTenantID), r.Header.Get(HeaderSubject), pstrings.SplitListLower(r.Header.Get(HeaderRoles)))
}

// Claims are the gateway-signed token claims.
type Claims struct {
	TenantID string   `json:"tenant_id"`
	Roles    []string `json:"roles,omitempty"`
	jwt.RegisteredClaims
}

// JWTResolver verifies an HS256 bearer token minted by the gateway.
type JWTResolver struct {
	signingKey []byte
}

// NewJWTResolver constructs a resolver for tokens signed with signingKey.
func NewJWTResolver(signingKey string) *JWTResolver {
	return &JWTResolver{signingKey: []byte(signingKey)}
}

func (j *JWTResolver) Resolve(r *http.Request) (*Identity, error) {
	raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !ok || raw == "" {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "missing bearer token")
	}
	parsed, err := jwt.ParseWithClaims(raw, &Claims{}, func(token *jwt.Token) (any, error) {
		return j.signingKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "token has expired")
		}
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token")
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token claims")
	}
	return build(claims.TenantID, claims.Subject, pstrings.DedupeAndTrimLower(claims.Roles))
}

func build(rawTenant, rawSubject string, roles []string) (*Identity, error) {
	tenantID, err := id.ParseTenantID(rawTenant)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnauthorized, "tenant identity required")
	}
	subjectID, err := id.ParseSubjectID(rawSubject)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnauthorized, "subject identity required")
	}
	return &Identity{TenantID: tenantID, SubjectID: subjectID, Roles: roles}, nil
}

// RequireIdentity rejects requests without a resolvable identity and stores
// the identity on the request context.
func RequireIdentity(resolver Resolver, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			ident, err := resolver.Resolve(r)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access - identity not resolved",
					"error", err,
					"request_id", requestcontext.RequestID(ctx),
				)
				httputil.WriteError(w, err)
				return
			}
			ctx = requestcontext.WithIdentity(ctx, ident.TenantID, ident.SubjectID, ident.Roles)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole rejects identities that lack role.
func RequireRole(role string, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			if !requestcontext.HasRole(ctx, role) {
				logger.WarnContext(ctx, "forbidden - missing role",
					"role", role,
					"tenant_id", requestcontext.TenantID(ctx),
					"subject_id", requestcontext.SubjectID(ctx),
					"request_id", requestcontext.RequestID(ctx),
				)
				httputil.WriteError(w, dErrors.New(dErrors.CodeForbidden, role+" role required"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
