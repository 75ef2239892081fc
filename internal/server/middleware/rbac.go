package middleware

import "net/http"

// Role constants define the supported principal roles. Agent is assigned to
// API-key authenticated runtimes; they append events but cannot administer
// the workspace.
const (
	RoleAdmin  = "admin"
	RoleMember = "member"
	RoleAgent  = "agent"
)

// RequireRole returns middleware that checks if the authenticated principal
// has one of the allowed roles. It must be chained after the Auth middleware,
// which stores the role in the request context via ContextKeyUserRole.
//
// Returns 401 Unauthorized when no principal is found in context. Returns 403
// Forbidden when the role does not match any of the allowed roles.
func RequireRole(roles ...string) func(http.Handler) http.Handler {
	allowed := make(map[string]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role, ok := RoleFromContext(r.Context())
			if !ok || role == "" {
				http.Error(w, `{"title":"Unauthorized","status":401,"detail":"authentication required"}`, http.StatusUnauthorized)
				return
			}

			if _, match := allowed[role]; !match {
				http.Error(w, `{"title":"Forbidden","status":403,"detail":"insufficient permissions"}`, http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequireAdmin is a convenience wrapper for RequireRole(RoleAdmin).
func RequireAdmin() func(http.Handler) http.Handler {
	return RequireRole(RoleAdmin)
}
