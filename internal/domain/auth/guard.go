package auth

// GuardState is the outcome of evaluating a route guard against a session.
type GuardState string

const (
	// GuardLoading means the session is not yet determined; render a
	// neutral waiting state and perform no redirect.
	GuardLoading GuardState = "loading"
	// GuardUnauthenticated means authentication is required and absent.
	GuardUnauthenticated GuardState = "unauthenticated"
	// GuardAuthorized admits the principal to the protected tree.
	GuardAuthorized GuardState = "authorized"
	// GuardForbidden means a principal is present but outside the allowed
	// role set. Access is never silently granted.
	GuardForbidden GuardState = "forbidden"
)

// GuardRequirement describes what a protected route tree demands. An empty
// Allowed set admits any authenticated principal.
type GuardRequirement struct {
	Allowed []Role
}

// EvaluateGuard is the route guard as a pure function: no redirects, no
// side effects. The caller performs navigation based on the returned state.
//
// Role checks run only after the session is resolved; evaluating against a
// not-yet-determined session short-circuits to GuardLoading.
func EvaluateGuard(resolved bool, sess Session, req GuardRequirement) GuardState {
	if !resolved {
		return GuardLoading
	}
	if !sess.Authenticated || sess.Principal == nil {
		return GuardUnauthenticated
	}
	if len(req.Allowed) == 0 {
		return GuardAuthorized
	}
	// Re-run alias normalization so a principal whose role was stored under
	// a legacy spelling is still admitted.
	have := ParseRole(string(sess.Principal.Role))
	for _, want := range req.Allowed {
		if ParseRole(string(want)) == have && have != RoleUnknown {
			return GuardAuthorized
		}
	}
	return GuardForbidden
}
