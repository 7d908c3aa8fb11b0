package authz

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/wasteops/wasteops/internal/platform/httpx"
)

// Decision is the state of a protected region. Evaluation is synchronous, so
// callers only ever observe Allowed or Denied; Init and Checking exist for
// consumers that hold a Decision across principal changes.
type Decision int

const (
	DecisionInit Decision = iota
	DecisionChecking
	DecisionAllowed
	DecisionDenied
)

func (d Decision) String() string {
	switch d {
	case DecisionInit:
		return "init"
	case DecisionChecking:
		return "checking"
	case DecisionAllowed:
		return "allowed"
	case DecisionDenied:
		return "denied"
	default:
		return "unknown"
	}
}

// Requirement declares what a protected region demands. At most one of Role
// and Permission should be set; Role wins when both are.
type Requirement struct {
	Role       Role
	Permission Permission
	// Fallback is where the client should send a denied user, next to the
	// implicit "go back" recovery.
	Fallback string
}

// Denial carries what the client needs to render the blocking notice.
type Denial struct {
	RequiredRole       Role       `json:"required_role,omitempty"`
	RequiredPermission Permission `json:"required_permission,omitempty"`
	ActualRole         Role       `json:"actual_role"`
	ActualRoleName     string     `json:"actual_role_name"`
	Fallback           string     `json:"fallback,omitempty"`
}

// Guard is the decision point for protected regions and routes.
type Guard struct {
	resolver  *Resolver
	logger    *slog.Logger
	principal func(ctx context.Context) Principal
	fallback  string
	observe   func(decision string)
}

// NewGuard constructs a Guard. principal extracts the current principal from a
// request context and may return nil; fallback is the default denied-user
// destination used when a requirement does not set its own.
func NewGuard(resolver *Resolver, logger *slog.Logger, principal func(ctx context.Context) Principal, fallback string) *Guard {
	return &Guard{resolver: resolver, logger: logger, principal: principal, fallback: fallback}
}

// WithObserver registers a callback fed with every middleware decision, used
// for metrics.
func (g *Guard) WithObserver(observe func(decision string)) *Guard {
	g.observe = observe
	return g
}

// Evaluate computes the decision for a principal against a requirement.
//
// The role check is an exact match: a higher-ranked role does not pass a
// lower role's gate. This mirrors the console's original behavior and is kept
// deliberately; super_admin still passes every permission gate through the
// resolver, so admin regions phrased as permission gates stay reachable.
func (g *Guard) Evaluate(p Principal, req Requirement) (Decision, *Denial) {
	if req.Role != "" {
		if p != nil && p.GetRole() == req.Role {
			return DecisionAllowed, nil
		}
		return DecisionDenied, g.denial(p, req)
	}
	if req.Permission != "" {
		if g.resolver.Has(p, req.Permission) {
			return DecisionAllowed, nil
		}
		return DecisionDenied, g.denial(p, req)
	}
	return DecisionAllowed, nil
}

// RequirePrincipal guards routes behind authentication only; any resolved
// principal passes.
func (g *Guard) RequirePrincipal(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if g.principal(r.Context()) == nil {
			httpx.RespondError(w, httpx.ErrUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireRole guards routes behind an exact role match.
func (g *Guard) RequireRole(role Role) func(http.Handler) http.Handler {
	return g.middleware(Requirement{Role: role})
}

// RequirePermission guards routes behind a permission point query.
func (g *Guard) RequirePermission(perm Permission) func(http.Handler) http.Handler {
	return g.middleware(Requirement{Permission: perm})
}

func (g *Guard) middleware(req Requirement) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p := g.principal(r.Context())
			decision, denial := g.Evaluate(p, req)
			if g.observe != nil {
				g.observe(decision.String())
			}
			if decision == DecisionAllowed {
				next.ServeHTTP(w, r)
				return
			}
			if g.logger != nil {
				g.logger.Warn("access denied",
					slog.String("path", r.URL.Path),
					slog.String("required_role", string(req.Role)),
					slog.String("required_permission", string(req.Permission)))
			}
			httpx.JSON(w, http.StatusForbidden, map[string]any{
				"status": DecisionDenied.String(),
				"denial": denial,
			})
		})
	}
}

func (g *Guard) denial(p Principal, req Requirement) *Denial {
	d := &Denial{
		RequiredRole:       req.Role,
		RequiredPermission: req.Permission,
		Fallback:           req.Fallback,
	}
	if d.Fallback == "" {
		d.Fallback = g.fallback
	}
	if p != nil {
		d.ActualRole = p.GetRole()
		d.ActualRoleName = p.GetRole().DisplayName()
	}
	return d
}
