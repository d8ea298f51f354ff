package policy

import (
	"context"
	"slices"
)

// Viewer represents the caller on whose behalf statements are executed.
type Viewer interface {
	GetID() string
	GetRoles() []string
}

type viewerCtxKey struct{}

// WithViewer returns a new context with the viewer attached.
func WithViewer(ctx context.Context, viewer Viewer) context.Context {
	return context.WithValue(ctx, viewerCtxKey{}, viewer)
}

// ViewerFromContext retrieves the viewer from the context, or nil.
func ViewerFromContext(ctx context.Context) Viewer {
	v, _ := ctx.Value(viewerCtxKey{}).(Viewer)
	return v
}

// SimpleViewer is a basic implementation of the Viewer interface.
type SimpleViewer struct {
	UserID string
	Roles  []string
}

// GetID returns the user ID.
func (v *SimpleViewer) GetID() string { return v.UserID }

// GetRoles returns the user's roles.
func (v *SimpleViewer) GetRoles() []string { return v.Roles }

// DenyIfNoViewer returns a rule that denies execution if no viewer is
// present in the context.
func DenyIfNoViewer() Rule {
	return ContextRule(func(ctx context.Context) error {
		if ViewerFromContext(ctx) == nil {
			return Denyf("dbquery/policy: viewer required")
		}
		return Skip
	})
}

// HasRole returns a rule that allows execution if the viewer has the role,
// and skips otherwise.
func HasRole(role string) Rule {
	return HasAnyRole(role)
}

// HasAnyRole returns a rule that allows execution if the viewer has any of
// the roles, and skips otherwise.
func HasAnyRole(roles ...string) Rule {
	return ContextRule(func(ctx context.Context) error {
		viewer := ViewerFromContext(ctx)
		if viewer == nil {
			return Skip
		}
		for _, role := range roles {
			if slices.Contains(viewer.GetRoles(), role) {
				return Allow
			}
		}
		return Skip
	})
}
