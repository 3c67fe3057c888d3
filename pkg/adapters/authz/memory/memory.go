package memory

import (
	"context"

	"github.com/taskhive/taskhive/pkg/ports"
)

// StaticAuthorizer implements Authorizer from a fixed set of admin user ids.
// Everyone else is a member; unknown users get the member role rather than an
// error so role existence cannot be probed.
type StaticAuthorizer struct {
	admins map[string]struct{}
}

// NewStaticAuthorizer creates an authorizer granting admin to the given ids
func NewStaticAuthorizer(adminUserIDs []string) *StaticAuthorizer {
	admins := make(map[string]struct{}, len(adminUserIDs))
	for _, id := range adminUserIDs {
		admins[id] = struct{}{}
	}
	return &StaticAuthorizer{admins: admins}
}

// RoleOf returns the role of a user
func (a *StaticAuthorizer) RoleOf(ctx context.Context, userID string) (ports.Role, error) {
	if _, ok := a.admins[userID]; ok {
		return ports.RoleAdmin, nil
	}
	return ports.RoleMember, nil
}
