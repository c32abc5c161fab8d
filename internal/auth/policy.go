package auth

import "piringsehat/pkg/domain"

// CanModify reports whether the principal may mutate a resource owned by
// ownerID: either the principal owns it, or it holds the admin role.
// Callers must check resource existence first so "not found" wins over
// "forbidden".
func CanModify(ownerID string, p domain.Principal) bool {
	return ownerID == p.UserID || p.Role == domain.RoleAdmin
}
