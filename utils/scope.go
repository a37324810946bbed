package utils

import (
	"gorm.io/gorm"

	"estatecrm/models"
)

// ScopeToAgent applies the uniform row-level authorization filter: admins see
// everything, agents only rows they are assigned to. The same helper backs
// clients, deals and tasks so the role branch lives in exactly one place.
func ScopeToAgent(q *gorm.DB, user *models.User, column string) *gorm.DB {
	if user.Role == models.RoleAgent {
		return q.Where(column+" = ?", user.ID)
	}
	return q
}

// CanAccess reports whether the user may read or write a record assigned to
// the given user id.
func CanAccess(user *models.User, assignedTo string) bool {
	return user.Role == models.RoleAdmin || user.ID == assignedTo
}
