package utils

import (
	"testing"

	"estatecrm/models"
)

func TestCanAccess(t *testing.T) {
	admin := &models.User{Model: models.Model{ID: "admin-id"}, Role: models.RoleAdmin}
	agent := &models.User{Model: models.Model{ID: "agent-id"}, Role: models.RoleAgent}

	if !CanAccess(admin, "someone-else") {
		t.Fatal("admin should access any row")
	}
	if !CanAccess(agent, "agent-id") {
		t.Fatal("agent should access own rows")
	}
	if CanAccess(agent, "someone-else") {
		t.Fatal("agent should not access foreign rows")
	}
}
