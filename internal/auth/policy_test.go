package auth

import (
	"testing"

	"piringsehat/pkg/domain"
)

func TestCanModify(t *testing.T) {
	tests := []struct {
		name    string
		ownerID string
		p       domain.Principal
		want    bool
	}{
		{"owner with ordinary role", "u1", domain.Principal{UserID: "u1", Role: domain.RoleUser}, true},
		{"owner with admin role", "u1", domain.Principal{UserID: "u1", Role: domain.RoleAdmin}, true},
		{"non-owner ordinary role", "u1", domain.Principal{UserID: "u2", Role: domain.RoleUser}, false},
		{"non-owner admin role", "u1", domain.Principal{UserID: "u2", Role: domain.RoleAdmin}, true},
		{"empty role is not privileged", "u1", domain.Principal{UserID: "u2"}, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := CanModify(tc.ownerID, tc.p); got != tc.want {
				t.Fatalf("CanModify(%q, %+v) = %v, want %v", tc.ownerID, tc.p, got, tc.want)
			}
		})
	}
}
