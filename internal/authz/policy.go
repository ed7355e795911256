package authz

import (
	"github.com/packlabs/packvault-backend/internal/vaulterr"
)

// Role is the caller's authorization level. The admin identity is expected
// to be a multi-party-approved identity in production; operators submit
// deposits and withdrawals on a depositor's behalf but cannot alter pack
// definitions.
type Role string

const (
	RoleAdmin     Role = "admin"
	RoleOperator  Role = "operator"
	RoleDepositor Role = "depositor"
)

func ParseRole(raw string) (Role, bool) {
	switch Role(raw) {
	case RoleAdmin, RoleOperator, RoleDepositor:
		return Role(raw), true
	default:
		return "", false
	}
}

// Policy is the explicit authorization check run at the top of every
// restricted operation.
type Policy struct{}

func NewPolicy() *Policy {
	return &Policy{}
}

// RequireAdmin gates pack creation, rebalance, pause, emergency recovery,
// and capability rotation.
func (p *Policy) RequireAdmin(role Role) error {
	if role != RoleAdmin {
		return vaulterr.Newf(vaulterr.KindAuthorization, "admin_required",
			"role %q cannot perform administrative operations", role)
	}
	return nil
}

// RequireActFor gates deposits and withdrawals: depositors act only for
// themselves, operators and the admin may act for any depositor.
func (p *Policy) RequireActFor(role Role, caller, depositor string) error {
	switch role {
	case RoleAdmin, RoleOperator:
		return nil
	case RoleDepositor:
		if caller == depositor {
			return nil
		}
		return vaulterr.Newf(vaulterr.KindAuthorization, "not_own_account",
			"depositor %q cannot act for %q", caller, depositor)
	default:
		return vaulterr.Newf(vaulterr.KindAuthorization, "unknown_role",
			"role %q is not authorized", role)
	}
}
