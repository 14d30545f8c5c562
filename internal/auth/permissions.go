package auth

// Capability predicates over the current principal. These are the gates the
// calculator, catalog, and user-management surfaces check before any
// privileged action proceeds.
//
// Each predicate switches exhaustively over the closed role set: a new role
// compiles into every predicate's default-deny branch until it is granted
// explicitly. A nil principal (anonymous session) is denied everything.

// CanViewMaterials reports whether the principal may browse the material
// catalog and reference data.
func CanViewMaterials(p *Principal) bool {
	if p == nil {
		return false
	}
	switch p.Role {
	case RoleAdmin, RoleManager:
		return true
	default:
		return false
	}
}

// CanCalculate reports whether the principal may run window pricing
// calculations.
func CanCalculate(p *Principal) bool {
	if p == nil {
		return false
	}
	switch p.Role {
	case RoleAdmin, RoleManager:
		return true
	default:
		return false
	}
}

// CanManageMaterials reports whether the principal may create, edit, or
// delete material catalog entries.
func CanManageMaterials(p *Principal) bool {
	if p == nil {
		return false
	}
	switch p.Role {
	case RoleAdmin:
		return true
	case RoleManager:
		return false
	default:
		return false
	}
}

// CanManageUsers reports whether the principal may create, modify, or
// delete user accounts.
func CanManageUsers(p *Principal) bool {
	if p == nil {
		return false
	}
	switch p.Role {
	case RoleAdmin:
		return true
	case RoleManager:
		return false
	default:
		return false
	}
}
