// Package policy centralizes business policy: the fixed loan window and the
// authorization table mapping each operation to the role it requires.
// Middleware consults the table before any operation runs, instead of
// threading role checks through handler logic.
package policy

import "time"

// MaxLoanDuration is the fixed maximum loan window. A borrow request's return
// date must fall within [today, today+MaxLoanDuration].
var MaxLoanDuration = 14 * 24 * time.Hour

// Role is the minimum privilege level an operation requires.
type Role int

const (
	// RolePublic operations need no authentication.
	RolePublic Role = iota
	// RoleMember operations need any authenticated member.
	RoleMember
	// RoleAdmin operations need an administrator.
	RoleAdmin
)

func (r Role) String() string {
	switch r {
	case RolePublic:
		return "public"
	case RoleMember:
		return "member"
	case RoleAdmin:
		return "admin"
	default:
		return "unknown"
	}
}

// Operation names an externally reachable operation.
type Operation string

const (
	OpRegisterCopy Operation = "lending.register_copy"
	OpBorrow       Operation = "lending.borrow"
	OpReturn       Operation = "lending.return"
	OpDisable      Operation = "lending.disable"
	OpGetHistory   Operation = "lending.history"
	OpGetCopy      Operation = "lending.get_copy"
	OpListCopies   Operation = "lending.list_copies"

	OpCreateBook Operation = "catalog.create_book"
	OpGetBook    Operation = "catalog.get_book"
	OpListBooks  Operation = "catalog.list_books"
	OpPatchBook  Operation = "catalog.patch_book"

	OpRegisterMember Operation = "member.register"
	OpLogin          Operation = "member.login"
	OpProfile        Operation = "member.profile"
)

var requiredRole = map[Operation]Role{
	OpRegisterCopy: RoleAdmin,
	OpBorrow:       RoleMember,
	OpReturn:       RoleMember,
	OpDisable:      RoleAdmin,
	OpGetHistory:   RoleAdmin,
	OpGetCopy:      RoleMember,
	OpListCopies:   RoleMember,

	OpCreateBook: RoleAdmin,
	OpGetBook:    RolePublic,
	OpListBooks:  RolePublic,
	OpPatchBook:  RoleAdmin,

	OpRegisterMember: RolePublic,
	OpLogin:          RolePublic,
	OpProfile:        RoleMember,
}

// RequiredRole returns the role the operation demands. Unknown operations
// require admin so new endpoints fail closed until registered here.
func RequiredRole(op Operation) Role {
	if role, ok := requiredRole[op]; ok {
		return role
	}
	return RoleAdmin
}
