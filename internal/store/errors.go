package store

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrDuplicateRole     = errors.New("role name already exists")
	ErrDuplicateUsername = errors.New("username already exists")
	ErrRoleNotFound      = errors.New("role not found")
	ErrProtectedRole     = errors.New("role is protected")
	ErrOwnRole           = errors.New("cannot delete own role")
)

// InvalidPermissionsError reports which requested permission ids are not in
// the catalog. The assignment is rejected as a whole.
type InvalidPermissionsError struct {
	Missing []uint
}

func (e *InvalidPermissionsError) Error() string {
	return fmt.Sprintf("permissions do not exist: %v", e.Missing)
}

// RoleInUseError blocks role deletion while other users still hold the role.
type RoleInUseError struct {
	UserIDs   []string
	Usernames []string
}

func (e *RoleInUseError) Error() string {
	return fmt.Sprintf("role assigned to %d user(s)", len(e.Usernames))
}
