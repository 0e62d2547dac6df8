package ledger

import (
	"fmt"

	"github.com/storystudio/ledger/internal/models"
)

type permission int

const (
	canView permission = iota
	canEdit
	canManageUsers
	canConfigure
)

// allowed reports whether role may perform p.
func allowed(role models.Role, p permission) bool {
	switch p {
	case canView:
		return role == models.SuperAdmin || role == models.Admin || role == models.Viewer
	case canEdit:
		return role == models.SuperAdmin || role == models.Admin
	case canManageUsers, canConfigure:
		return role == models.SuperAdmin
	}
	return false
}

func (b *Book) requireLocked(p permission) error {
	if b.session == nil {
		return ErrNoSession
	}
	if !allowed(b.session.user.Role, p) {
		return fmt.Errorf("%w: role %s", ErrForbidden, b.session.user.Role)
	}
	return nil
}

// CanEdit reports whether the session may add or delete transactions.
func (s *Session) CanEdit() bool { return allowed(s.user.Role, canEdit) }

// CanAdminister reports whether the session may manage users and the sheet binding.
func (s *Session) CanAdminister() bool { return allowed(s.user.Role, canManageUsers) }
