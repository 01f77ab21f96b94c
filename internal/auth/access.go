package auth

import "fmt"

// ValidateAccess checks that user may act within system given binding, which
// may be nil. Checks run in a fixed order: user status, system status, master
// bypass, binding presence, binding status. Errors name the failed rule.
func ValidateAccess(user User, system ClientSystem, binding *UserSystem) error {
	if !user.IsActive() {
		return fmt.Errorf("%w: user %d is %s", ErrUserInactive, user.ID, user.Status)
	}
	if !system.IsActive() {
		return fmt.Errorf("%w: system %d is %s", ErrSystemInactive, system.ID, system.Status)
	}
	if IsMaster(user) {
		return nil
	}
	if binding == nil {
		return fmt.Errorf("%w: user %d, system %d", ErrNoBinding, user.ID, system.ID)
	}
	if !binding.IsActive() {
		return fmt.Errorf("%w: binding %d is %s", ErrBindingInactive, binding.ID, binding.Status)
	}
	return nil
}

// CanAccess is ValidateAccess reduced to a boolean.
func CanAccess(user User, system ClientSystem, binding *UserSystem) bool {
	return ValidateAccess(user, system, binding) == nil
}
