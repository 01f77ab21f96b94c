package auth

// FullAccess is the implicit permission held by master users.
const FullAccess = "FULL_ACCESS"

// Master users bypass system bindings and role checks everywhere. Changing the
// master flag of any account, including one's own, requires a master actor.

func IsMaster(u User) bool { return u.Master }

func RequiresRoles(u User) bool { return !IsMaster(u) }

func RequiresSystemBinding(u User) bool { return !IsMaster(u) }

func CanPromoteToMaster(actor User) bool { return IsMaster(actor) }

func CanDemoteFromMaster(actor User) bool { return IsMaster(actor) }

// ImplicitPermissions returns the permissions granted without any binding.
func ImplicitPermissions(u User) []string {
	if IsMaster(u) {
		return []string{FullAccess}
	}
	return []string{}
}
