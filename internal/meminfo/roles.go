package meminfo

// Names of the metrics the sampler understands structurally.
const (
	MemTotal   = "MemTotal"
	MemFree    = "MemFree"
	Buffers    = "Buffers"
	Cached     = "Cached"
	SwapTotal  = "SwapTotal"
	SwapFree   = "SwapFree"
	SwapCached = "SwapCached"
	MemUsed    = "MemUsed"
	SwapUsed   = "SwapUsed"
)

// Unassigned marks a role whose metric was never registered.
const Unassigned int64 = -1

// Role is a fixed semantic meaning of a metric.
type Role int

const (
	RoleMemTotal Role = iota
	RoleMemFree
	RoleBuffers
	RoleCached
	RoleSwapTotal
	RoleSwapFree
	RoleSwapCached
	RoleMemUsed
	RoleSwapUsed

	numRoles
)

// NumRawRoles is the number of roles read directly from the source. Raw
// roles come first, so role < NumRawRoles tells raw from derived.
const NumRawRoles = int(RoleSwapCached) + 1

var roleNames = [numRoles]string{
	RoleMemTotal:   MemTotal,
	RoleMemFree:    MemFree,
	RoleBuffers:    Buffers,
	RoleCached:     Cached,
	RoleSwapTotal:  SwapTotal,
	RoleSwapFree:   SwapFree,
	RoleSwapCached: SwapCached,
	RoleMemUsed:    MemUsed,
	RoleSwapUsed:   SwapUsed,
}

func (r Role) String() string {
	if r < 0 || r >= numRoles {
		return "unknown"
	}
	return roleNames[r]
}

// Derived reports whether the role is computed rather than read.
func (r Role) Derived() bool { return r == RoleMemUsed || r == RoleSwapUsed }

// Roles maps every role to the position of its metric. It is filled while
// metrics are registered and only read once sampling starts; it is a plain
// value so the sampler can take its own copy.
type Roles struct {
	positions [numRoles]int64
}

// NewRoles returns a table with every role unassigned.
func NewRoles() Roles {
	var r Roles
	for i := range r.positions {
		r.positions[i] = Unassigned
	}
	return r
}

// Register assigns id's position to the role with exactly the same name.
// It reports whether id named a role; most metrics do not.
func (r *Roles) Register(id Identity) bool {
	for role, name := range roleNames {
		if name == id.Name {
			r.positions[role] = id.Position
			return true
		}
	}
	return false
}

// Position returns the position assigned to role, or Unassigned.
func (r Roles) Position(role Role) int64 {
	if role < 0 || role >= numRoles {
		return Unassigned
	}
	return r.positions[role]
}

// RawRoleAt returns the raw role registered at position, if any.
func (r Roles) RawRoleAt(position int64) (Role, bool) {
	for role := Role(0); int(role) < NumRawRoles; role++ {
		if r.positions[role] == position {
			return role, true
		}
	}
	return 0, false
}
