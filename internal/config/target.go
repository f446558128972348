package config

// TargetKind is the closed set of deploy placement expressions. The raw
// string form ("all", "any", "random", a role, a machine key) is parsed once
// at load time so translators can switch exhaustively instead of comparing
// strings.
type TargetKind int

const (
	TargetAny TargetKind = iota
	TargetAll
	TargetMachine
	TargetRole
)

type DeployTarget struct {
	Kind    TargetKind
	Machine string // set for TargetMachine
	Role    string // set for TargetRole
}

func (t DeployTarget) String() string {
	switch t.Kind {
	case TargetAll:
		return "all"
	case TargetMachine:
		return t.Machine
	case TargetRole:
		return t.Role
	default:
		return "any"
	}
}

// ParseDeployTarget maps a raw deploy expression to its variant. The
// keywords all/any/random and the role names manager/worker are reserved;
// anything else is taken as a machine key. random is an alias for any:
// both resolve deterministically to the first machine, never true randomness.
func ParseDeployTarget(raw string) DeployTarget {
	switch raw {
	case "", "any", "random":
		return DeployTarget{Kind: TargetAny}
	case "all":
		return DeployTarget{Kind: TargetAll}
	case "manager", "worker":
		return DeployTarget{Kind: TargetRole, Role: raw}
	default:
		return DeployTarget{Kind: TargetMachine, Machine: raw}
	}
}
