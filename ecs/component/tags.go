package component

// Target points an agent at another entity; combat-style behaviors use it and
// the patrol gate measures distance to it.
type Target struct {
	Entity uint64
}

var TargetComponent = NewComponent[Target]()

// Name is a human-readable label used in logs and debug views.
type Name struct {
	Value string
}

var NameComponent = NewComponent[Name]()
