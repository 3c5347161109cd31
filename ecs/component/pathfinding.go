package component

import "github.com/milk9111/navgraph/common"

// NavAgent is an entity that follows routes. Path is the agent's own copy;
// waypoints are popped from the front as they are reached.
type NavAgent struct {
	Speed           float64
	TurnRate        float64
	ArriveThreshold float64
	Path            []common.Vec3
}

var NavAgentComponent = NewComponent[NavAgent]()
