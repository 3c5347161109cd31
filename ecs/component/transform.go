package component

import "github.com/milk9111/navgraph/common"

// Transform is a world-space pose. Rotation is yaw in radians around +Y.
type Transform struct {
	Position common.Vec3
	Rotation float64
}

var TransformComponent = NewComponent[Transform]()
