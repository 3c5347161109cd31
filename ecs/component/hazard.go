package component

import "github.com/jakecoffman/cp"

// Hazard marks an entity whose position is reported to the navigation area
// as an obstacle point. Body is set when the hazard is simulated by the
// physics world; static hazards leave it nil.
type Hazard struct {
	Radius float64
	Body   *cp.Body
}

var HazardComponent = NewComponent[Hazard]()
