package event

import (
	"time"

	"github.com/milk9111/navgraph/common"
)

// Type identifies a notification kind.
type Type string

const (
	GraphUpdated      Type = "nav.graph_updated"
	PatrolReached     Type = "patrol.reached"
	PatrolUnreachable Type = "patrol.unreachable"
	BehaviorChanged   Type = "behavior.changed"
)

// Event is a notification payload. Data holds one of the typed payloads below.
type Event struct {
	Type Type      `json:"type"`
	Time time.Time `json:"time"`
	Data any       `json:"data,omitempty"`
}

// GraphUpdatedData is published after a completed adjacency rebuild.
type GraphUpdatedData struct {
	Area      string    `json:"area"`
	Timestamp time.Time `json:"timestamp"`
	Nodes     int       `json:"nodes"`
	Edges     int       `json:"edges"`
	Obstacles int       `json:"obstacles"`
}

// PatrolData is carried by both reached and unreachable notifications.
type PatrolData struct {
	Entity uint64      `json:"entity"`
	Index  int         `json:"index"`
	Point  common.Vec3 `json:"point"`
}

// BehaviorChangedData records which behavior took over an agent.
type BehaviorChangedData struct {
	Entity uint64 `json:"entity"`
	From   string `json:"from"`
	To     string `json:"to"`
}
