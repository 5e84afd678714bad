package network

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/paulmach/orb"

	"github.com/tariktoplu/Opti-LogistiX/geo"
)

// Sentinel errors for network operations.
var (
	// ErrNodeNotFound indicates an operation referenced a non-existent node.
	ErrNodeNotFound = errors.New("network: node not found")

	// ErrDuplicateNode indicates AddNode was called twice with the same ID.
	ErrDuplicateNode = errors.New("network: duplicate node")

	// ErrDuplicateEdge indicates AddEdge was called twice with the same (from, to, key).
	ErrDuplicateEdge = errors.New("network: duplicate edge")

	// ErrEdgeNotFound indicates an unknown edge ID.
	ErrEdgeNotFound = errors.New("network: edge not found")

	// ErrBadLength indicates a non-positive edge length in a routing graph.
	ErrBadLength = errors.New("network: edge length must be positive")

	// ErrBadLanes indicates a lane count below one.
	ErrBadLanes = errors.New("network: lane count must be at least 1")

	// ErrBadCoordinate indicates a non-finite or out-of-range coordinate.
	ErrBadCoordinate = errors.New("network: bad coordinate")

	// ErrDamageOutOfRange indicates a damage score outside [0,1].
	ErrDamageOutOfRange = errors.New("network: damage score outside [0,1]")

	// ErrBadEdgeID indicates a malformed textual edge identifier.
	ErrBadEdgeID = errors.New("network: malformed edge id")

	// ErrEmptyNetwork indicates an operation that needs at least one node.
	ErrEmptyNetwork = errors.New("network: network has no nodes")
)

// NodeID identifies an intersection. Map providers typically use OSM node ids.
type NodeID int64

// Role tags a node with its part in emergency logistics.
type Role int

const (
	// RoleJunction is a plain intersection (the default).
	RoleJunction Role = iota
	// RoleHospital marks a hospital access point.
	RoleHospital
	// RoleDepot marks a vehicle depot.
	RoleDepot
)

var roleNames = [...]string{"junction", "hospital", "depot"}

// String returns the lower-case role name.
func (r Role) String() string {
	if r < 0 || int(r) >= len(roleNames) {
		return "junction"
	}
	return roleNames[r]
}

// ParseRole maps a role name to a Role. Unknown names are junctions.
func ParseRole(s string) Role {
	for i, name := range roleNames {
		if strings.EqualFold(s, name) {
			return Role(i)
		}
	}
	return RoleJunction
}

// MarshalText implements encoding.TextMarshaler.
func (r Role) MarshalText() ([]byte, error) { return []byte(r.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (r *Role) UnmarshalText(b []byte) error {
	*r = ParseRole(string(b))
	return nil
}

// Node is an intersection of the road network.
type Node struct {
	ID          NodeID  `json:"id"`
	Lat         float64 `json:"lat"`
	Lon         float64 `json:"lon"`
	StreetCount int     `json:"street_count"`
	Role        Role    `json:"role"`
}

// Point returns the node position as an orb.Point (lon, lat).
func (n Node) Point() orb.Point {
	return orb.Point{n.Lon, n.Lat}
}

// validate rejects coordinates the distance code cannot handle.
func (n Node) validate() error {
	if !geo.Finite(n.Point()) || math.Abs(n.Lat) > 90 || math.Abs(n.Lon) > 180 {
		return fmt.Errorf("%w: node %d at (%v, %v)", ErrBadCoordinate, n.ID, n.Lat, n.Lon)
	}
	return nil
}

// RoadClass is the ordinal road category of an edge, from motorway down.
type RoadClass int

const (
	// ClassUnknown is used when the map provider gives no usable class.
	ClassUnknown RoadClass = iota
	ClassMotorway
	ClassTrunk
	ClassPrimary
	ClassSecondary
	ClassTertiary
	ClassResidential
	ClassUnclassified
)

// defaultDurability is the durability of classes without a table entry.
const defaultDurability = 0.5

var roadClasses = [...]struct {
	name       string
	durability float64
}{
	ClassUnknown:      {"unknown", defaultDurability},
	ClassMotorway:     {"motorway", 1.0},
	ClassTrunk:        {"trunk", 0.9},
	ClassPrimary:      {"primary", 0.8},
	ClassSecondary:    {"secondary", 0.7},
	ClassTertiary:     {"tertiary", 0.6},
	ClassResidential:  {"residential", 0.4},
	ClassUnclassified: {"unclassified", 0.3},
}

// String returns the OSM highway tag for the class.
func (c RoadClass) String() string {
	if c < 0 || int(c) >= len(roadClasses) {
		return roadClasses[ClassUnknown].name
	}
	return roadClasses[c].name
}

// Durability returns the fixed durability score in [0,1]. The lookup is
// total: anything outside the table scores 0.5.
func (c RoadClass) Durability() float64 {
	if c < 0 || int(c) >= len(roadClasses) {
		return defaultDurability
	}
	return roadClasses[c].durability
}

// ParseRoadClass maps an OSM highway tag to a RoadClass. "_link" suffixes
// fold into their parent class; unknown tags yield ClassUnknown.
func ParseRoadClass(tag string) RoadClass {
	tag = strings.TrimSuffix(strings.ToLower(strings.TrimSpace(tag)), "_link")
	for i, rc := range roadClasses {
		if rc.name == tag {
			return RoadClass(i)
		}
	}
	return ClassUnknown
}

// MarshalText implements encoding.TextMarshaler.
func (c RoadClass) MarshalText() ([]byte, error) { return []byte(c.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *RoadClass) UnmarshalText(b []byte) error {
	*c = ParseRoadClass(string(b))
	return nil
}

// Edge is a directed road segment. Key disambiguates parallel edges that
// share the same (From, To) pair.
type Edge struct {
	From     NodeID    `json:"from"`
	To       NodeID    `json:"to"`
	Key      int       `json:"key"`
	LengthM  float64   `json:"length_m"`
	Class    RoadClass `json:"road_class"`
	IsBridge bool      `json:"is_bridge"`
	Lanes    int       `json:"lanes"`
}

// ID returns the textual edge identifier "<from>_<to>_<key>".
func (e Edge) ID() string {
	return EdgeID(e.From, e.To, e.Key)
}

// EdgeID formats the textual identifier of the edge (from, to, key).
func EdgeID(from, to NodeID, key int) string {
	b := make([]byte, 0, 32)
	b = strconv.AppendInt(b, int64(from), 10)
	b = append(b, '_')
	b = strconv.AppendInt(b, int64(to), 10)
	b = append(b, '_')
	b = strconv.AppendInt(b, int64(key), 10)
	return string(b)
}

// ParseEdgeID splits "<from>_<to>_<key>" back into its parts.
// Negative node IDs are accepted ("-5_7_0").
func ParseEdgeID(id string) (from, to NodeID, key int, err error) {
	parts := strings.Split(id, "_")
	if len(parts) != 3 {
		return 0, 0, 0, fmt.Errorf("%w: %q", ErrBadEdgeID, id)
	}
	f, err1 := strconv.ParseInt(parts[0], 10, 64)
	t, err2 := strconv.ParseInt(parts[1], 10, 64)
	k, err3 := strconv.Atoi(parts[2])
	if err1 != nil || err2 != nil || err3 != nil || k < 0 {
		return 0, 0, 0, fmt.Errorf("%w: %q", ErrBadEdgeID, id)
	}
	return NodeID(f), NodeID(t), k, nil
}

// DamageMap maps edge IDs to damage scores in [0,1]. Missing edges score 0.
type DamageMap map[string]float64

// Get returns the damage of edgeID, or 0 when absent. A nil map is empty.
func (m DamageMap) Get(edgeID string) float64 {
	return m[edgeID]
}

// Validate checks every score is a finite number in [0,1].
func (m DamageMap) Validate() error {
	for id, v := range m {
		if math.IsNaN(v) || v < 0 || v > 1 {
			return fmt.Errorf("%w: %s=%v", ErrDamageOutOfRange, id, v)
		}
	}
	return nil
}

// Clone returns an independent copy.
func (m DamageMap) Clone() DamageMap {
	out := make(DamageMap, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Clamp01 bounds v to [0,1].
func Clamp01(v float64) float64 {
	return math.Min(1, math.Max(0, v))
}
