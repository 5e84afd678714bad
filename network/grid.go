// SPDX-License-Identifier: MIT
//
// grid.go  rows×cols demo road network.
//
// Canonical model:
//   • Orthogonal grid with 4-neighbourhood; every link is emitted in both
//     directions (two directed edges, key 0).
//   • Node IDs are row-major: id = r*cols + c, starting at 0.
//   • Row r lies at origin latitude + r·Δlat, column c at origin
//     longitude + c·Δlon, where Δ is derived from SpacingM so that adjacent
//     nodes are SpacingM apart on the ground.
//   • Horizontal links are secondary roads (2 lanes), vertical links are
//     residential (1 lane); the vertical link leaving the centre cell
//     downward is a bridge.
//
// Determinism:
//   • Stable node order (row-major) and edge order (for each cell: Right,
//     then Down; forward arc before reverse arc).
//   • Edge lengths are SpacingM unless WithLengthRange is set, in which case
//     they are drawn from the configured *rand.Rand (reproducible per seed).

package network

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/tariktoplu/Opti-LogistiX/geo"
)

// Grid defaults (no magic literals at call sites).
const (
	defaultGridLat      = 41.0
	defaultGridLon      = 29.0
	defaultGridSpacingM = 300.0
	minGridDim          = 1
	gridStreetCount     = 4
)

// gridConfig aggregates the knobs of Grid.
type gridConfig struct {
	originLat, originLon float64
	spacingM             float64
	minLen, maxLen       float64
	rng                  *rand.Rand
	bridge               bool
}

// GridOption customizes Grid.
type GridOption func(*gridConfig)

// WithOrigin sets the coordinate of node 0.
func WithOrigin(lat, lon float64) GridOption {
	return func(c *gridConfig) { c.originLat, c.originLon = lat, lon }
}

// WithSpacing sets the ground distance between adjacent nodes in metres.
// Non-positive values are ignored.
func WithSpacing(m float64) GridOption {
	return func(c *gridConfig) {
		if m > 0 {
			c.spacingM = m
		}
	}
}

// WithLengthRange draws each link length uniformly from [minM, maxM) using
// rng (the demo network uses 200–500 m). A* stays optimal only while every
// length is at least the node spacing, so keep minM ≥ spacing for such checks.
func WithLengthRange(minM, maxM float64, rng *rand.Rand) GridOption {
	return func(c *gridConfig) {
		if minM > 0 && maxM > minM && rng != nil {
			c.minLen, c.maxLen, c.rng = minM, maxM, rng
		}
	}
}

// WithoutBridge suppresses the centre bridge.
func WithoutBridge() GridOption {
	return func(c *gridConfig) { c.bridge = false }
}

// Grid builds a rows×cols road grid.
//
// Contract:
//   - rows ≥ 1 and cols ≥ 1.
//   - Returns the network with (rows·cols) nodes and
//     2·(rows·(cols−1) + cols·(rows−1)) directed edges.
func Grid(rows, cols int, opts ...GridOption) (*Network, error) {
	if rows < minGridDim || cols < minGridDim {
		return nil, fmt.Errorf("network: grid %dx%d (each must be ≥ %d): %w",
			rows, cols, minGridDim, ErrEmptyNetwork)
	}
	cfg := gridConfig{
		originLat: defaultGridLat,
		originLon: defaultGridLon,
		spacingM:  defaultGridSpacingM,
		bridge:    true,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	// Degrees per metre on the 6371 km sphere.
	dLat := cfg.spacingM / 1000 / geo.EarthRadiusKm * 180 / math.Pi
	dLon := dLat / math.Cos(cfg.originLat*math.Pi/180)

	n := New()
	id := func(r, c int) NodeID { return NodeID(r*cols + c) }

	// 1) Nodes in row-major order.
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			node := Node{
				ID:          id(r, c),
				Lat:         cfg.originLat + float64(r)*dLat,
				Lon:         cfg.originLon + float64(c)*dLon,
				StreetCount: gridStreetCount,
			}
			if err := n.AddNode(node); err != nil {
				return nil, err
			}
		}
	}

	length := func() float64 {
		if cfg.rng == nil {
			return cfg.spacingM
		}
		return cfg.minLen + cfg.rng.Float64()*(cfg.maxLen-cfg.minLen)
	}
	link := func(u, v NodeID, class RoadClass, lanes int, bridge bool) error {
		l := length()
		for _, e := range []Edge{
			{From: u, To: v, LengthM: l, Class: class, IsBridge: bridge, Lanes: lanes},
			{From: v, To: u, LengthM: l, Class: class, IsBridge: bridge, Lanes: lanes},
		} {
			if err := n.AddEdge(e); err != nil {
				return err
			}
		}
		return nil
	}

	// 2) Links: Right then Down for every cell.
	midR, midC := rows/2, cols/2
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			if c+1 < cols {
				if err := link(id(r, c), id(r, c+1), ClassSecondary, 2, false); err != nil {
					return nil, err
				}
			}
			if r+1 < rows {
				bridge := cfg.bridge && r == midR && c == midC
				if err := link(id(r, c), id(r+1, c), ClassResidential, 1, bridge); err != nil {
					return nil, err
				}
			}
		}
	}

	return n, nil
}
