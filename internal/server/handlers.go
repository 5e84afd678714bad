package server

import (
	"errors"
	"fmt"
	"math"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"go.uber.org/zap"

	"github.com/tariktoplu/Opti-LogistiX/damage"
	"github.com/tariktoplu/Opti-LogistiX/episode"
	"github.com/tariktoplu/Opti-LogistiX/network"
	"github.com/tariktoplu/Opti-LogistiX/routing"
	"github.com/tariktoplu/Opti-LogistiX/scenario"
)

// Coordinates is a request position.
type Coordinates struct {
	Lat float64 `json:"lat" binding:"gte=-90,lte=90"`
	Lon float64 `json:"lon" binding:"gte=-180,lte=180"`
}

// RouteRequest is the body of POST /api/v1/route.
type RouteRequest struct {
	Start       Coordinates `json:"start"`
	End         Coordinates `json:"end"`
	VehicleType string      `json:"vehicle_type"`
	Urgency     *float64    `json:"urgency" binding:"omitempty,gte=0,lte=1"`
	Method      string      `json:"method"`
}

// RouteResponse is the reply of POST /api/v1/route.
type RouteResponse struct {
	Success      bool             `json:"success"`
	Route        *routing.Route   `json:"route,omitempty"`
	Alternatives []*routing.Route `json:"alternatives"`
	Message      string           `json:"message"`
}

// ScenarioRequest is the body of POST /api/v1/scenarios/activate.
type ScenarioRequest struct {
	Magnitude  float64      `json:"magnitude" binding:"required,gte=4,lte=9"`
	Epicenter  *Coordinates `json:"epicenter"`
	ScenarioID string       `json:"scenario_id"`
}

const (
	defaultUrgency = 0.5
	defaultVehicle = "ambulance"
)

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":          "healthy",
		"nodes":           s.net.NodeCount(),
		"edges":           s.net.EdgeCount(),
		"scenario_active": s.Current() != nil,
		"policy_loaded":   s.policy != nil,
	})
}

// engine builds a per-request routing engine for vehicle.
func (s *Server) engine(vehicle string) (*routing.Engine, error) {
	model, err := s.cfg.CostModel(vehicle)
	if err != nil {
		return nil, err
	}
	ec := s.cfg.Episode
	ec.SpeedKmh = model.SpeedKmh
	opts := []routing.Option{
		routing.WithCostModel(model),
		routing.WithLogger(s.logger),
		routing.WithEpisodeOptions(episode.WithConfig(ec)),
	}
	if s.policy != nil {
		opts = append(opts, routing.WithPolicy(s.policy))
	}
	return routing.New(s.net, opts...)
}

func (s *Server) handleRoute(c *gin.Context) {
	var req RouteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.VehicleType == "" {
		req.VehicleType = defaultVehicle
	}
	if req.Method == "" {
		req.Method = routing.AStar.String()
	}
	urgency := defaultUrgency
	if req.Urgency != nil {
		urgency = *req.Urgency
	}

	method, err := routing.ParseMethod(req.Method)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	start, goal, ok := s.resolve(c, req.Start, req.End)
	if !ok {
		return
	}
	if start == goal {
		c.JSON(http.StatusBadRequest, RouteResponse{Message: "start and end resolve to the same intersection"})
		return
	}

	eng, err := s.engine(req.VehicleType)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	route, alts, err := eng.FindRouteWithAlternatives(c.Request.Context(), start, goal, method, urgency)
	if errors.Is(err, routing.ErrNoPath) {
		c.JSON(http.StatusNotFound, RouteResponse{Message: "no route found"})
		return
	}
	if errors.Is(err, routing.ErrBadUrgency) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		s.logger.Error("route failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, RouteResponse{Success: true, Route: route, Alternatives: alts, Message: "route computed"})
}

func (s *Server) handleCompare(c *gin.Context) {
	var q struct {
		StartLat float64 `form:"start_lat" binding:"gte=-90,lte=90"`
		StartLon float64 `form:"start_lon" binding:"gte=-180,lte=180"`
		EndLat   float64 `form:"end_lat" binding:"gte=-90,lte=90"`
		EndLon   float64 `form:"end_lon" binding:"gte=-180,lte=180"`
		Urgency  float64 `form:"urgency,default=0.5" binding:"gte=0,lte=1"`
	}
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	start, goal, ok := s.resolve(c, Coordinates{q.StartLat, q.StartLon}, Coordinates{q.EndLat, q.EndLon})
	if !ok {
		return
	}
	if start == goal {
		c.JSON(http.StatusBadRequest, gin.H{"error": "start and end resolve to the same intersection"})
		return
	}
	eng, err := s.engine(defaultVehicle)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	routes, err := eng.FindAllRoutes(c.Request.Context(), start, goal, q.Urgency)
	if errors.Is(err, routing.ErrNoPath) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	var optimal *routing.Route
	for _, r := range routes {
		if r.IsOptimal {
			optimal = r
		}
	}
	c.JSON(http.StatusOK, gin.H{"routes": routes, "optimal": optimal})
}

// resolve snaps both coordinates to their nearest intersections.
func (s *Server) resolve(c *gin.Context, a, b Coordinates) (network.NodeID, network.NodeID, bool) {
	for _, p := range []Coordinates{a, b} {
		if math.Abs(p.Lat) > 90 || math.Abs(p.Lon) > 180 {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("coordinate (%v, %v) out of range", p.Lat, p.Lon)})
			return 0, 0, false
		}
	}
	start, err := s.idx.NearestNode(a.Lat, a.Lon)
	if err == nil {
		var goal network.NodeID
		goal, err = s.idx.NearestNode(b.Lat, b.Lon)
		if err == nil {
			return start, goal, true
		}
	}
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	return 0, 0, false
}

type scenarioSummary struct {
	ID              string  `json:"id"`
	Type            string  `json:"type"`
	Magnitude       float64 `json:"magnitude"`
	AffectedRoads   int     `json:"affected_roads"`
	AffectedBridges int     `json:"affected_bridges"`
	DamageZones     int     `json:"damage_zones"`
}

func summarize(sc *scenario.Scenario) scenarioSummary {
	return scenarioSummary{
		ID:              sc.ID,
		Type:            sc.DisasterType,
		Magnitude:       sc.Magnitude,
		AffectedRoads:   sc.AffectedRoads,
		AffectedBridges: sc.AffectedBridges,
		DamageZones:     len(sc.DamageZones),
	}
}

func (s *Server) handleListScenarios(c *gin.Context) {
	all, err := s.gen.GeneratePresets(s.net)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	out := make([]scenarioSummary, len(all))
	for i, sc := range all {
		out[i] = summarize(sc)
	}
	resp := gin.H{"scenarios": out}
	if cur := s.Current(); cur != nil {
		resp["active"] = summarize(cur)
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleActivate(c *gin.Context) {
	var req ScenarioRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	var opts []scenario.GenerateOption
	if req.Epicenter != nil {
		opts = append(opts, scenario.WithEpicenter(req.Epicenter.Lat, req.Epicenter.Lon))
	}
	if req.ScenarioID != "" {
		opts = append(opts, scenario.WithScenarioID(req.ScenarioID))
	}
	sc, err := s.gen.Generate(s.net, req.Magnitude, opts...)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := s.Activate(sc); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "scenario": summarize(sc)})
}

// presetAliases maps friendly names to preset ID prefixes.
var presetAliases = map[string]string{
	"mild":     "S1",
	"moderate": "S2",
	"severe":   "S3",
}

func (s *Server) handlePreset(c *gin.Context) {
	name := strings.ToLower(c.Param("name"))
	prefix := name
	if p, ok := presetAliases[name]; ok {
		prefix = p
	}
	sc, err := s.gen.GeneratePreset(s.net, prefix)
	if errors.Is(err, scenario.ErrUnknownPreset) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": fmt.Sprintf("unknown preset %q; valid: mild, moderate, severe or %s",
				name, strings.Join(scenario.PresetIDs(), ", ")),
		})
		return
	}
	if err == nil {
		err = s.Activate(sc)
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":       true,
		"scenario_name": name,
		"scenario_id":   sc.ID,
		"magnitude":     sc.Magnitude,
	})
}

func (s *Server) handleClear(c *gin.Context) {
	s.Clear()
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "scenario cleared"})
}

func (s *Server) handleDamageMap(c *gin.Context) {
	sc := s.Current()
	if sc == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no active scenario"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"scenario_id": sc.ID,
		"geojson":     s.damageFeatures(sc),
		"zones":       damage.Aggregate(s.idx, sc.DamageZones, sc.EdgeDamages),
		"stats":       damageStats(sc.EdgeDamages),
	})
}

// damageFeatures renders damaged edges as LineStrings and the zones as
// Points carrying their radius.
func (s *Server) damageFeatures(sc *scenario.Scenario) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, e := range s.net.Edges() {
		d, ok := sc.EdgeDamages[e.ID()]
		if !ok {
			continue
		}
		from, err1 := s.net.Node(e.From)
		to, err2 := s.net.Node(e.To)
		if err1 != nil || err2 != nil {
			continue
		}
		f := geojson.NewFeature(orb.LineString{from.Point(), to.Point()})
		f.ID = e.ID()
		f.Properties["kind"] = "edge"
		f.Properties["damage"] = d
		f.Properties["level"] = damage.LevelFor(d).String()
		f.Properties["is_bridge"] = e.IsBridge
		fc.Append(f)
	}
	for _, z := range sc.DamageZones {
		f := geojson.NewFeature(orb.Point{z.CenterLon, z.CenterLat})
		f.ID = z.ID
		f.Properties["kind"] = "zone"
		f.Properties["radius_m"] = z.RadiusM
		f.Properties["level"] = z.Level.String()
		f.Properties["score"] = z.Score
		fc.Append(f)
	}
	return fc
}

// Thresholds used by the damage map statistics.
const (
	damagedAbove  = 0.3
	criticalAbove = 0.7
)

func damageStats(m network.DamageMap) gin.H {
	var damaged, critical int
	var sum, maxD float64
	for _, d := range m {
		if d > damagedAbove {
			damaged++
		}
		if d > criticalAbove {
			critical++
		}
		sum += d
		maxD = max(maxD, d)
	}
	avg := 0.0
	if len(m) > 0 {
		avg = sum / float64(len(m))
	}
	return gin.H{
		"total_edges":    len(m),
		"damaged_edges":  damaged,
		"critical_edges": critical,
		"avg_damage":     avg,
		"max_damage":     maxD,
	}
}

func (s *Server) handleStats(c *gin.Context) {
	st := s.net.Stats()
	resp := gin.H{"stats": st}
	if b, err := s.net.Bounds(); err == nil {
		resp["bounds"] = gin.H{
			"min_lat": b.Min.Lat(), "min_lon": b.Min.Lon(),
			"max_lat": b.Max.Lat(), "max_lon": b.Max.Lon(),
		}
	}
	c.JSON(http.StatusOK, resp)
}

type latLon struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

type graphNode struct {
	ID          network.NodeID `json:"id"`
	Lat         float64        `json:"lat"`
	Lon         float64        `json:"lon"`
	StreetCount int            `json:"street_count"`
	Role        network.Role   `json:"role"`
}

type graphEdge struct {
	ID        string  `json:"id"`
	From      latLon  `json:"from"`
	To        latLon  `json:"to"`
	LengthM   float64 `json:"length_m"`
	RoadScore float64 `json:"road_score"`
	IsBridge  bool    `json:"is_bridge"`
	Damage    float64 `json:"damage"`
}

func (s *Server) handleNodes(c *gin.Context) {
	nodes := s.net.Nodes()
	out := make([]graphNode, len(nodes))
	for i, n := range nodes {
		out[i] = graphNode{ID: n.ID, Lat: n.Lat, Lon: n.Lon, StreetCount: n.StreetCount, Role: n.Role}
	}
	c.JSON(http.StatusOK, gin.H{"nodes": out})
}

// handleEdges lists every edge with the damage of the installed map.
func (s *Server) handleEdges(c *gin.Context) {
	dm := s.net.DamageSnapshot()
	pos := make(map[network.NodeID]latLon, s.net.NodeCount())
	for _, n := range s.net.Nodes() {
		pos[n.ID] = latLon{n.Lat, n.Lon}
	}
	edges := s.net.Edges()
	out := make([]graphEdge, len(edges))
	for i, e := range edges {
		out[i] = graphEdge{
			ID:        e.ID(),
			From:      pos[e.From],
			To:        pos[e.To],
			LengthM:   e.LengthM,
			RoadScore: e.Class.Durability(),
			IsBridge:  e.IsBridge,
			Damage:    dm.Get(e.ID()),
		}
	}
	c.JSON(http.StatusOK, gin.H{"edges": out})
}
