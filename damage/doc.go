// Package damage scores how badly an earthquake hurts each road segment.
//
// A Predictor maps (network, epicenter, magnitude) to a network.DamageMap of
// scores in [0,1]. The in-core Model is rule based:
//
//	damage = clamp(base × falloff(d) × bridge × (1 − durability × 0.3))
//
// where d is the great-circle distance in kilometres from the epicenter to
// the edge midpoint and durability comes from the edge's road class.
//
// Two calibrations exist and are kept apart on purpose:
//
//   - RuleBased(): falloff 1/(1+d), bridge ×1.5, base = magnitude/10.
//     Used for direct prediction.
//   - ScenarioModel(): falloff 1/(1+(d/2)²), bridge ×2.0. Used by the
//     scenario generator together with its magnitude lookup table.
//
// They produce different affected-road counts and must not be merged.
//
// The package also carries the presentation overlay of a scenario: Level,
// Zone and the Aggregate helper that summarises a damage map per zone.
//
// Scoring is pure and deterministic; randomness lives in package scenario.
package damage
