package particles

import (
	"fmt"

	pkgerrors "eternals-backend/pkg/errors"
)

// Params holds every tunable of the field. Distances are pixels, velocities
// pixels per tick.
type Params struct {
	NodeCount int `yaml:"node_count" json:"node_count"`

	RepulsionThreshold float64 `yaml:"repulsion_threshold" json:"repulsion_threshold"`
	RepulsionStrength  float64 `yaml:"repulsion_strength" json:"repulsion_strength"`

	OpacityStep  float64 `yaml:"opacity_step" json:"opacity_step"`
	OpacityDecay float64 `yaml:"opacity_decay" json:"opacity_decay"`
	MinOpacity   float64 `yaml:"min_opacity" json:"min_opacity"`

	Margin          float64 `yaml:"margin" json:"margin"`
	BounceDamping   float64 `yaml:"bounce_damping" json:"bounce_damping"`
	VelocityDamping float64 `yaml:"velocity_damping" json:"velocity_damping"`
	Jitter          float64 `yaml:"jitter" json:"jitter"`

	ConnectionThreshold float64 `yaml:"connection_threshold" json:"connection_threshold"`
	MaxEdgeOpacity      float64 `yaml:"max_edge_opacity" json:"max_edge_opacity"`

	GrabRadius   float64 `yaml:"grab_radius" json:"grab_radius"`
	InitialSpeed float64 `yaml:"initial_speed" json:"initial_speed"`
	ReleaseSpeed float64 `yaml:"release_speed" json:"release_speed"`
}

// DefaultParams returns the tuning used by the studio site background
func DefaultParams() Params {
	return Params{
		NodeCount:           12,
		RepulsionThreshold:  150,
		RepulsionStrength:   0.02,
		OpacityStep:         0.05,
		OpacityDecay:        0.02,
		MinOpacity:          0.3,
		Margin:              40,
		BounceDamping:       0.8,
		VelocityDamping:     0.99,
		Jitter:              0.02,
		ConnectionThreshold: 200,
		MaxEdgeOpacity:      0.4,
		GrabRadius:          50,
		InitialSpeed:        0.5,
		ReleaseSpeed:        0.5,
	}
}

// Validate rejects tunables the tick cannot honour
func (p Params) Validate() error {
	checks := []struct {
		ok    bool
		field string
		msg   string
	}{
		{p.NodeCount >= 0, "node_count", "must not be negative"},
		{p.RepulsionThreshold >= 0, "repulsion_threshold", "must not be negative"},
		{p.RepulsionStrength >= 0, "repulsion_strength", "must not be negative"},
		{p.OpacityStep >= 0, "opacity_step", "must not be negative"},
		{p.OpacityDecay >= 0, "opacity_decay", "must not be negative"},
		{p.MinOpacity >= 0 && p.MinOpacity <= 1, "min_opacity", "must be within [0, 1]"},
		{p.Margin >= 0, "margin", "must not be negative"},
		{p.BounceDamping >= 0 && p.BounceDamping <= 1, "bounce_damping", "must be within [0, 1]"},
		{p.VelocityDamping > 0 && p.VelocityDamping < 1, "velocity_damping", "must be within (0, 1)"},
		{p.Jitter >= 0, "jitter", "must not be negative"},
		{p.ConnectionThreshold > 0, "connection_threshold", "must be positive"},
		{p.MaxEdgeOpacity >= 0 && p.MaxEdgeOpacity <= 1, "max_edge_opacity", "must be within [0, 1]"},
		{p.GrabRadius >= 0, "grab_radius", "must not be negative"},
		{p.InitialSpeed >= 0, "initial_speed", "must not be negative"},
		{p.ReleaseSpeed >= 0, "release_speed", "must not be negative"},
	}

	for _, c := range checks {
		if !c.ok {
			return pkgerrors.NewValidationError(fmt.Sprintf("particle %s %s", c.field, c.msg)).
				WithDetail("field", c.field)
		}
	}
	return nil
}
