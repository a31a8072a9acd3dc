// Package config loads engine and service settings. Engine settings come
// from an embedded YAML file, optionally overlaid by a user file and then by
// PHYSBENCH_* environment variables.
package config

import (
	_ "embed"
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/milk9111/physbench/physics"
)

//go:embed defaults.yaml
var defaultsYAML []byte

type PhysicsSpec struct {
	Gravity        float64 `yaml:"gravity"`
	Density        float64 `yaml:"density"`
	Friction       float64 `yaml:"friction"`
	Restitution    float64 `yaml:"restitution"`
	AngularDamping float64 `yaml:"angular_damping"`
	LinearDamping  float64 `yaml:"linear_damping"`
	Iterations     int     `yaml:"iterations"`
}

type SimulationSpec struct {
	MaxSteps int `yaml:"max_steps"`
	Stride   int `yaml:"stride"`
}

type UserInputSpec struct {
	KeepSpaceMargin float64 `yaml:"keep_space_margin"`
}

type Engine struct {
	Physics    PhysicsSpec    `yaml:"physics"`
	Simulation SimulationSpec `yaml:"simulation"`
	UserInput  UserInputSpec  `yaml:"user_input"`
}

func Defaults() Engine {
	var e Engine
	if err := yaml.Unmarshal(defaultsYAML, &e); err != nil {
		panic(fmt.Sprintf("config: embedded defaults: %v", err))
	}
	return e
}

// Load reads path over the defaults and then applies the environment. An
// empty path skips the file.
func Load(path string) (Engine, error) {
	e := Defaults()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Engine{}, fmt.Errorf("config: load %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &e); err != nil {
			return Engine{}, fmt.Errorf("config: unmarshal %s: %w", path, err)
		}
	}
	if err := e.FromEnv(); err != nil {
		return Engine{}, err
	}
	if err := e.Validate(); err != nil {
		return Engine{}, err
	}
	return e, nil
}

// FromEnv overlays PHYSBENCH_GRAVITY, PHYSBENCH_DENSITY, PHYSBENCH_FRICTION,
// PHYSBENCH_RESTITUTION, PHYSBENCH_ANGULAR_DAMPING, PHYSBENCH_LINEAR_DAMPING,
// PHYSBENCH_ITERATIONS, PHYSBENCH_MAX_STEPS, PHYSBENCH_STRIDE and
// PHYSBENCH_KEEP_SPACE_MARGIN.
func (e *Engine) FromEnv() error {
	floats := []struct {
		key string
		dst *float64
	}{
		{"PHYSBENCH_GRAVITY", &e.Physics.Gravity},
		{"PHYSBENCH_DENSITY", &e.Physics.Density},
		{"PHYSBENCH_FRICTION", &e.Physics.Friction},
		{"PHYSBENCH_RESTITUTION", &e.Physics.Restitution},
		{"PHYSBENCH_ANGULAR_DAMPING", &e.Physics.AngularDamping},
		{"PHYSBENCH_LINEAR_DAMPING", &e.Physics.LinearDamping},
		{"PHYSBENCH_KEEP_SPACE_MARGIN", &e.UserInput.KeepSpaceMargin},
	}
	for _, f := range floats {
		v, ok := os.LookupEnv(f.key)
		if !ok {
			continue
		}
		parsed, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("config: %s: %w", f.key, err)
		}
		*f.dst = parsed
	}
	ints := []struct {
		key string
		dst *int
	}{
		{"PHYSBENCH_ITERATIONS", &e.Physics.Iterations},
		{"PHYSBENCH_MAX_STEPS", &e.Simulation.MaxSteps},
		{"PHYSBENCH_STRIDE", &e.Simulation.Stride},
	}
	for _, f := range ints {
		v, ok := os.LookupEnv(f.key)
		if !ok {
			continue
		}
		parsed, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("config: %s: %w", f.key, err)
		}
		*f.dst = parsed
	}
	return nil
}

func (e Engine) Validate() error {
	switch {
	case e.Physics.Iterations <= 0:
		return fmt.Errorf("config: physics.iterations must be positive, got %d", e.Physics.Iterations)
	case e.Physics.Density <= 0:
		return fmt.Errorf("config: physics.density must be positive, got %v", e.Physics.Density)
	case e.Simulation.MaxSteps < 0:
		return fmt.Errorf("config: simulation.max_steps must not be negative, got %d", e.Simulation.MaxSteps)
	case e.Simulation.Stride < 0:
		return fmt.Errorf("config: simulation.stride must not be negative, got %d", e.Simulation.Stride)
	case e.UserInput.KeepSpaceMargin < 0:
		return fmt.Errorf("config: user_input.keep_space_margin must not be negative, got %v", e.UserInput.KeepSpaceMargin)
	}
	return nil
}

func (e Engine) Params() physics.Params {
	p := e.Physics
	return physics.Params{
		Gravity:        p.Gravity,
		Density:        p.Density,
		Friction:       p.Friction,
		Restitution:    p.Restitution,
		AngularDamping: p.AngularDamping,
		LinearDamping:  p.LinearDamping,
		Iterations:     p.Iterations,
	}
}
