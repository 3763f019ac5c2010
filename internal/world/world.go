// Package world holds the shared world-facing types: positions, entities and
// blocks as seen by behavior triggers and skills.
package world

import (
	"fmt"
	"math"
)

// Vec3 is a position or direction in world space. Block positions use
// integral coordinates by convention.
type Vec3 struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
	Z float64 `json:"z" yaml:"z"`
}

func (v Vec3) Add(o Vec3) Vec3 {
	return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z}
}

func (v Vec3) Sub(o Vec3) Vec3 {
	return Vec3{v.X - o.X, v.Y - o.Y, v.Z - o.Z}
}

func (v Vec3) Scale(f float64) Vec3 {
	return Vec3{v.X * f, v.Y * f, v.Z * f}
}

func (v Vec3) Len() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
}

// Dist returns the euclidean distance to o.
func (v Vec3) Dist(o Vec3) float64 {
	return v.Sub(o).Len()
}

// Norm returns the unit vector pointing the same way, or the zero vector.
func (v Vec3) Norm() Vec3 {
	l := v.Len()
	if l == 0 {
		return Vec3{}
	}
	return v.Scale(1 / l)
}

func (v Vec3) String() string {
	return fmt.Sprintf("(%.1f, %.1f, %.1f)", v.X, v.Y, v.Z)
}

// Entity is a mobile thing in the world: a creature or a dropped item.
// Dropped items use the "item/" kind prefix (e.g. "item/oak_log").
type Entity struct {
	ID      string  `json:"id" yaml:"id"`
	Kind    string  `json:"kind" yaml:"kind"`
	Pos     Vec3    `json:"pos" yaml:"position"`
	Health  float64 `json:"health,omitempty" yaml:"health,omitempty"`
	Hostile bool    `json:"hostile,omitempty" yaml:"hostile,omitempty"`
	Speed   float64 `json:"speed,omitempty" yaml:"speed,omitempty"`
}

// IsItem reports whether the entity is a dropped item.
func (e Entity) IsItem() bool {
	return len(e.Kind) > 5 && e.Kind[:5] == "item/"
}

// Block is a fixed cell in the world grid.
type Block struct {
	Kind  string `json:"kind" yaml:"kind"`
	Pos   Vec3   `json:"pos" yaml:"position"`
	Solid bool   `json:"solid,omitempty" yaml:"solid,omitempty"`
}
