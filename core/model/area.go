package model

import "fmt"

// AreaKind distinguishes the two kinds of production area.
type AreaKind string

const (
	// AreaPreparation areas anchor their work to a fixed start time.
	AreaPreparation AreaKind = "preparation"
	// AreaFilling areas anchor their work to a fixed end time.
	AreaFilling AreaKind = "filling"
)

func (k AreaKind) String() string { return string(k) }

// Valid reports whether k is a known area kind.
func (k AreaKind) Valid() bool {
	return k == AreaPreparation || k == AreaFilling
}

// ProductionArea is a physical zone of the plant. Preparation areas may
// carry a fixed StartTime and filling areas a fixed EndTime ("HH:MM").
type ProductionArea struct {
	ID        string   `json:"id" yaml:"id"`
	Name      string   `json:"name" yaml:"name"`
	Kind      AreaKind `json:"kind" yaml:"kind"`
	StartTime string   `json:"start_time,omitempty" yaml:"start_time,omitempty"`
	EndTime   string   `json:"end_time,omitempty" yaml:"end_time,omitempty"`
}

// Validate checks the area kind.
func (a ProductionArea) Validate() error {
	if !a.Kind.Valid() {
		return fmt.Errorf("area %s: unknown kind %q", a.ID, a.Kind)
	}
	return nil
}
