package bodyshape

import (
	"fmt"
	"sort"
	"strings"
)

// Schema maps the landmark roles the classifier needs onto a pose model's index numbering.
type Schema struct {
	Name          string `json:"name" yaml:"name"`
	LeftShoulder  int    `json:"left_shoulder" yaml:"left_shoulder"`
	RightShoulder int    `json:"right_shoulder" yaml:"right_shoulder"`
	LeftHip       int    `json:"left_hip" yaml:"left_hip"`
	RightHip      int    `json:"right_hip" yaml:"right_hip"`
}

// BlazePose33 is the 33-point BlazePose topology.
var BlazePose33 = Schema{Name: "blazepose33", LeftShoulder: 11, RightShoulder: 12, LeftHip: 23, RightHip: 24}

// MoveNet17 is the 17-point COCO topology used by MoveNet and PoseNet.
var MoveNet17 = Schema{Name: "movenet17", LeftShoulder: 5, RightShoulder: 6, LeftHip: 11, RightHip: 12}

var builtinSchemas = map[string]Schema{
	BlazePose33.Name: BlazePose33,
	MoveNet17.Name:   MoveNet17,
}

// SchemaByName resolves a built-in schema.
func SchemaByName(name string) (Schema, error) {
	schema, ok := builtinSchemas[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return Schema{}, fmt.Errorf("unknown pose schema %q (known: %s)", name, strings.Join(SchemaNames(), ", "))
	}
	return schema, nil
}

// SchemaNames lists the built-in schema names in sorted order.
func SchemaNames() []string {
	names := make([]string, 0, len(builtinSchemas))
	for name := range builtinSchemas {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Indices returns the required landmark indices in the order
// left shoulder, right shoulder, left hip, right hip.
func (s Schema) Indices() []int {
	return []int{s.LeftShoulder, s.RightShoulder, s.LeftHip, s.RightHip}
}

// Validate rejects schemas with negative or duplicated indices.
func (s Schema) Validate() error {
	seen := make(map[int]bool, 4)
	for _, idx := range s.Indices() {
		if idx < 0 {
			return fmt.Errorf("schema %q: negative landmark index %d", s.Name, idx)
		}
		if seen[idx] {
			return fmt.Errorf("schema %q: landmark index %d used twice", s.Name, idx)
		}
		seen[idx] = true
	}
	return nil
}
