package data

import (
	"fmt"
	"os"

	"github.com/l1jgo/collision/internal/collision"
	"gopkg.in/yaml.v3"
)

type collisionMatrixFile struct {
	Rules []collision.Rule `yaml:"rules"`
}

// LoadCollisionMatrix loads the type-pair rules from collision_matrix.yaml.
// Unknown type names fail the whole load.
func LoadCollisionMatrix(path string) ([]collision.Rule, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read collision_matrix: %w", err)
	}
	var f collisionMatrixFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse collision_matrix: %w", err)
	}
	return f.Rules, nil
}
