package config

import (
	"fmt"

	"github.com/IRENA-FlexTool/FlexTool/infra/postprocess"
)

// PostprocessConfig controls the per-period aggregation run after plans with
// a rolling solve.
type PostprocessConfig struct {
	Enabled *bool               `json:"enabled"`
	Groups  []postprocess.Group `json:"groups"`
}

// SetDefaults enables post-processing with the default groups.
func (c *PostprocessConfig) SetDefaults() {
	if c.Enabled == nil {
		on := true
		c.Enabled = &on
	}
	if len(c.Groups) == 0 {
		c.Groups = postprocess.DefaultGroups()
	}
}

// IsEnabled reports whether post-processing runs.
func (c PostprocessConfig) IsEnabled() bool { return c.Enabled == nil || *c.Enabled }

// Validate checks every group.
func (c PostprocessConfig) Validate() error {
	seen := map[string]bool{}
	for _, g := range c.Groups {
		if err := g.Validate(); err != nil {
			return err
		}
		if seen[g.Key] {
			return fmt.Errorf("postprocess group %s declared twice", g.Key)
		}
		seen[g.Key] = true
	}
	return nil
}
