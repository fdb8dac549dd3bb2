// Package scenarios runs end-to-end solve plans described in YAML files.
package scenarios

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/IRENA-FlexTool/FlexTool/core/model"
	"github.com/IRENA-FlexTool/FlexTool/core/timeline"
)

// TimelineDef generates Steps steps named t0001, t0002, ... of equal
// duration.
type TimelineDef struct {
	Name     string  `yaml:"name"`
	Steps    int     `yaml:"steps"`
	Duration float64 `yaml:"duration"`
}

func (d TimelineDef) ToModel() model.Timeline {
	dur := d.Duration
	if dur == 0 {
		dur = 1
	}
	tl := model.Timeline{Name: d.Name}
	for i := 1; i <= d.Steps; i++ {
		tl.Steps = append(tl.Steps, model.Step{ID: StepID(i), Duration: dur})
	}
	return tl
}

// StepID is the name of the i-th generated step, starting at 1.
func StepID(i int) string { return fmt.Sprintf("t%04d", i) }

type TimeblockDef struct {
	Name     string        `yaml:"name"`
	Timeline string        `yaml:"timeline"`
	Blocks   []model.Block `yaml:"blocks"`
}

type SolveDef struct {
	Name     string                `yaml:"name"`
	Mode     string                `yaml:"mode"`
	Periods  []model.PeriodBinding `yaml:"periods"`
	Includes []string              `yaml:"includes,omitempty"`
	Jump     float64               `yaml:"jump,omitempty"`
	Horizon  float64               `yaml:"horizon,omitempty"`
	Duration float64               `yaml:"duration,omitempty"`
	Start    string                `yaml:"start,omitempty"`
	Solver   string                `yaml:"solver,omitempty"`
	Realized []string              `yaml:"realized,omitempty"`
	Years    map[string]float64    `yaml:"years,omitempty"`
}

type InstanceDef struct {
	Name     string   `yaml:"name"`
	Parent   string   `yaml:"parent"`
	Active   []string `yaml:"active"`
	Realized []string `yaml:"realized"`
}

type Expected struct {
	Instances []InstanceDef `yaml:"instances"`
	// Executed counts the instances run before the first failure.
	Executed int  `yaml:"executed"`
	Failed   bool `yaml:"failed"`
	// History maps a solve to the periods of its period history.
	History map[string][]string `yaml:"history,omitempty"`
}

type Scenario struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description,omitempty"`
	Timelines   []TimelineDef  `yaml:"timelines"`
	Timeblocks  []TimeblockDef `yaml:"timeblocks"`
	Solves      []SolveDef     `yaml:"solves"`
	Model       []string       `yaml:"model"`
	// FailOn names the instance whose solve reports infeasibility.
	FailOn   string   `yaml:"fail_on,omitempty"`
	Expected Expected `yaml:"expected"`
}

// Load reads a scenario file.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, err
	}
	if sc.Name == "" {
		return nil, fmt.Errorf("%s: scenario without name", path)
	}
	return &sc, nil
}

// Registry builds the timeline registry of the scenario.
func (sc *Scenario) Registry() (*timeline.Registry, error) {
	var tls []model.Timeline
	for _, d := range sc.Timelines {
		tls = append(tls, d.ToModel())
	}
	var tbs []model.Timeblock
	bindings := map[string]string{}
	for _, d := range sc.Timeblocks {
		tbs = append(tbs, model.Timeblock{Name: d.Name, Blocks: d.Blocks})
		bindings[d.Name] = d.Timeline
	}
	return timeline.NewRegistry(tls, tbs, bindings)
}

// Catalog builds the solve catalog of the scenario.
func (sc *Scenario) Catalog() *model.Catalog {
	cat := model.NewCatalog()
	for _, d := range sc.Solves {
		s := cat.Ensure(d.Name)
		if d.Mode != "" {
			s.Mode = model.Mode(d.Mode)
		}
		s.Bindings = d.Periods
		s.Rolling = model.RollingTimes{Start: d.Start, Jump: d.Jump, Horizon: d.Horizon, Duration: d.Duration}
		s.Solver.Solver = d.Solver
		s.RealizedPeriods = d.Realized
		for _, p := range d.Periods {
			if y, ok := d.Years[p.Period]; ok {
				s.YearsRepresented = append(s.YearsRepresented, model.PeriodYears{Period: p.Period, Years: y})
			}
		}
		for _, inc := range d.Includes {
			cat.AddInclude(d.Name, inc)
		}
	}
	cat.Models = []model.Model{{Name: sc.Name, Solves: sc.Model}}
	return cat
}
