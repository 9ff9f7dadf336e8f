// Package data loads the authored combat tables (element definitions,
// affinity matrix seed, composite rules, environment profiles) from YAML
// files. The combat core itself only consumes the parsed tables; missing
// files degrade to built-in defaults rather than failing startup.
package data

import (
	"fmt"
	"log/slog"
	"math"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/ashfall/elementum/internal/combat"
	"github.com/ashfall/elementum/internal/element"
)

type elementsFile struct {
	Elements []struct {
		Name   string `yaml:"name"`
		Status string `yaml:"status"`
	} `yaml:"elements"`
}

type affinitiesFile struct {
	Affinities []struct {
		Attack     string  `yaml:"attack"`
		Defense    string  `yaml:"defense"`
		Multiplier float64 `yaml:"multiplier"`
	} `yaml:"affinities"`
}

type rulesFile struct {
	Rules []struct {
		Name       string             `yaml:"name"`
		Requires   []string           `yaml:"requires"`
		MinPower   float64            `yaml:"min_power"`
		Method     string             `yaml:"method"`
		Weights    map[string]float64 `yaml:"weights"`
		Curve      string             `yaml:"curve"`
		Multiplier float64            `yaml:"multiplier"`
		Result     string             `yaml:"result"`
	} `yaml:"rules"`
}

type environmentsFile struct {
	Environments []struct {
		Name        string             `yaml:"name"`
		Multipliers map[string]float64 `yaml:"multipliers"`
		FlatBonuses map[string]float64 `yaml:"flat_bonuses"`
		Resistances map[string]float64 `yaml:"resistances"`
	} `yaml:"environments"`
}

// LoadElements reads element definitions into a registry.
// A missing file yields an empty registry (no status effects).
func LoadElements(path string) (*element.Registry, error) {
	reg := element.NewRegistry()

	var file elementsFile
	ok, err := read(path, &file)
	if err != nil || !ok {
		return reg, err
	}

	for _, def := range file.Elements {
		e, err := element.Parse(def.Name)
		if err != nil {
			return nil, fmt.Errorf("elements %s: %w", path, err)
		}
		reg.Register(element.Definition{Element: e, StatusEffect: def.Status})
	}
	slog.Info("loaded element definitions", "count", len(file.Elements))
	return reg, nil
}

// LoadAffinities reads the static affinity matrix seed.
func LoadAffinities(path string) ([]combat.AffinityEntry, error) {
	var file affinitiesFile
	ok, err := read(path, &file)
	if err != nil || !ok {
		return nil, err
	}

	entries := make([]combat.AffinityEntry, 0, len(file.Affinities))
	for _, a := range file.Affinities {
		atk, err := element.Parse(a.Attack)
		if err != nil {
			return nil, fmt.Errorf("affinities %s: %w", path, err)
		}
		def, err := element.Parse(a.Defense)
		if err != nil {
			return nil, fmt.Errorf("affinities %s: %w", path, err)
		}
		entries = append(entries, combat.AffinityEntry{Attack: atk, Defense: def, Multiplier: a.Multiplier})
	}
	slog.Info("loaded affinity matrix", "count", len(entries))
	return entries, nil
}

// LoadCompositeRules reads composite rules into a resolver.
// A missing file yields a resolver with no rules (no composition).
func LoadCompositeRules(path string) (*combat.CompositeResolver, error) {
	resolver := combat.NewCompositeResolver()

	var file rulesFile
	ok, err := read(path, &file)
	if err != nil || !ok {
		return resolver, err
	}

	for _, r := range file.Rules {
		rule := combat.CompositeRule{
			Name:            r.Name,
			MinTotalPower:   r.MinPower,
			PowerMultiplier: r.Multiplier,
		}
		for _, name := range r.Requires {
			e, err := element.Parse(name)
			if err != nil {
				return nil, fmt.Errorf("rules %s: %w", path, err)
			}
			rule.Required = append(rule.Required, e)
		}
		res, err := element.Parse(r.Result)
		if err != nil {
			return nil, fmt.Errorf("rules %s: %w", path, err)
		}
		rule.Result = res

		rule.Method, err = parseMethod(r.Method)
		if err != nil {
			return nil, fmt.Errorf("rules %s: %w", path, err)
		}
		if rule.Method == combat.CombineWeighted {
			rule.Weights, err = parseElementMap(r.Weights)
			if err != nil {
				return nil, fmt.Errorf("rules %s: %w", path, err)
			}
		}
		if rule.Method == combat.CombineCustomCurve {
			rule.Curve = curveByName(r.Curve)
		}

		resolver.AddRule(rule)
	}
	slog.Info("loaded composite rules", "count", len(file.Rules))
	return resolver, nil
}

// LoadEnvironments reads environment profiles keyed by name.
func LoadEnvironments(path string) (map[string]*combat.Environment, error) {
	envs := make(map[string]*combat.Environment)

	var file environmentsFile
	ok, err := read(path, &file)
	if err != nil || !ok {
		return envs, err
	}

	for _, e := range file.Environments {
		env := &combat.Environment{Name: e.Name}
		if env.Multipliers, err = parseElementMap(e.Multipliers); err != nil {
			return nil, fmt.Errorf("environments %s: %w", path, err)
		}
		if env.FlatBonuses, err = parseElementMap(e.FlatBonuses); err != nil {
			return nil, fmt.Errorf("environments %s: %w", path, err)
		}
		if env.Resistances, err = parseElementMap(e.Resistances); err != nil {
			return nil, fmt.Errorf("environments %s: %w", path, err)
		}
		envs[e.Name] = env
	}
	slog.Info("loaded environments", "count", len(envs))
	return envs, nil
}

// read unmarshals path into out. Returns false without error when the file
// does not exist.
func read(path string, out any) (bool, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			slog.Info("data file missing, using defaults", "path", path)
			return false, nil
		}
		return false, fmt.Errorf("reading %s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, out); err != nil {
		return false, fmt.Errorf("parsing %s: %w", path, err)
	}
	return true, nil
}

func parseMethod(name string) (combat.CombineMethod, error) {
	switch name {
	case "", "average":
		return combat.CombineAverage, nil
	case "highest":
		return combat.CombineHighest, nil
	case "lowest":
		return combat.CombineLowest, nil
	case "weighted":
		return combat.CombineWeighted, nil
	case "curve":
		return combat.CombineCustomCurve, nil
	default:
		return 0, fmt.Errorf("unknown combine method %q", name)
	}
}

func parseElementMap(in map[string]float64) (map[element.Element]float64, error) {
	if len(in) == 0 {
		return nil, nil
	}
	out := make(map[element.Element]float64, len(in))
	for name, v := range in {
		e, err := element.Parse(name)
		if err != nil {
			return nil, err
		}
		out[e] = v
	}
	return out, nil
}

// curveByName resolves a named monotonic curve over [0, 1].
// Unknown names fall back to identity.
func curveByName(name string) func(float64) float64 {
	switch name {
	case "quadratic":
		return func(x float64) float64 { return x * x }
	case "sqrt":
		return math.Sqrt
	default:
		return func(x float64) float64 { return x }
	}
}
