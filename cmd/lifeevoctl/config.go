package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"math"
	"os"
	"strings"

	lifeapi "lifeevo/pkg/lifeevo"
)

// loadRunRequestFromConfig overlays a JSON run config on the defaults. Keys
// are snake_case; unknown keys are ignored, while known keys holding a value
// of the wrong kind are reported.
func loadRunRequestFromConfig(path string) (lifeapi.RunRequest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return lifeapi.RunRequest{}, err
	}
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return lifeapi.RunRequest{}, err
	}

	req := lifeapi.DefaultRunRequest()
	strict := !req.Lenient
	grid, gridErr := section(raw, "grid")
	seed, seedErr := section(raw, "seed_window")
	err = errors.Join(
		gridErr,
		decodeField(grid, "grid.width", asInt, &req.GridWidth),
		decodeField(grid, "grid.height", asInt, &req.GridHeight),
		decodeField(grid, "grid.toroidal", asBool, &req.Toroidal),
		seedErr,
		decodeField(seed, "seed_window.width", asInt, &req.SeedWidth),
		decodeField(seed, "seed_window.height", asInt, &req.SeedHeight),
		decodeField(raw, "population", asInt, &req.Population),
		decodeField(raw, "generations", asInt, &req.Generations),
		decodeField(raw, "best_promotion_count", asInt, &req.BestPromotionCount),
		decodeField(raw, "new_variance_count", asInt, &req.NewVarianceCount),
		decodeField(raw, "mutation_chance", asFloat64, &req.MutationChance),
		decodeField(raw, "living_chance", asFloat64, &req.LivingChance),
		decodeField(raw, "max_steps", asInt, &req.MaxSteps),
		decodeField(raw, "strict", asBool, &strict),
		decodeField(raw, "fitness", asString, &req.Fitness),
		decodeField(raw, "selection", asString, &req.Selection),
		decodeField(raw, "fitness_postprocessor", asString, &req.Postprocessor),
		decodeField(raw, "parents", asInt, &req.Parents),
		decodeField(raw, "workers", asInt, &req.Workers),
		decodeField(raw, "seed", asUint64, &req.Seed),
	)
	if err != nil {
		return lifeapi.RunRequest{}, err
	}
	req.Lenient = !strict
	return req, nil
}

func section(raw map[string]any, key string) (map[string]any, error) {
	v, ok := raw[key]
	if !ok {
		return nil, nil
	}
	m, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%s: expected an object, got %v", key, v)
	}
	return m, nil
}

// decodeField stores the value under the last segment of path in dst when
// the key is present.
func decodeField[T any](raw map[string]any, path string, parse func(any) (T, bool), dst *T) error {
	key := path
	if i := strings.LastIndexByte(path, '.'); i >= 0 {
		key = path[i+1:]
	}
	v, ok := raw[key]
	if !ok {
		return nil
	}
	parsed, ok := parse(v)
	if !ok {
		return fmt.Errorf("%s: unexpected value %v", path, v)
	}
	*dst = parsed
	return nil
}

func asString(v any) (string, bool) {
	s, ok := v.(string)
	return s, ok
}

func asBool(v any) (bool, bool) {
	b, ok := v.(bool)
	return b, ok
}

func asInt(v any) (int, bool) {
	switch x := v.(type) {
	case int:
		return x, true
	case float64:
		if x != math.Trunc(x) || x < math.MinInt || x > math.MaxInt {
			return 0, false
		}
		return int(x), true
	default:
		return 0, false
	}
}

func asUint64(v any) (uint64, bool) {
	switch x := v.(type) {
	case uint64:
		return x, true
	case int:
		if x < 0 {
			return 0, false
		}
		return uint64(x), true
	case float64:
		if x < 0 || x != math.Trunc(x) || x > math.MaxUint64 {
			return 0, false
		}
		return uint64(x), true
	default:
		return 0, false
	}
}

func asFloat64(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case int:
		return float64(x), true
	default:
		return 0, false
	}
}

// overrideFromFlags applies every explicitly set run flag on top of req.
func overrideFromFlags(req *lifeapi.RunRequest, fs *flag.FlagSet) {
	fs.Visit(func(f *flag.Flag) {
		getter, ok := f.Value.(flag.Getter)
		if !ok {
			return
		}
		v := getter.Get()
		switch f.Name {
		case "width":
			req.GridWidth = v.(int)
		case "height":
			req.GridHeight = v.(int)
		case "toroidal":
			req.Toroidal = v.(bool)
		case "seed-width":
			req.SeedWidth = v.(int)
		case "seed-height":
			req.SeedHeight = v.(int)
		case "pop":
			req.Population = v.(int)
		case "gens":
			req.Generations = v.(int)
		case "elites":
			req.BestPromotionCount = v.(int)
		case "variance":
			req.NewVarianceCount = v.(int)
		case "mutation":
			req.MutationChance = v.(float64)
		case "living":
			req.LivingChance = v.(float64)
		case "max-steps":
			req.MaxSteps = v.(int)
		case "strict":
			req.Lenient = !v.(bool)
		case "fitness":
			req.Fitness = v.(string)
		case "selection":
			req.Selection = v.(string)
		case "fitness-postprocessor":
			req.Postprocessor = v.(string)
		case "parents":
			req.Parents = v.(int)
		case "workers":
			req.Workers = v.(int)
		case "seed":
			req.Seed = v.(uint64)
		}
	})
}

func loadOrDefaultRunRequest(configPath string) (lifeapi.RunRequest, error) {
	if configPath == "" {
		return lifeapi.DefaultRunRequest(), nil
	}
	req, err := loadRunRequestFromConfig(configPath)
	if err != nil {
		return lifeapi.RunRequest{}, fmt.Errorf("load config: %w", err)
	}
	return req, nil
}
