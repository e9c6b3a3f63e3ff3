package lifeevo

import (
	"lifeevo/internal/automaton"
	"lifeevo/internal/evo"
	"lifeevo/internal/model"
)

func (req RunRequest) geometry() (automaton.Shape, automaton.Window) {
	shape := automaton.Shape{Width: req.GridWidth, Height: req.GridHeight, Toroidal: req.Toroidal}
	if req.SeedWidth <= 0 || req.SeedHeight <= 0 {
		return shape, automaton.FullWindow(shape)
	}
	return shape, automaton.CenteredWindow(shape, req.SeedWidth, req.SeedHeight)
}

func (req RunRequest) evoConfig() (evo.Config, error) {
	fitness, err := automaton.FitnessFromName(req.Fitness)
	if err != nil {
		return evo.Config{}, err
	}
	selector, err := evo.SelectorFromName(req.Selection)
	if err != nil {
		return evo.Config{}, err
	}
	postprocessor, err := evo.PostprocessorFromName(req.Postprocessor)
	if err != nil {
		return evo.Config{}, err
	}
	shape, window := req.geometry()
	return evo.Config{
		Shape:              shape,
		Window:             window,
		PopulationSize:     req.Population,
		Generations:        req.Generations,
		BestPromotionCount: req.BestPromotionCount,
		NewVarianceCount:   req.NewVarianceCount,
		MutationChance:     req.MutationChance,
		LivingChance:       req.LivingChance,
		MaxSteps:           req.MaxSteps,
		Strict:             !req.Lenient,
		Fitness:            fitness,
		Workers:            req.Workers,
		Parents:            req.Parents,
		Selector:           selector,
		Postprocessor:      postprocessor,
		Seed:               req.Seed,
	}, nil
}

func (req RunRequest) runConfig() model.RunConfig {
	_, window := req.geometry()
	return model.RunConfig{
		GridWidth:          req.GridWidth,
		GridHeight:         req.GridHeight,
		Toroidal:           req.Toroidal,
		SeedWidth:          window.Width,
		SeedHeight:         window.Height,
		SeedOffsetX:        window.OffsetX,
		SeedOffsetY:        window.OffsetY,
		PopulationSize:     req.Population,
		Generations:        req.Generations,
		BestPromotionCount: req.BestPromotionCount,
		NewVarianceCount:   req.NewVarianceCount,
		MutationChance:     req.MutationChance,
		LivingChance:       req.LivingChance,
		MaxSteps:           req.MaxSteps,
		Strict:             !req.Lenient,
		Fitness:            req.Fitness,
		Selection:          req.Selection,
		Postprocessor:      req.Postprocessor,
		Parents:            req.Parents,
		Workers:            req.Workers,
		Seed:               req.Seed,
	}
}

// runRequestFromConfig rebuilds the geometry of a stored run. Stored seed
// windows are always centered or full, so the offsets are implied.
func runRequestFromConfig(cfg model.RunConfig) RunRequest {
	return RunRequest{
		GridWidth:          cfg.GridWidth,
		GridHeight:         cfg.GridHeight,
		Toroidal:           cfg.Toroidal,
		SeedWidth:          cfg.SeedWidth,
		SeedHeight:         cfg.SeedHeight,
		Population:         cfg.PopulationSize,
		Generations:        cfg.Generations,
		BestPromotionCount: cfg.BestPromotionCount,
		NewVarianceCount:   cfg.NewVarianceCount,
		MutationChance:     cfg.MutationChance,
		LivingChance:       cfg.LivingChance,
		MaxSteps:           cfg.MaxSteps,
		Lenient:            !cfg.Strict,
		Fitness:            cfg.Fitness,
		Selection:          cfg.Selection,
		Postprocessor:      cfg.Postprocessor,
		Parents:            cfg.Parents,
		Workers:            cfg.Workers,
		Seed:               cfg.Seed,
	}
}
