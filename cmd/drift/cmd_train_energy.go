package main

import (
	"flag"
	"fmt"
	"log"
	"math/rand"
	"path/filepath"

	"github.com/drift-ml/drift/checkpoint"
	"github.com/drift-ml/drift/config"
	"github.com/drift-ml/drift/dataset"
	"github.com/drift-ml/drift/models"
	"github.com/drift-ml/drift/optim"
)

// runTrainEnergy fits the energy model: a regression from standardized
// conditioning parameters to standardized properties. The resulting
// network drives energy-guided sampling.
func runTrainEnergy(args []string) error {
	fs := flag.NewFlagSet("train-energy", flag.ExitOnError)
	configPath := fs.String("config", "config.yml", "YAML configuration file")
	dataPath := fs.String("data", "", "Training data (.drift with params/props tensors)")
	outDir := fs.String("out", "", "Checkpoint directory (default <checkpoint.path>/energy)")
	seed := fs.Int64("seed", 42, "Random seed")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *dataPath == "" {
		return fmt.Errorf("-data is required")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	ds, err := loadDataset(*dataPath)
	if err != nil {
		return err
	}
	if !ds.HasProps() {
		return fmt.Errorf("dataset has no props tensor; energy training needs property labels")
	}
	if ds.Params().Shape()[1] != cfg.ParamDim || ds.Props().Shape()[1] != cfg.PropDim {
		return fmt.Errorf("dataset dims [%d %d] disagree with config param_dim/prop_dim [%d %d]",
			ds.Params().Shape()[1], ds.Props().Shape()[1], cfg.ParamDim, cfg.PropDim)
	}

	paramScaler, err := dataset.FitScaler(ds.Params())
	if err != nil {
		return err
	}
	propScaler, err := dataset.FitScaler(ds.Props())
	if err != nil {
		return err
	}

	hidden, _, batchSize := hyper(cfg)
	rng := rand.New(rand.NewSource(*seed))
	model, err := models.NewEnergyNet(models.EnergyConfig{
		ParamDim: cfg.ParamDim,
		PropDim:  cfg.PropDim,
		Hidden:   hidden,
	}, rng)
	if err != nil {
		return err
	}
	opt := optim.NewAdamW(model.Parameters(), optim.AdamWConfig{LR: cfg.LR})

	dir := *outDir
	if dir == "" {
		dir = filepath.Join(cfg.Checkpoint.Path, "energy")
	}
	mgr, err := checkpoint.NewManager(checkpoint.Config{Dir: dir, Every: cfg.Checkpoint.Every})
	if err != nil {
		return err
	}
	log.Printf("starting energy run %s: %d items, batch=%d, hidden=%d",
		mgr.RunID(), ds.Len(), batchSize, hidden)

	for epoch := 1; epoch <= cfg.Epochs; epoch++ {
		mgr.SetEpoch(epoch)

		batches, err := ds.Batches(batchSize, rng)
		if err != nil {
			return err
		}

		var epochLoss float64
		for _, idx := range batches {
			b, err := ds.Gather(idx)
			if err != nil {
				return err
			}
			cond, err := paramScaler.Transform(b.Params)
			if err != nil {
				return err
			}
			props, err := propScaler.Transform(b.Props)
			if err != nil {
				return err
			}

			opt.ZeroGrad()
			loss, err := model.TrainLoss(cond, props)
			if err != nil {
				return err
			}
			opt.Step()
			epochLoss += float64(loss) * float64(len(idx))

			err = mgr.Observe(float64(loss), func() checkpoint.Snapshot {
				return checkpoint.Snapshot{
					Model:     model.StateDict(),
					Optimizer: opt.StateDict(),
				}
			})
			if err != nil {
				return err
			}
		}

		log.Printf("epoch %d/%d: loss %.6f (best %.6f)",
			epoch, cfg.Epochs, epochLoss/float64(ds.Len()), mgr.BestLoss())
	}

	return mgr.Save("final.drift", checkpoint.Snapshot{
		Model:     model.StateDict(),
		Optimizer: opt.StateDict(),
	})
}
