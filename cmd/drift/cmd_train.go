package main

import (
	"flag"
	"fmt"
	"log"
	"math/rand"

	"github.com/drift-ml/drift/checkpoint"
	"github.com/drift-ml/drift/config"
	"github.com/drift-ml/drift/dataset"
	"github.com/drift-ml/drift/diffusion"
	"github.com/drift-ml/drift/models"
	"github.com/drift-ml/drift/optim"
)

// runTrain trains the conditional denoiser: per batch, corrupt clean
// samples at random steps, predict the injected noise, backpropagate
// the MSE and step AdamW. Checkpoints track the best epoch loss and a
// fixed cadence; -config consume/consume_path resumes a previous run.
func runTrain(args []string) error {
	fs := flag.NewFlagSet("train", flag.ExitOnError)
	configPath := fs.String("config", "config.yml", "YAML configuration file")
	dataPath := fs.String("data", "", "Training data (.drift with samples/params tensors)")
	seed := fs.Int64("seed", 42, "Random seed for batching and noise draws")
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
	sched, err := cfg.Schedule()
	if err != nil {
		return err
	}
	ds, err := loadDataset(*dataPath)
	if err != nil {
		return err
	}
	if ds.Params().Shape()[1] != cfg.ParamDim {
		return fmt.Errorf("dataset has %d conditioning parameters, config says %d",
			ds.Params().Shape()[1], cfg.ParamDim)
	}

	scaler, err := dataset.FitScaler(ds.Params())
	if err != nil {
		return err
	}

	hidden, timeDim, batchSize := hyper(cfg)
	rng := rand.New(rand.NewSource(*seed))
	model, err := models.NewCondDenoiser(models.DenoiserConfig{
		SampleShape: ds.Samples().Shape()[1:],
		ParamDim:    cfg.ParamDim,
		TimeDim:     timeDim,
		Hidden:      hidden,
	}, rng)
	if err != nil {
		return err
	}
	opt := optim.NewAdamW(model.Parameters(), optim.AdamWConfig{LR: cfg.LR})
	trainer := diffusion.NewTrainer(sched, model, cfg.ParamDim)

	mgr, err := checkpoint.NewManager(checkpoint.Config{
		Dir:   cfg.Checkpoint.Path,
		Every: cfg.Checkpoint.Every,
	})
	if err != nil {
		return err
	}

	startEpoch := 1
	if cfg.Consume {
		snap, err := mgr.Resume(cfg.ConsumePath)
		if err != nil {
			return err
		}
		if err := model.LoadStateDict(snap.Model); err != nil {
			return err
		}
		if err := opt.LoadStateDict(snap.Optimizer); err != nil {
			return err
		}
		startEpoch = snap.Epoch + 1
		log.Printf("resumed run %s from %s at epoch %d", mgr.RunID(), cfg.ConsumePath, snap.Epoch)
	} else {
		log.Printf("starting run %s", mgr.RunID())
	}

	log.Printf("training on %d items: T=%d, batch=%d, lr=%g, hidden=%d",
		ds.Len(), cfg.T, batchSize, cfg.LR, hidden)

	for epoch := startEpoch; epoch <= cfg.Epochs; epoch++ {
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
			cond, err := scaler.Transform(b.Params)
			if err != nil {
				return err
			}

			opt.ZeroGrad()
			loss, grad, err := trainer.LossGrad(b.Samples, cond, rng)
			if err != nil {
				return err
			}
			model.Backward(grad)
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
