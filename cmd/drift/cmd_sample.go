package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"os/signal"

	"github.com/drift-ml/drift/checkpoint"
	"github.com/drift-ml/drift/config"
	"github.com/drift-ml/drift/dataset"
	"github.com/drift-ml/drift/diffusion"
	"github.com/drift-ml/drift/internal/serialization"
	"github.com/drift-ml/drift/models"
	"github.com/drift-ml/drift/tensor"
)

// runSample generates samples with deterministic DDIM from a trained
// denoiser checkpoint. With -energy and -target, sampling is steered by
// the energy model's gradient toward the target properties. Ctrl-C
// cancels cleanly between reverse steps.
func runSample(args []string) error {
	fs := flag.NewFlagSet("sample", flag.ExitOnError)
	configPath := fs.String("config", "config.yml", "YAML configuration file")
	ckptPath := fs.String("checkpoint", "", "Denoiser checkpoint (.drift)")
	energyPath := fs.String("energy", "", "Energy model checkpoint for guided sampling")
	shapeFlag := fs.String("shape", "", "Per-item sample shape, e.g. 1,16,16")
	n := fs.Int("n", 1, "Number of samples to generate")
	numSteps := fs.Int("steps", 50, "Number of DDIM steps")
	condFlag := fs.String("cond", "", "Conditioning values, comma-separated")
	targetFlag := fs.String("target", "", "Target property values for guidance")
	guideScale := fs.Float64("guide-scale", 1.0, "Guidance strength; 0 disables")
	dataPath := fs.String("data", "", "Training data for standardization statistics")
	seed := fs.Int64("seed", 42, "Random seed for the initial noise")
	outPath := fs.String("out", "samples.drift", "Output file")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *ckptPath == "" {
		return fmt.Errorf("-checkpoint is required")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	sched, err := cfg.Schedule()
	if err != nil {
		return err
	}

	shape, err := parseInts(*shapeFlag)
	if err != nil || len(shape) == 0 {
		return fmt.Errorf("-shape is required, e.g. -shape 1,16,16")
	}

	cond, err := parseFloats(*condFlag)
	if err != nil {
		return err
	}
	if len(cond) != cfg.ParamDim {
		return fmt.Errorf("got %d conditioning values, config param_dim is %d", len(cond), cfg.ParamDim)
	}
	target, err := parseFloats(*targetFlag)
	if err != nil {
		return err
	}

	// When training data is available, map raw conditioning and target
	// values into the standardized space the models were trained in.
	if *dataPath != "" {
		ds, err := loadDataset(*dataPath)
		if err != nil {
			return err
		}
		if cond, err = standardize(ds.Params(), cond); err != nil {
			return err
		}
		if len(target) > 0 && ds.HasProps() {
			if target, err = standardize(ds.Props(), target); err != nil {
				return err
			}
		}
	}

	hidden, timeDim, _ := hyper(cfg)
	rng := rand.New(rand.NewSource(*seed))
	model, err := models.NewCondDenoiser(models.DenoiserConfig{
		SampleShape: tensor.Shape(shape),
		ParamDim:    cfg.ParamDim,
		TimeDim:     timeDim,
		Hidden:      hidden,
	}, rng)
	if err != nil {
		return err
	}
	snap, err := checkpoint.Load(*ckptPath)
	if err != nil {
		return err
	}
	if err := model.LoadStateDict(snap.Model); err != nil {
		return err
	}
	log.Printf("loaded denoiser from %s (epoch %d, loss %.6f)", *ckptPath, snap.Epoch, snap.Loss)

	opts := &diffusion.SampleOptions{
		Progress: func(done, total int) {
			if done%10 == 0 || done == total {
				log.Printf("step %d/%d", done, total)
			}
		},
	}
	if *energyPath != "" {
		if len(target) != cfg.PropDim {
			return fmt.Errorf("got %d target values, config prop_dim is %d", len(target), cfg.PropDim)
		}
		energy, err := models.NewEnergyNet(models.EnergyConfig{
			ParamDim: cfg.ParamDim,
			PropDim:  cfg.PropDim,
			Hidden:   hidden,
		}, rng)
		if err != nil {
			return err
		}
		esnap, err := checkpoint.Load(*energyPath)
		if err != nil {
			return err
		}
		if err := energy.LoadStateDict(esnap.Model); err != nil {
			return err
		}
		opts.Guidance = &diffusion.Guidance{Model: energy, Target: target, Scale: *guideScale}
		log.Printf("guided sampling toward %v at scale %g", target, *guideScale)
	}

	batchShape := append(tensor.Shape{*n}, shape...)
	init := tensor.Randn[float32](batchShape, rng)
	condT := tensor.Zeros[float32](tensor.Shape{*n, cfg.ParamDim})
	for i := 0; i < *n; i++ {
		copy(condT.Data()[i*cfg.ParamDim:], cond)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	steps := diffusion.Timesteps(cfg.T, *numSteps)
	sampler := diffusion.NewSampler(sched, model)
	out, err := sampler.Sample(ctx, init, condT, steps, opts)
	if err != nil {
		return err
	}

	result := map[string]*tensor.RawTensor{
		"samples": out.Raw(),
		"params":  condT.Raw(),
	}
	if err := serialization.WriteFile(*outPath, result, serialization.RunMeta{}); err != nil {
		return err
	}
	log.Printf("wrote %d samples to %s", *n, *outPath)
	return nil
}

// standardize maps one row of raw values through a scaler fitted on the
// given table.
func standardize(table *tensor.Tensor[float32], values []float32) ([]float32, error) {
	scaler, err := dataset.FitScaler(table)
	if err != nil {
		return nil, err
	}
	row, err := tensor.FromSlice(values, tensor.Shape{1, len(values)})
	if err != nil {
		return nil, err
	}
	z, err := scaler.Transform(row)
	if err != nil {
		return nil, err
	}
	return z.Data(), nil
}
