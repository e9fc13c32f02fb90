// Package main provides the Drift diffusion toolkit CLI.
package main

import (
	"fmt"
	"os"
)

const version = "v0.1.0-dev"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		return
	}

	var err error
	switch cmd := os.Args[1]; cmd {
	case "train":
		err = runTrain(os.Args[2:])
	case "train-energy":
		err = runTrainEnergy(os.Args[2:])
	case "sample":
		err = runSample(os.Args[2:])
	case "version":
		fmt.Printf("drift %s\n", version)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", cmd)
		printUsage()
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  drift <command> [options]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  train         Train the conditional denoiser")
	fmt.Println("  train-energy  Train the property energy model")
	fmt.Println("  sample        Generate samples with DDIM, optionally energy-guided")
	fmt.Println("  version       Show version")
}
