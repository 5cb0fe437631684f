package main

import (
	"context"
	"flag"
	"os"
	"runtime"
	"time"

	"github.com/lapvn/timecard/internal/simulator"
)

// Default configuration constants.
const (
	defaultNumEmployees      = 200
	defaultNumDays           = 5
	defaultWorkers           = 2 // multiplier for runtime.NumCPU()
	defaultTimeout           = 30 * time.Second
	defaultSimulationTimeout = 10 * time.Minute
)

func main() {
	var (
		baseURL      = flag.String("url", "http://localhost:9080", "Base URL of the service")
		numEmployees = flag.Int("employees", defaultNumEmployees, "Number of synthetic employees")
		numDays      = flag.Int("days", defaultNumDays, "Number of civil days to cover, ending yesterday")
		workers      = flag.Int("workers", runtime.NumCPU()*defaultWorkers, "Number of concurrent workers")
		timeout      = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		strategy     = flag.String("strategy", "replace", "Merge strategy for the /sync pass")
		outputFile   = flag.String("output", "", "Output file for generated punches (default: generated_punches_TIMESTAMP.json)")
		logFile      = flag.String("log", "", "Log file for simulation output (default: simulation_log_TIMESTAMP.log)")
		verbose      = flag.Bool("verbose", false, "Enable verbose logging")
		help         = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		simulator.ShowHelp()
		return
	}

	// Setup logging
	if err := simulator.SetupLogging(*logFile); err != nil {
		os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		return
	}

	// Create context with timeout
	ctx, cancel := context.WithTimeout(context.Background(), defaultSimulationTimeout)
	defer cancel()

	// Create simulation configuration
	cfg := &simulator.Config{
		BaseURL:      *baseURL,
		NumEmployees: *numEmployees,
		NumDays:      *numDays,
		Workers:      *workers,
		Timeout:      *timeout,
		Strategy:     *strategy,
		OutputFile:   *outputFile,
		LogFile:      *logFile,
		Verbose:      *verbose,
	}

	// Run the simulation
	if err := simulator.Run(ctx, cfg); err != nil {
		os.Stderr.WriteString("Simulation failed: " + err.Error() + "\n")
		return
	}
}
