package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/AlecAivazis/survey/v2"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/picogrid/geoscape-sim/pkg/config"
	"github.com/picogrid/geoscape-sim/pkg/logger"
	"github.com/picogrid/geoscape-sim/pkg/simulation"
	"github.com/picogrid/geoscape-sim/pkg/utils"

	// Import simulations to register them
	_ "github.com/picogrid/geoscape-sim/cmd/geoscape/simulation"
	_ "github.com/picogrid/geoscape-sim/cmd/intercept-drill"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a simulation",
	Long:  `Run a simulation interactively or with specified parameters`,
	RunE:  runSimulation,
}

func init() {
	runCmd.Flags().StringP("simulation", "s", "", "simulation name to run")
	runCmd.Flags().StringP("params", "p", "", "parameters file (YAML)")
}

func runSimulation(cmd *cobra.Command, _ []string) error {
	simName, err := selectSimulation(cmd)
	if err != nil {
		return fmt.Errorf("failed to select simulation: %w", err)
	}

	sim, err := simulation.DefaultRegistry.Get(simName)
	if err != nil {
		return fmt.Errorf("failed to get simulation: %w", err)
	}

	simInfos, err := utils.DiscoverSimulations()
	if err != nil {
		return fmt.Errorf("failed to discover simulations: %w", err)
	}

	var simConfig *simulation.SimulationConfig
	for _, info := range simInfos {
		if info.Config.Name == simName {
			simConfig = &info.Config
			break
		}
	}

	if simConfig == nil {
		return fmt.Errorf("simulation configuration not found for %s", simName)
	}

	paramsFile, _ := cmd.Flags().GetString("params")
	params, err := collectParameters(*simConfig, paramsFile)
	if err != nil {
		return fmt.Errorf("failed to get parameters: %w", err)
	}

	profile, err := selectProfile()
	if err != nil {
		return err
	}
	if profile != nil {
		logger.Infof("Using storage profile %s (%s)", profile.Name, profile.Driver)
		params["persistence_enabled"] = true
		params["storage_driver"] = profile.Driver
		params["storage_dsn"] = profile.DSN
	}

	if err := sim.Configure(params); err != nil {
		return fmt.Errorf("failed to configure simulation: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		select {
		case <-sigChan:
		case <-ctx.Done():
			return
		}
		logger.Warn("\nReceived interrupt signal, stopping simulation...")
		if err := sim.Stop(); err != nil {
			logger.Errorf("Failed to stop simulation: %v", err)
		}
	}()

	logger.LogSection(fmt.Sprintf("Starting %s", sim.Name()))
	if err := sim.Run(ctx); err != nil {
		return fmt.Errorf("simulation failed: %w", err)
	}

	logger.Success("Simulation completed successfully")
	return nil
}

// collectParameters reads the parameters file, if any, and prompts for the rest.
func collectParameters(manifest simulation.SimulationConfig, path string) (map[string]interface{}, error) {
	fromFile := map[string]interface{}{}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read parameters file: %w", err)
		}
		if err := yaml.Unmarshal(data, &fromFile); err != nil {
			return nil, fmt.Errorf("failed to parse parameters file: %w", err)
		}
	}

	for k := range fromFile {
		if _, ok := manifest.Parameter(k); !ok {
			logger.Warnf("Parameter %s is not declared by %s", k, manifest.Name)
		}
	}

	remaining := make([]simulation.Parameter, 0, len(manifest.Parameters))
	for _, p := range manifest.Parameters {
		if _, ok := fromFile[p.Name]; !ok {
			remaining = append(remaining, p)
		}
	}

	params, err := utils.PromptForParameters(remaining)
	if err != nil {
		return nil, err
	}
	for k, v := range fromFile {
		params[k] = v
	}
	return params, nil
}

// selectProfile resolves the storage profile named by --profile or the config file.
// No profile leaves storage to the scenario config.
func selectProfile() (*config.Profile, error) {
	name := viper.GetString("profile")
	if name == "" {
		return nil, nil
	}
	profiles, err := config.LoadProfiles()
	if err != nil {
		return nil, fmt.Errorf("failed to load profiles: %w", err)
	}
	p, ok := profiles.Find(name)
	if !ok {
		return nil, fmt.Errorf("profile %s not found", name)
	}
	return p, nil
}

func selectSimulation(cmd *cobra.Command) (string, error) {
	// Check if simulation is specified via flag
	simName, _ := cmd.Flags().GetString("simulation")
	if simName != "" {
		return simName, nil
	}

	// Discover available simulations
	simInfos, err := utils.DiscoverSimulations()
	if err != nil {
		return "", err
	}

	if len(simInfos) == 0 {
		return "", fmt.Errorf("no simulations found")
	}

	// Build options for selection
	options := make([]string, len(simInfos))
	descriptions := make(map[string]string)

	for i, info := range simInfos {
		options[i] = info.Config.Name
		descriptions[info.Config.Name] = info.Config.Description
	}

	// Interactive selection
	var selected string
	prompt := &survey.Select{
		Message: "Select simulation:",
		Options: options,
		Description: func(value string, index int) string {
			return descriptions[value]
		},
	}

	if err := survey.AskOne(prompt, &selected); err != nil {
		return "", err
	}

	return selected, nil
}
