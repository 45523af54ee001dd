package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/AlecAivazis/survey/v2"
	"github.com/spf13/cobra"

	"github.com/picogrid/geoscape-sim/pkg/config"
)

var envCmd = &cobra.Command{
	Use:   "env",
	Short: "Manage storage profiles",
	Long:  `Manage the named databases that hold saved games and recorded tracks`,
}

var envListCmd = &cobra.Command{
	Use:   "list",
	Short: "List configured profiles",
	RunE:  listProfiles,
}

var envAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a new profile",
	RunE:  addProfile,
}

var envRemoveCmd = &cobra.Command{
	Use:   "remove",
	Short: "Remove a profile",
	RunE:  removeProfile,
}

var envSelectCmd = &cobra.Command{
	Use:   "select [name]",
	Short: "Make a profile the default",
	Args:  cobra.ExactArgs(1),
	RunE:  selectDefaultProfile,
}

func init() {
	envCmd.AddCommand(envListCmd)
	envCmd.AddCommand(envAddCmd)
	envCmd.AddCommand(envRemoveCmd)
	envCmd.AddCommand(envSelectCmd)
}

func listProfiles(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadProfiles()
	if err != nil {
		return fmt.Errorf("failed to load profiles: %w", err)
	}

	if len(cfg.Profiles) == 0 {
		fmt.Println("No profiles configured")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "NAME\tDRIVER\tDSN\tDEFAULT")
	_, _ = fmt.Fprintln(w, "----\t------\t---\t-------")

	for _, p := range cfg.Profiles {
		selected := ""
		if p.Name == cfg.Selected {
			selected = "*"
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", p.Name, p.Driver, p.DSN, selected)
	}

	return w.Flush()
}

func addProfile(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadProfiles()
	if err != nil {
		return fmt.Errorf("failed to load profiles: %w", err)
	}

	var p config.Profile

	namePrompt := &survey.Input{
		Message: "Profile name:",
	}
	if err := survey.AskOne(namePrompt, &p.Name, survey.WithValidator(survey.Required)); err != nil {
		return err
	}

	driverPrompt := &survey.Select{
		Message: "Database driver:",
		Options: []string{"sqlite", "postgres"},
		Default: "sqlite",
	}
	if err := survey.AskOne(driverPrompt, &p.Driver); err != nil {
		return err
	}

	dsnDefault := "geoscape.db"
	dsnHelp := "Path of the SQLite database file"
	if p.Driver == "postgres" {
		dsnDefault = "host=localhost user=geoscape dbname=geoscape sslmode=disable"
		dsnHelp = "PostgreSQL connection string"
	}
	dsnPrompt := &survey.Input{
		Message: "Data source:",
		Default: dsnDefault,
		Help:    dsnHelp,
	}
	if err := survey.AskOne(dsnPrompt, &p.DSN, survey.WithValidator(survey.Required)); err != nil {
		return err
	}

	if err := cfg.Add(p); err != nil {
		return err
	}
	if cfg.Selected == "" {
		cfg.Selected = p.Name
	}

	if err := config.SaveProfiles(cfg); err != nil {
		return fmt.Errorf("failed to save profiles: %w", err)
	}

	fmt.Printf("Profile %s added successfully\n", p.Name)
	return nil
}

func removeProfile(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadProfiles()
	if err != nil {
		return fmt.Errorf("failed to load profiles: %w", err)
	}

	if len(cfg.Profiles) == 0 {
		fmt.Println("No profiles to remove")
		return nil
	}

	names := make([]string, len(cfg.Profiles))
	for i, p := range cfg.Profiles {
		names[i] = p.Name
	}

	var selected string
	prompt := &survey.Select{
		Message: "Select profile to remove:",
		Options: names,
	}
	if err := survey.AskOne(prompt, &selected); err != nil {
		return err
	}

	var confirm bool
	confirmPrompt := &survey.Confirm{
		Message: fmt.Sprintf("Are you sure you want to remove %s?", selected),
		Default: false,
	}
	if err := survey.AskOne(confirmPrompt, &confirm); err != nil {
		return err
	}

	if !confirm {
		fmt.Println("Removal cancelled")
		return nil
	}

	cfg.Remove(selected)

	if err := config.SaveProfiles(cfg); err != nil {
		return fmt.Errorf("failed to save profiles: %w", err)
	}

	fmt.Printf("Profile %s removed successfully\n", selected)
	return nil
}

func selectDefaultProfile(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadProfiles()
	if err != nil {
		return fmt.Errorf("failed to load profiles: %w", err)
	}
	if _, ok := cfg.Find(args[0]); !ok {
		return fmt.Errorf("profile %s not found", args[0])
	}
	cfg.Selected = args[0]
	if err := config.SaveProfiles(cfg); err != nil {
		return fmt.Errorf("failed to save profiles: %w", err)
	}
	fmt.Printf("Profile %s is now the default\n", args[0])
	return nil
}
