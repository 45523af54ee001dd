package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/AlecAivazis/survey/v2"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/picogrid/geoscape-sim/cmd/geoscape/persistence"
	"github.com/picogrid/geoscape-sim/pkg/config"
	"github.com/picogrid/geoscape-sim/pkg/logger"
)

var savesCmd = &cobra.Command{
	Use:   "saves",
	Short: "Manage saved games",
	Long:  `List, inspect and delete saved geoscapes in a storage profile`,
}

var savesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved games",
	RunE:  listSaves,
}

var savesShowCmd = &cobra.Command{
	Use:   "show [id]",
	Short: "Show the contents of a saved game",
	Args:  cobra.ExactArgs(1),
	RunE:  showSave,
}

var savesDeleteCmd = &cobra.Command{
	Use:   "delete [id]",
	Short: "Delete a saved game",
	Args:  cobra.ExactArgs(1),
	RunE:  deleteSave,
}

func init() {
	savesDeleteCmd.Flags().BoolP("yes", "y", false, "delete without confirmation")

	savesCmd.AddCommand(savesListCmd)
	savesCmd.AddCommand(savesShowCmd)
	savesCmd.AddCommand(savesDeleteCmd)
}

// openProfileStore opens the store of --profile, falling back to the default profile.
func openProfileStore() (*persistence.Store, error) {
	profiles, err := config.LoadProfiles()
	if err != nil {
		return nil, fmt.Errorf("failed to load profiles: %w", err)
	}
	name := viper.GetString("profile")
	if name == "" {
		name = profiles.Selected
	}
	if name == "" {
		return nil, fmt.Errorf("no storage profile selected (use --profile or 'env select')")
	}
	p, ok := profiles.Find(name)
	if !ok {
		return nil, fmt.Errorf("profile %s not found", name)
	}
	logger.Debugf("Opening %s store for profile %s", p.Driver, p.Name)
	return persistence.Open(persistence.Config{Driver: p.Driver, DSN: p.DSN})
}

func parseSaveID(arg string) (uuid.UUID, error) {
	id, err := uuid.Parse(arg)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid save id %q: %w", arg, err)
	}
	return id, nil
}

func listSaves(cmd *cobra.Command, args []string) error {
	store, err := openProfileStore()
	if err != nil {
		return err
	}
	defer store.Close()

	saves, err := store.ListSaves(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to list saves: %w", err)
	}

	if len(saves) == 0 {
		fmt.Println("No saved games")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tNAME\tTICK\tSIMULATED\tSAVED")
	_, _ = fmt.Fprintln(w, "--\t----\t----\t---------\t-----")

	for _, s := range saves {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\n",
			s.ID,
			s.Name,
			s.Tick,
			time.Duration(s.Clock*float64(time.Second)).Round(time.Second),
			s.CreatedAt.Local().Format(time.RFC3339),
		)
	}

	return w.Flush()
}

func showSave(cmd *cobra.Command, args []string) error {
	id, err := parseSaveID(args[0])
	if err != nil {
		return err
	}
	store, err := openProfileStore()
	if err != nil {
		return err
	}
	defer store.Close()

	summary, err := store.Summary(cmd.Context(), id)
	if err != nil {
		return fmt.Errorf("failed to read save: %w", err)
	}

	logger.LogSection(fmt.Sprintf("Save %s", summary.Name))
	logger.LogKeyValues(map[string]interface{}{
		"ID":          summary.ID,
		"Run":         summary.RunID,
		"Tick":        summary.Tick,
		"Simulated":   time.Duration(summary.Clock * float64(time.Second)).Round(time.Second).String(),
		"Seed":        summary.Seed,
		"Version":     summary.Version,
		"Bases":       summary.Bases,
		"Units":       summary.Units,
		"Projectiles": summary.Projectiles,
		"Saved":       summary.CreatedAt.Local().Format(time.RFC3339),
	})
	return nil
}

func deleteSave(cmd *cobra.Command, args []string) error {
	id, err := parseSaveID(args[0])
	if err != nil {
		return err
	}

	yes, _ := cmd.Flags().GetBool("yes")
	if !yes {
		var confirm bool
		confirmPrompt := &survey.Confirm{
			Message: fmt.Sprintf("Are you sure you want to delete save %s?", id),
			Default: false,
		}
		if err := survey.AskOne(confirmPrompt, &confirm); err != nil {
			return err
		}
		if !confirm {
			fmt.Println("Deletion cancelled")
			return nil
		}
	}

	store, err := openProfileStore()
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.DeleteSave(cmd.Context(), id); err != nil {
		return fmt.Errorf("failed to delete save: %w", err)
	}

	logger.Successf("Save %s deleted", id)
	return nil
}
