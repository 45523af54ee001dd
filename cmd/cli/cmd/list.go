package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/picogrid/geoscape-sim/pkg/simulation"
	"github.com/picogrid/geoscape-sim/pkg/utils"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List available simulations",
	Long:  `List all simulations with a manifest, and whether this binary can run them`,
	RunE:  listSimulations,
}

func init() {
	listCmd.Flags().BoolP("verbose", "v", false, "show declared parameters")
}

func listSimulations(cmd *cobra.Command, args []string) error {
	simInfos, err := utils.DiscoverSimulations()
	if err != nil {
		return fmt.Errorf("failed to discover simulations: %w", err)
	}

	if len(simInfos) == 0 {
		fmt.Println("No simulations found")
		return nil
	}

	registered := make(map[string]bool)
	for _, name := range simulation.DefaultRegistry.List() {
		registered[name] = true
	}
	verbose, _ := cmd.Flags().GetBool("verbose")

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "NAME\tVERSION\tCATEGORY\tRUNNABLE\tDESCRIPTION")
	_, _ = fmt.Fprintln(w, "----\t-------\t--------\t--------\t-----------")

	for _, info := range simInfos {
		runnable := "no"
		if registered[info.Config.Name] {
			runnable = "yes"
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			info.Config.Name,
			info.Config.Version,
			info.Config.Category,
			runnable,
			info.Config.Description,
		)
		if verbose {
			for _, p := range info.Config.Parameters {
				_, _ = fmt.Fprintf(w, "  %s\t%s\t%v\t\t%s\n", p.Name, p.Type, p.Default, p.Description)
			}
		}
	}

	return w.Flush()
}
