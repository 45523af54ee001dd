package main

import (
	"fmt"
	"os"

	// Import to register the simulation
	_ "github.com/picogrid/geoscape-sim/cmd/geoscape/simulation"
)

func main() {
	fmt.Println("Geoscape Air Combat simulation registered. Use 'geoscape-sim run' to execute.")
	os.Exit(0)
}
