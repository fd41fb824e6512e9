package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/Pat-Reen/FitnessChat/pkg/catalog"
	"github.com/Pat-Reen/FitnessChat/pkg/config"
	"github.com/Pat-Reen/FitnessChat/pkg/style"
)

var catalogYAML bool

var catalogCmd = &cobra.Command{
	Use:   "catalog [group]",
	Short: "Browse the exercise catalog",
	Long: `List muscle groups and their exercises.

Examples:
  fitchat catalog              # every group
  fitchat catalog legs         # one group
  fitchat catalog search squat # fuzzy search
  fitchat catalog --yaml > my-catalog.yaml`,
	Args: cobra.MaximumNArgs(1),
	RunE: runCatalog,
}

var catalogSearchCmd = &cobra.Command{
	Use:   "search <text>",
	Short: "Fuzzy-search exercise names",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cat, err := currentCatalog()
		if err != nil {
			return err
		}
		found := cat.Search(args[0])
		if len(found) == 0 {
			fmt.Printf("No exercises match %q\n", args[0])
			return nil
		}
		for _, name := range found {
			fmt.Println(name)
		}
		return nil
	},
}

func init() {
	catalogCmd.Flags().BoolVar(&catalogYAML, "yaml", false, "Print the catalog as YAML (usable with --catalog)")
	catalogCmd.AddCommand(catalogSearchCmd)
	rootCmd.AddCommand(catalogCmd)
}

func currentCatalog() (*catalog.Catalog, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	return loadCatalog(cfg)
}

func runCatalog(cmd *cobra.Command, args []string) error {
	cat, err := currentCatalog()
	if err != nil {
		return err
	}

	if len(args) == 1 {
		exercises, err := cat.ExercisesFor(args[0])
		if err != nil {
			return fmt.Errorf("%w: %s (groups: %s)", err, args[0], optionList(cat.Groups()))
		}
		for _, name := range exercises {
			fmt.Println(name)
		}
		return nil
	}

	if catalogYAML {
		out, err := yaml.Marshal(map[string][]catalog.Group{"groups": cat.All()})
		if err != nil {
			return err
		}
		fmt.Print(string(out))
		return nil
	}

	for _, g := range cat.All() {
		fmt.Printf("%s %s\n", style.Title(g.Name), style.Dim(fmt.Sprintf("(%d)", len(g.Exercises))))
		for _, name := range g.Exercises {
			fmt.Printf("  %s\n", name)
		}
		fmt.Println()
	}
	fmt.Printf("%s\n", style.Dim(fmt.Sprintf("%d unique exercises", cat.Len())))
	return nil
}
