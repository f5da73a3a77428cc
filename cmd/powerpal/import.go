package main

import (
	"errors"
	"fmt"

	"github.com/jgoulah/powerpal/internal/store"
	"github.com/spf13/cobra"
)

var importCmd = &cobra.Command{
	Use:   "import [csv file]",
	Short: "Copy a CSV usage log into the sqlite database",
	Long: `Reads a headerless usage log (date,units_start,units_end,usage) and appends
every row to the sqlite backend in file order. Defaults to the configured data path.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runImport,
}

func init() {
	rootCmd.AddCommand(importCmd)
}

func runImport(cmd *cobra.Command, args []string) error {
	a, err := newApp(false)
	if err != nil {
		return err
	}
	defer a.Close()

	if a.db == nil {
		return errors.New("import requires storage.backend: sqlite")
	}

	path := a.cfg.GetDataPath()
	if len(args) == 1 {
		path = args[0]
	}

	records, err := store.NewCSVStore(path).LoadAll()
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}

	imported, err := a.db.Import(records)
	if err != nil {
		return fmt.Errorf("nothing imported from %s: %w", path, err)
	}

	fmt.Printf("✓ Imported %d records from %s\n", imported, path)
	return nil
}
