package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var gcCmd = &cobra.Command{
	Use:   "gc",
	Short: "Remove every entry from the cache",
	Long: `gc empties the cache directory entirely.

By default it takes the fast path: close the manifest, move the data
directory to trash, and reopen an empty store. Pass --progress to use
the slower batched path instead, which reports how many entries it has
removed as it goes; use that only when a caller needs incremental
feedback on a very large store.`,
	RunE: runGC,
}

func init() {
	gcCmd.Flags().Bool("progress", false, "Use the slower batched remove-all path and report progress")
}

func runGC(cmd *cobra.Command, args []string) error {
	eng, _, err := openEngine(cmd)
	if err != nil {
		return err
	}
	defer eng.Close()

	progress, _ := cmd.Flags().GetBool("progress")
	if !progress {
		if !eng.RemoveAll() {
			return fmt.Errorf("remove all failed")
		}
		fmt.Println("cache emptied")
		return nil
	}

	ok := eng.RemoveAllWithProgress(func(removed int64) {
		fmt.Printf("removed %d entries\n", removed)
	})
	if !ok {
		return fmt.Errorf("remove all failed")
	}
	fmt.Println("cache emptied")
	return nil
}
