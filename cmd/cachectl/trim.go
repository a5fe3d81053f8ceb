package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var trimCmd = &cobra.Command{
	Use:   "trim",
	Short: "Evict least-recently-used entries to a size or count budget",
	RunE:  runTrim,
}

func init() {
	trimCmd.Flags().Int64("max-size", 0, "Evict until total size is at or below this many bytes (0 = use --config's trimSize, then skip)")
	trimCmd.Flags().Int64("max-count", 0, "Evict until item count is at or below this many entries (0 = use --config's trimCount, then skip)")
}

func runTrim(cmd *cobra.Command, args []string) error {
	eng, defaults, err := openEngine(cmd)
	if err != nil {
		return err
	}
	defer eng.Close()

	maxSize, _ := cmd.Flags().GetInt64("max-size")
	maxCount, _ := cmd.Flags().GetInt64("max-count")
	if maxSize == 0 {
		maxSize = defaults.TrimSize
	}
	if maxCount == 0 {
		maxCount = defaults.TrimCount
	}

	if maxSize > 0 {
		if !eng.TrimToSize(maxSize) {
			return fmt.Errorf("trim to size failed")
		}
		fmt.Printf("trimmed to size <= %d\n", maxSize)
	}
	if maxCount > 0 {
		if !eng.TrimToCount(maxCount) {
			return fmt.Errorf("trim to count failed")
		}
		fmt.Printf("trimmed to count <= %d\n", maxCount)
	}
	if maxSize <= 0 && maxCount <= 0 {
		return fmt.Errorf("specify --max-size and/or --max-count, or set trimSize/trimCount in --config")
	}
	return nil
}
