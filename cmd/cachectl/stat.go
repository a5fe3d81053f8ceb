package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cuemby/tandem/pkg/diskcache"
)

var statCmd = &cobra.Command{
	Use:   "stat",
	Short: "Report item count, total size, and trash depth",
	RunE:  runStat,
}

// openEngine opens the cache at --path, applying --config defaults for
// storage type and error logging. It also returns the parsed config
// file so callers that consult other fields (trim's TrimSize/TrimCount)
// don't have to reload and reparse it themselves.
func openEngine(cmd *cobra.Command) (*diskcache.Engine, *fileDefaults, error) {
	path, _ := cmd.Flags().GetString("path")
	configPath, _ := cmd.Flags().GetString("config")

	defaults, err := loadFileDefaults(configPath)
	if err != nil {
		return nil, nil, err
	}

	eng, ok := diskcache.Open(diskcache.Options{
		Path:        path,
		StorageType: defaults.storageType(),
		LogErrors:   defaults.LogErrors,
	})
	if !ok {
		return nil, nil, fmt.Errorf("failed to open cache at %s", path)
	}
	return eng, defaults, nil
}

func runStat(cmd *cobra.Command, args []string) error {
	eng, _, err := openEngine(cmd)
	if err != nil {
		return err
	}
	defer eng.Close()

	stats := eng.Stats()
	fmt.Printf("items:       %d\n", stats.Items)
	fmt.Printf("bytes:       %d\n", stats.Bytes)
	fmt.Printf("trash depth: %d\n", stats.TrashDepth)
	return nil
}
