package main

import (
	"fmt"

	humanize "github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/dgnsrekt/murmur/internal/store"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect the synthesis cache",
	Args:  cobra.NoArgs,
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show synthesis cache statistics",
	Args:  cobra.NoArgs,
	RunE: func(*cobra.Command, []string) error {
		dir, dc, err := openCache()
		if err != nil {
			return err
		}
		defer dc.Close() //nolint:errcheck

		st := dc.Stats()
		fmt.Println(keyword("synthesis cache"))
		fmt.Println("  Location:", dir)
		fmt.Println("  Entries: ", st.Entries)
		fmt.Println("  On disk: ", humanize.Bytes(uint64(st.DiskSize))) //nolint:gosec
		fmt.Println("  Audio:   ", humanize.Bytes(uint64(st.RawSize)))  //nolint:gosec
		fmt.Println("  Capacity:", humanize.Bytes(uint64(store.DefaultCacheCapacity)))
		return nil
	},
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove every cached synthesis result",
	Args:  cobra.NoArgs,
	RunE: func(*cobra.Command, []string) error {
		dir, dc, err := openCache()
		if err != nil {
			return err
		}
		defer dc.Close() //nolint:errcheck

		if err := dc.Clear(); err != nil {
			return fmt.Errorf("unable to clear cache: %w", err)
		}
		fmt.Println("Cleared synthesis cache at", dir)
		return nil
	},
}

func openCache() (string, *store.DiskCache, error) {
	dir := cacheDir
	if dir == "" {
		var err error
		dir, err = store.DefaultCacheDir()
		if err != nil {
			return "", nil, err
		}
	}
	dc, err := store.NewDiskCache(dir, 0)
	if err != nil {
		return "", nil, err
	}
	return dir, dc, nil
}

func init() {
	cacheCmd.AddCommand(cacheStatsCmd, cacheClearCmd)
}
