package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/MaxVarverakis/TKN-Physarum/internal/cache"
	"github.com/MaxVarverakis/TKN-Physarum/internal/output"
	"github.com/urfave/cli/v2"
)

func cacheCmd() *cli.Command {
	return &cli.Command{
		Name:  "cache",
		Usage: "Inspect or clear the parse cache",
		Subcommands: []*cli.Command{
			{
				Name:   "clear",
				Usage:  "Remove every cached entry",
				Action: runCacheClear,
			},
			{
				Name:   "stats",
				Usage:  "Show cache size and entry ages",
				Action: runCacheStats,
			},
		},
	}
}

func openCache(c *cli.Context) (*cache.Cache, string, error) {
	result, err := loadConfig(c)
	if err != nil {
		return nil, "", err
	}
	cfg := result.Config.Cache
	pc, err := cache.New(cfg.Dir, cfg.TTL, cfg.Enabled)
	if err != nil {
		return nil, "", fmt.Errorf("failed to open cache %s: %w", cfg.Dir, err)
	}
	return pc, cfg.Dir, nil
}

func runCacheClear(c *cli.Context) error {
	pc, dir, err := openCache(c)
	if err != nil {
		return err
	}
	if !pc.Enabled() {
		status.Warning("Cache is disabled in configuration")
		return nil
	}
	if err := pc.Clear(); err != nil {
		return fmt.Errorf("failed to clear cache: %w", err)
	}
	status.Success("Cleared %s", dir)
	return nil
}

func runCacheStats(c *cli.Context) error {
	pc, dir, err := openCache(c)
	if err != nil {
		return err
	}
	stats, err := pc.GetStats()
	if err != nil {
		return fmt.Errorf("failed to read cache: %w", err)
	}

	formatter, err := output.NewFormatter(output.ParseFormat(c.String("format")), c.String("output"), true)
	if err != nil {
		return err
	}
	defer formatter.Close()

	table := output.NewTable(
		"Parse cache",
		[]string{"Property", "Value"},
		[][]string{
			{"Directory", dir},
			{"Enabled", strconv.FormatBool(pc.Enabled())},
			{"Entries", strconv.Itoa(stats.Entries)},
			{"Size", fmt.Sprintf("%d bytes", stats.TotalSize)},
			{"Oldest", stats.OldestAge.Round(time.Second).String()},
			{"Newest", stats.NewestAge.Round(time.Second).String()},
		},
		nil,
		stats,
	)
	return formatter.Output(table)
}
