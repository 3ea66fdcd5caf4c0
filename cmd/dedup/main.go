package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/pomo-mondreganto/lookalike/internal/config"
	"github.com/pomo-mondreganto/lookalike/internal/dedup"
	"github.com/pomo-mondreganto/lookalike/internal/exclude"
	"github.com/pomo-mondreganto/lookalike/internal/imghash"
	"github.com/pomo-mondreganto/lookalike/internal/logging"
	"github.com/pomo-mondreganto/lookalike/internal/progress"
	"github.com/pomo-mondreganto/lookalike/internal/report"
	"github.com/pomo-mondreganto/lookalike/internal/scan"
	"github.com/pomo-mondreganto/lookalike/internal/storage"
	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
)

func main() {
	logging.Init()
	cfg := setupConfig()
	setLogLevel(cfg)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if cfg.List {
		s := createStorage(cfg)
		//goland:noinspection GoUnhandledErrorResult
		defer s.Close()
		listScans(s)
		return
	}
	if cfg.Remove != "" {
		s := createStorage(cfg)
		//goland:noinspection GoUnhandledErrorResult
		defer s.Close()
		removeDuplicates(s, cfg.Remove, cfg.Yes)
		return
	}

	checkInputDir(cfg.Input)
	cmp := createComparator()
	excl := createExclusions(cfg)

	var s *storage.Storage
	if !cfg.NoCache || cfg.Save {
		s = createStorage(cfg)
		//goland:noinspection GoUnhandledErrorResult
		defer s.Close()
	}

	opts := []scan.Option{
		scan.WithWorkers(cfg.Workers),
		scan.WithExclude(excl),
		scan.WithPrecompute(cmp),
	}
	if !cfg.NoCache {
		opts = append(opts, scan.WithCache(s))
	}
	var bar *progress.Bar
	opts = append(opts, scan.WithProgress(func(string) { bar.Add(1) }))
	scanner := scan.New(opts...)

	paths, err := scanner.Walk(ctx, cfg.Input)
	if err != nil {
		logrus.Fatalf("Error listing images: %v", err)
	}
	logrus.Infof("Found %d images in %s", len(paths), cfg.Input)

	bar = progress.New(len(paths), "Hashing images")
	entities, err := scanner.Load(ctx, paths)
	bar.Finish()
	if err != nil {
		logrus.Fatalf("Error loading images: %v", err)
	}
	stats := scanner.Stats()
	logrus.Infof("Hashed %d images, %d from cache, %d skipped", stats.Decoded, stats.Cached, stats.Skipped)

	if stored, err := scanner.Persist(entities); err != nil {
		logrus.Errorf("Error caching hashes: %v", err)
	} else if stored > 0 {
		logrus.Debugf("Cached hashes of %d images", stored)
	}

	bar = progress.New(len(entities), "Grouping images")
	groups, err := dedup.Cluster(cmp, entities, dedup.WithProgress(bar.Report))
	bar.Finish()
	if err != nil {
		logrus.Fatalf("Error grouping images: %v", err)
	}

	if err := report.Write(os.Stdout, groups); err != nil {
		logrus.Fatalf("Error writing report: %v", err)
	}

	if cfg.Save {
		saveScan(s, cfg.Input, groups)
	}
}

func setupConfig() *config.Config {
	config.CommonFlags(pflag.CommandLine)
	pflag.StringP("input", "i", ".", "Directory to search for duplicates")
	pflag.StringP("exclude", "e", "", "Path to exclusion patterns text file")
	pflag.Bool("no_cache", false, "Do not read or write cached hashes")
	pflag.Bool("save", false, "Save found groups to the data directory")
	pflag.Bool("list", false, "List saved scans and exit")
	pflag.String("remove", "", "Delete the non-anchor files of the saved scan with this id")
	pflag.BoolP("yes", "y", false, "Do not ask before deleting files")
	return config.Get()
}

func setLogLevel(cfg *config.Config) {
	if err := logging.SetLevel(cfg.LogLevel); err != nil {
		logrus.Errorf("Error setting log level: %v", err)
		pflag.PrintDefaults()
		os.Exit(1)
	}
}

func checkInputDir(path string) {
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		logrus.Fatalf("Directory '%s' does not exist", path)
	}
}

func createComparator() *imghash.Comparator {
	cmp, err := imghash.NewComparator()
	if err != nil {
		logrus.Fatalf("Error creating comparator: %v", err)
	}
	return cmp
}

func createExclusions(cfg *config.Config) *exclude.List {
	l, err := exclude.New(cfg.Exclude)
	if err != nil {
		logrus.Fatalf("Error loading exclusions: %v", err)
	}
	return l
}

func createStorage(cfg *config.Config) *storage.Storage {
	if err := os.MkdirAll(cfg.Data, 0755); err != nil {
		logrus.Fatalf("Error creating data directory: %v", err)
	}
	s, err := storage.New(cfg.Data)
	if err != nil {
		logrus.Fatalf("Error creating storage: %v", err)
	}
	return s
}

func saveScan(s *storage.Storage, root string, groups []dedup.Group) {
	ids := make([][]string, len(groups))
	for i, g := range groups {
		ids[i] = g.IDs()
	}
	id, err := s.SaveScan(storage.Scan{Root: root, Created: time.Now(), Groups: ids})
	if err != nil {
		logrus.Fatalf("Error saving scan: %v", err)
	}
	logrus.Infof("Saved scan %s", id)
}

func listScans(s *storage.Storage) {
	scans, err := s.ListScans()
	if err != nil {
		logrus.Fatalf("Error listing scans: %v", err)
	}
	for _, sc := range scans {
		files := 0
		for _, g := range sc.Groups {
			files += len(g)
		}
		fmt.Printf("%s  %s  %s  %d groups, %d files\n",
			sc.ID, sc.Created.Format("2006-01-02 15:04:05"), sc.Root, len(sc.Groups), files)
	}
}

func removeDuplicates(s *storage.Storage, rawID string, yes bool) {
	id, err := uuid.Parse(rawID)
	if err != nil {
		logrus.Fatalf("Invalid scan id '%s': %v", rawID, err)
	}
	sc, err := s.GetScan(id)
	if err != nil {
		logrus.Fatalf("Error loading scan: %v", err)
	}

	paths := dedup.Duplicates(sc.Groups)
	if len(paths) == 0 {
		logrus.Infof("Scan %s has nothing to remove", id)
		return
	}
	for _, path := range paths {
		fmt.Println(path)
	}
	if !yes && !confirm(fmt.Sprintf("%d files listed above will be permanently removed. Continue?", len(paths))) {
		logrus.Info("Nothing removed")
		return
	}

	removed, err := dedup.Remove(paths)
	if err != nil {
		logrus.Fatalf("Error removing files (%d removed): %v", removed, err)
	}
	logrus.Infof("Removed %d of %d files", removed, len(paths))
}

func confirm(question string) bool {
	fmt.Printf("%s [y/N] ", question)
	answer, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && answer == "" {
		return false
	}
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes"
}
