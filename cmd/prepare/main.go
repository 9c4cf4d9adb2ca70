package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"fmrigroup/pkg/config"
	"fmrigroup/pkg/manifest"
	"fmrigroup/pkg/registration"
)

func main() {
	// Parse command line arguments
	inputDir := flag.String("input-dir", "", "Directory containing first-level results")
	outputDir := flag.String("output-dir", "", "Directory to save registered files")
	standard := flag.String("standard", "", "Path to standard brain template")
	contrastType := flag.String("contrast-type", "", "Type of contrast files (cope, zstat, etc.; default from config)")
	contrastsArg := flag.String("contrasts", "", "Comma-separated contrast numbers to create file lists for")
	configPath := flag.String("config", "prepare.yaml", "Optional YAML file with registration defaults")
	flag.Parse()

	// Validate inputs
	if *inputDir == "" || *outputDir == "" || *standard == "" {
		flag.Usage()
		os.Exit(1)
	}

	contrasts, err := parseContrasts(*contrastsArg)
	if err != nil {
		log.Fatalf("Invalid -contrasts value: %v", err)
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *contrastType == "" {
		*contrastType = cfg.Registration.ContrastType
	}

	params := &registration.Params{
		InputDir:     *inputDir,
		OutputDir:    *outputDir,
		Standard:     *standard,
		ContrastType: *contrastType,
		FlirtPath:    cfg.Registration.FlirtPath,
		Subjects:     cfg.Subjects(),
	}

	driver := registration.NewDriver(params)
	registered, err := driver.Run()
	if err != nil {
		log.Fatalf("Registration failed: %v", err)
	}

	// Overall file list covering every registered volume
	allListPath := manifest.AllListPath(*outputDir, *contrastType)
	writeList(registered, allListPath)

	// One filtered file list per requested contrast
	for _, n := range contrasts {
		filtered := manifest.FilterByContrast(registered, n)
		writeList(filtered, manifest.ContrastListPath(*outputDir, *contrastType, n))
	}
}

// writeList saves a manifest and reports what was written.
func writeList(paths []string, outPath string) {
	if err := manifest.Write(paths, outPath); err != nil {
		log.Fatalf("Failed to write file list: %v", err)
	}
	fmt.Printf("Created file list with %d files: %s\n", len(paths), outPath)
}

// parseContrasts converts a comma-separated list of contrast numbers.
// An empty argument means no per-contrast lists are requested.
func parseContrasts(arg string) ([]int, error) {
	if arg == "" {
		return nil, nil
	}

	var contrasts []int
	for _, field := range strings.Split(arg, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(field))
		if err != nil {
			return nil, fmt.Errorf("%q is not a contrast number", field)
		}
		contrasts = append(contrasts, n)
	}
	return contrasts, nil
}
