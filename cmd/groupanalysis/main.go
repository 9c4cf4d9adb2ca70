package main

import (
	"fmt"
	"log"
	"os"

	"fmrigroup/pkg/groupstats"
	"fmrigroup/pkg/manifest"
	"fmrigroup/pkg/volume"
)

func main() {
	if len(os.Args) != 3 {
		fmt.Fprintln(os.Stderr, "Usage: groupanalysis <file_list.txt> <output_prefix>")
		os.Exit(1)
	}

	fileListPath := os.Args[1]
	outputPrefix := os.Args[2]

	fmt.Println("Group analysis tool")
	fmt.Printf("File list: %s\n", fileListPath)
	fmt.Printf("Output prefix: %s\n", outputPrefix)

	paths, err := manifest.Read(fileListPath)
	if err != nil {
		log.Fatalf("Failed to read file list: %v", err)
	}

	vols, err := volume.LoadAll(paths)
	if err != nil {
		log.Fatalf("Failed to load volumes: %v", err)
	}

	maps, err := groupstats.Analyze(vols)
	if err != nil {
		log.Fatalf("Group analysis failed: %v", err)
	}

	// The first volume serves as the metadata reference for both outputs.
	if _, _, err := volume.WriteStats(maps, vols[0], outputPrefix); err != nil {
		log.Fatalf("Failed to save results: %v", err)
	}

	fmt.Printf("Analysis complete with %d subjects and %d degrees of freedom.\n",
		len(vols), maps.DegreesOfFreedom)
}
