// Package registration drives FLIRT to resample first-level contrast maps
// into standard space using each subject's precomputed affine transform.
// Failures are localized: a subject with missing inputs or a file that
// fails to register is reported and skipped so the rest of the batch can
// proceed.
package registration

import (
	"fmt"
	"os"
	"path/filepath"
)

// Params holds the batch registration configuration.
type Params struct {
	// InputDir is the directory containing per-subject first-level
	// results, laid out as <InputDir>/sub-NN/.
	InputDir string

	// OutputDir is the directory registered volumes are written to. It is
	// created if missing.
	OutputDir string

	// Standard is the path to the standard-space reference brain.
	Standard string

	// ContrastType selects which first-level files to register; contrast
	// files are found by globbing *<ContrastType>*.nii.gz under each
	// subject directory.
	ContrastType string

	// FlirtPath is the FLIRT command to invoke.
	FlirtPath string

	// Subjects are the subject numbers to process, formatted as sub-NN.
	Subjects []int
}

// Driver runs the registration batch over a subject roster.
type Driver struct {
	params *Params
	runner Runner
}

// NewDriver creates a driver that invokes FLIRT through os/exec.
func NewDriver(params *Params) *Driver {
	return &Driver{
		params: params,
		runner: ExecRunner{},
	}
}

// SetRunner replaces the subprocess runner. Tests use this to record
// invocations instead of executing FLIRT.
func (d *Driver) SetRunner(r Runner) {
	d.runner = r
}

// Run registers every contrast file of every subject into standard space
// and returns the output paths that are now available, in roster order.
//
// For each subject it:
//  1. globs for contrast files and a transformation matrix under the
//     subject directory, skipping the subject with a message if either
//     is absent (the first matrix in lexical order is used)
//  2. derives the output name <subID>_<contrast filename>
//  3. reuses an already-existing output instead of re-running FLIRT
//  4. otherwise invokes FLIRT with -applyxfm, logging and continuing
//     past failures
func (d *Driver) Run() ([]string, error) {
	if err := os.MkdirAll(d.params.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %v", err)
	}

	var registered []string

	for _, num := range d.params.Subjects {
		subjectID := fmt.Sprintf("sub-%02d", num)
		fmt.Printf("Processing %s...\n", subjectID)

		pattern := filepath.Join(d.params.InputDir, subjectID, "*"+d.params.ContrastType+"*.nii.gz")
		contrastFiles, err := filepath.Glob(pattern)
		if err != nil || len(contrastFiles) == 0 {
			fmt.Printf("  No %s files found for %s\n", d.params.ContrastType, subjectID)
			continue
		}

		transforms, err := filepath.Glob(filepath.Join(d.params.InputDir, subjectID, "*.mat"))
		if err != nil || len(transforms) == 0 {
			fmt.Printf("  No transformation matrix found for %s\n", subjectID)
			continue
		}
		transform := transforms[0]

		for _, contrastFile := range contrastFiles {
			contrastName := filepath.Base(contrastFile)
			outputFile := filepath.Join(d.params.OutputDir, subjectID+"_"+contrastName)

			if _, err := os.Stat(outputFile); err == nil {
				fmt.Printf("  %s already exists, skipping.\n", outputFile)
				registered = append(registered, outputFile)
				continue
			}

			fmt.Printf("  Registering %s...\n", contrastName)
			err := d.runner.Run(d.params.FlirtPath,
				"-in", contrastFile,
				"-ref", d.params.Standard,
				"-applyxfm",
				"-init", transform,
				"-out", outputFile,
			)
			if err != nil {
				fmt.Printf("  Error registering %s: %v\n", contrastName, err)
				continue
			}

			registered = append(registered, outputFile)
			fmt.Printf("  Registered to %s\n", outputFile)
		}
	}

	return registered, nil
}
