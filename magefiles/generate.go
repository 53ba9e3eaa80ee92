package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// Generate builds the CLI and runs one batch. The instruction comes from
// $INSTRUCTION and the article cap from $MAX (default 5).
func Generate() error {
	mg.Deps(Init, Build)

	instruction := os.Getenv("INSTRUCTION")
	if instruction == "" {
		return fmt.Errorf("set INSTRUCTION to a short description of the business")
	}
	args := []string{"generate", instruction}
	if limit := os.Getenv("MAX"); limit != "" {
		args = append(args, "--max", limit)
	}
	return sh.RunV(filepath.Join(binDir, binName), args...)
}

// Titles lists the titles already in the output directory.
func Titles() error {
	mg.Deps(Build)
	return sh.RunV(filepath.Join(binDir, binName), "titles")
}
