//go:build mage

// Package main provides build targets for the loungepos project using Mage.
//
// Usage:
//
//	mage build     Compile the loungepos binary to bin/
//	mage test      Run all tests
//	mage lint      Run golangci-lint
//	mage install   Install loungepos to GOPATH/bin
//	mage clean     Remove build artifacts
package main

import (
	"os"
	"path/filepath"

	"github.com/magefile/mage/sh"
)

const (
	binaryName = "loungepos"
	binaryDir  = "bin"
	cmdDir     = "./cmd/loungepos"
)

// Build compiles the loungepos binary to bin/.
func Build() error {
	if err := os.MkdirAll(binaryDir, 0o755); err != nil {
		return err
	}
	return sh.RunV("go", "build", "-v", "-o", filepath.Join(binaryDir, binaryName), cmdDir)
}

// Test runs all tests.
func Test() error {
	return sh.RunV("go", "test", "./...")
}

// Lint runs golangci-lint.
func Lint() error {
	return sh.RunV("golangci-lint", "run", "./...")
}

// Install installs the loungepos binary to GOPATH/bin.
func Install() error {
	return sh.RunV("go", "install", cmdDir)
}

// Clean removes build artifacts.
func Clean() error {
	return os.RemoveAll(binaryDir)
}
