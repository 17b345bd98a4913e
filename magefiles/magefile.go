//go:build mage

// Package main provides build targets for clientdb using Mage.
//
// Usage:
//
//	mage build          Compile clientdb to bin/
//	mage test:all       Run every test
//	mage test:race      Run every test with the race detector
//	mage test:cover     Write coverage.out and print per-function coverage
//	mage lint           Run golangci-lint
//	mage clean          Remove build artifacts
//	mage install        Install clientdb to GOPATH/bin
//	mage stats          Print Go lines of code per package
package main

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

const (
	binGo       = "go"
	binaryName  = "clientdb"
	binaryDir   = "bin"
	cmdDir      = "./cmd/clientdb"
	versionVar  = "github.com/cartronic/clientdb/internal/cli.Version"
	coverageOut = "coverage.out"
)

// Build compiles the clientdb binary to bin/, stamping the version from
// `git describe` when available.
func Build() error {
	if err := os.MkdirAll(binaryDir, 0o755); err != nil {
		return err
	}
	args := []string{"build", "-v", "-o", filepath.Join(binaryDir, binaryName)}
	if v := gitVersion(); v != "" {
		args = append(args, "-ldflags", "-X "+versionVar+"="+v)
	}
	return sh.RunV(binGo, append(args, cmdDir)...)
}

func gitVersion() string {
	out, err := sh.Output("git", "describe", "--tags", "--always", "--dirty")
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(strings.TrimSpace(out), "v")
}

// Lint runs golangci-lint.
func Lint() error {
	return sh.RunV("golangci-lint", "run", "./...")
}

// Clean removes build artifacts.
func Clean() error {
	for _, p := range []string{binaryDir, coverageOut} {
		if err := os.RemoveAll(p); err != nil {
			return err
		}
	}
	return sh.RunV(binGo, "clean")
}

// Install builds and copies the binary to GOPATH/bin.
func Install() error {
	mg.Deps(Build)
	gopath, err := sh.Output(binGo, "env", "GOPATH")
	if err != nil {
		return err
	}
	src := filepath.Join(binaryDir, binaryName)
	dst := filepath.Join(gopath, "bin", binaryName)
	return sh.Copy(dst, src)
}
