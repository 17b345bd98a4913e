//go:build mage

package main

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Stats prints Go lines of code per package, split into production and test.
func Stats() error {
	type counts struct{ prod, test int }
	perPkg := map[string]*counts{}

	err := filepath.Walk(".", func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if info.IsDir() {
			switch path {
			case "vendor", ".git", "magefiles", "_examples", binaryDir:
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.HasSuffix(path, ".go") {
			return nil
		}
		n, err := countLines(path)
		if err != nil {
			return nil
		}
		dir := filepath.Dir(path)
		c, ok := perPkg[dir]
		if !ok {
			c = &counts{}
			perPkg[dir] = c
		}
		if strings.HasSuffix(path, "_test.go") {
			c.test += n
		} else {
			c.prod += n
		}
		return nil
	})
	if err != nil {
		return err
	}

	dirs := make([]string, 0, len(perPkg))
	for d := range perPkg {
		dirs = append(dirs, d)
	}
	sort.Strings(dirs)

	var prod, test int
	fmt.Printf("%-24s %8s %8s\n", "package", "prod", "test")
	for _, d := range dirs {
		c := perPkg[d]
		prod += c.prod
		test += c.test
		fmt.Printf("%-24s %8d %8d\n", d, c.prod, c.test)
	}
	fmt.Printf("%-24s %8d %8d\n", "total", prod, test)
	return nil
}

func countLines(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	count := 0
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		count++
	}
	return count, scanner.Err()
}
