package githubmock

import (
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"
)

// Seed is the YAML fixture format accepted by LoadSeed.
//
//	repos:
//	  - owner: acme
//	    repo: widgets
//	    branch: master
//	    files:
//	      README.md: "hello\n"
type Seed struct {
	Repos []SeedRepo `yaml:"repos"`
}

// SeedRepo is one branch of one repository.
type SeedRepo struct {
	Owner  string            `yaml:"owner"`
	Repo   string            `yaml:"repo"`
	Branch string            `yaml:"branch"`
	Files  map[string]string `yaml:"files"`
}

// LoadSeed reads a YAML fixture into s. Branch defaults to master.
func (s *Store) LoadSeed(r io.Reader) error {
	var seed Seed
	if err := yaml.NewDecoder(r).Decode(&seed); err != nil {
		return fmt.Errorf("decode seed: %w", err)
	}
	for i, sr := range seed.Repos {
		if sr.Owner == "" || sr.Repo == "" {
			return fmt.Errorf("seed repo %d: owner and repo are required", i)
		}
		branch := sr.Branch
		if branch == "" {
			branch = "master"
		}
		for path, content := range sr.Files {
			s.SetFile(sr.Owner, sr.Repo, branch, path, content)
		}
	}
	return nil
}

// DemoSeed populates a small repository used when mock-github starts without a fixture.
const DemoSeed = `repos:
  - owner: acme
    repo: widgets
    branch: master
    files:
      README.md: |
        # widgets
        Demo repository served by mock-github.
      docs/index.md: |
        # Docs
      docs/guides/setup.md: |
        Run make.
      src/main.go: |
        package main

        func main() {}
  - owner: acme
    repo: widgets
    branch: develop
    files:
      README.md: |
        # widgets (develop)
`

// LoadDemo loads DemoSeed into s.
func (s *Store) LoadDemo() error {
	return s.LoadSeed(strings.NewReader(DemoSeed))
}
