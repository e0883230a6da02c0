package retrieval

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/spec-kit/ticket-triage/internal/domain"
)

// Section holds the passages filed under one category.
type Section struct {
	Category domain.Category `yaml:"category"`
	Passages []string        `yaml:"passages"`
}

// KnowledgeBase is the raw reference material the index is built from.
type KnowledgeBase struct {
	Sections []Section `yaml:"sections"`
}

// Load reads a knowledge base from a directory of <category>.txt files or from a YAML file.
func Load(path string) (*KnowledgeBase, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat knowledge base: %w", err)
	}
	if info.IsDir() {
		return LoadDir(path)
	}
	return LoadYAML(path)
}

// LoadDir reads every .txt file in dir. The capitalized file stem names the
// category and each non-blank line is one passage. Files are read in name order.
func LoadDir(dir string) (*KnowledgeBase, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read knowledge base dir: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".txt") {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)

	kb := &KnowledgeBase{}
	for _, name := range names {
		passages, err := readLines(filepath.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", name, err)
		}
		kb.Sections = append(kb.Sections, Section{
			Category: domain.Category(capitalize(strings.TrimSuffix(name, ".txt"))),
			Passages: passages,
		})
	}
	return kb, nil
}

// LoadYAML reads a knowledge base document of the form
//
//	sections:
//	  - category: Billing
//	    passages: ["...", "..."]
func LoadYAML(path string) (*KnowledgeBase, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read knowledge base: %w", err)
	}
	var kb KnowledgeBase
	if err := yaml.Unmarshal(raw, &kb); err != nil {
		return nil, fmt.Errorf("parse knowledge base: %w", err)
	}
	for i, s := range kb.Sections {
		if strings.TrimSpace(string(s.Category)) == "" {
			return nil, fmt.Errorf("section %d has no category", i)
		}
		kept := s.Passages[:0]
		for _, p := range s.Passages {
			if p = strings.TrimSpace(p); p != "" {
				kept = append(kept, p)
			}
		}
		kb.Sections[i].Passages = kept
	}
	return &kb, nil
}

func readLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var lines []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		if line := strings.TrimSpace(sc.Text()); line != "" {
			lines = append(lines, line)
		}
	}
	return lines, sc.Err()
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	lower := strings.ToLower(s)
	return strings.ToUpper(lower[:1]) + lower[1:]
}
