package autotag

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type tableFile struct {
	Categories []Category `yaml:"categories"`
}

// LoadCategories reads a keyword table from a YAML file of the form
//
//	categories:
//	  - name: work
//	    keywords: [project, meeting]
func LoadCategories(path string) ([]Category, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading keyword table: %w", err)
	}
	return ParseCategories(data)
}

// ParseCategories decodes a YAML keyword table.
func ParseCategories(data []byte) ([]Category, error) {
	var f tableFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing keyword table: %w", err)
	}
	if len(f.Categories) == 0 {
		return nil, fmt.Errorf("keyword table has no categories")
	}
	for i, c := range f.Categories {
		if c.Name == "" {
			return nil, fmt.Errorf("category %d has no name", i)
		}
		if len(c.Keywords) == 0 {
			return nil, fmt.Errorf("category %q has no keywords", c.Name)
		}
	}
	return f.Categories, nil
}
