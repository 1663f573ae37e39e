// Package catalog loads roleplay scenarios from JSON files once at
// startup and serves them grouped by pack key.
package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/Aramushaa/LingoDojo/pkg/models"
)

// Catalog is an immutable in-memory scenario index
type Catalog struct {
	byKey map[string][]models.Scenario
}

// Load reads every *.json file under dir, skipping files that fail to
// parse. A missing directory yields an empty catalog, not an error.
func Load(dir string, log *zap.Logger) (*Catalog, error) {
	c := &Catalog{byKey: map[string][]models.Scenario{}}

	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return c, nil
	}

	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, ".json") {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read scenario file: %v", err)
		}
		var s models.Scenario
		if err := json.Unmarshal(data, &s); err != nil {
			log.Warn("skipping malformed scenario file",
				zap.String("path", path), zap.Error(err))
			return nil
		}
		if s.ID == "" || len(s.Turns) == 0 {
			log.Warn("skipping incomplete scenario file", zap.String("path", path))
			return nil
		}
		c.byKey[s.PackKey] = append(c.byKey[s.PackKey], s)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load scenario catalog: %v", err)
	}

	log.Info("scenario catalog loaded", zap.Int("packs", len(c.byKey)), zap.Int("scenarios", c.Size()))
	return c, nil
}

// ScenariosFor returns the scenarios registered under a pack key
func (c *Catalog) ScenariosFor(packKey string) []models.Scenario {
	return c.byKey[packKey]
}

// Size returns the total number of loaded scenarios
func (c *Catalog) Size() int {
	n := 0
	for _, list := range c.byKey {
		n += len(list)
	}
	return n
}

// Find returns a scenario by id, or nil
func (c *Catalog) Find(scenarioID string) *models.Scenario {
	for _, list := range c.byKey {
		for i := range list {
			if list[i].ID == scenarioID {
				return &list[i]
			}
		}
	}
	return nil
}

// themes recognized in pack ids, matched against CEFR level markers
var themes = []string{"airport", "hotel"}
var levels = []string{"a1", "a2", "b1"}

// KeyForPack derives a catalog key from a pack id, e.g.
// "it_airport_a1_v1" yields "airport_a1". Unknown shapes map to "generic".
func KeyForPack(packID string) string {
	pid := strings.ToLower(packID)
	for _, theme := range themes {
		if !strings.Contains(pid, theme) {
			continue
		}
		for _, level := range levels {
			if strings.Contains(pid, level) {
				return theme + "_" + level
			}
		}
	}
	return "generic"
}
