package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "checkin.json", `{
		"scenario_id": "airport_a1_checkin",
		"pack_key": "airport_a1",
		"title": "Check-in",
		"required_phrases": ["vorrei fare il check-in"],
		"turns": [{"npc_line": "Buongiorno!", "expected_phrase": "vorrei fare il check-in"}]
	}`)
	writeFile(t, dir, "broken.json", `{not json`)
	writeFile(t, dir, "empty_turns.json", `{"scenario_id": "x", "pack_key": "airport_a1", "turns": []}`)
	writeFile(t, dir, "notes.txt", `ignored`)

	c, err := Load(dir, zap.NewNop())
	require.NoError(t, err)

	assert.Equal(t, 1, c.Size())
	assert.Len(t, c.ScenariosFor("airport_a1"), 1)
	assert.Empty(t, c.ScenariosFor("hotel_a1"))
	require.NotNil(t, c.Find("airport_a1_checkin"))
	assert.Nil(t, c.Find("missing"))
}

func TestLoadMissingDir(t *testing.T) {
	c, err := Load(filepath.Join(t.TempDir(), "nope"), zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, 0, c.Size())
}

func TestKeyForPack(t *testing.T) {
	assert.Equal(t, "airport_a1", KeyForPack("it_airport_a1_v1"))
	assert.Equal(t, "airport_a2", KeyForPack("IT_AIRPORT_A2"))
	assert.Equal(t, "hotel_b1", KeyForPack("it_hotel_b1_core"))
	assert.Equal(t, "generic", KeyForPack("it_restaurant_a1"))
	assert.Equal(t, "generic", KeyForPack(""))
}
