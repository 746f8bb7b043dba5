package registry

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LeonardoBeccarini/farmtech/internal/model/entities"
)

const cropsJSON = `[
  {"id": "b1", "name": "Bananal Norte", "crop_type": "banana", "area_hectares": 2.5,
   "npk_requirements": {"nitrogen": 10, "phosphorus": 5, "potassium": 20}, "ideal_ph": 6.0, "ideal_humidity": 65},
  {"id": "m1", "name": "Milharal", "crop_type": "MILHO", "area_hectares": 4,
   "npk_requirements": {"nitrogen": 12, "phosphorus": 6, "potassium": 8}, "ideal_ph": 6.2, "ideal_humidity": 60}
]`

const cropsYAML = `
- id: s1
  name: Soja Sul
  crop_type: soja
  area_hectares: 1.5
  ideal_ph: 6.5
  ideal_humidity: 55
`

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(body), 0o600))
	return p
}

func TestLoadJSON(t *testing.T) {
	r, err := Load(writeFile(t, "crops.json", cropsJSON))
	require.NoError(t, err)

	b, ok := r.Get("b1")
	require.True(t, ok)
	assert.Equal(t, entities.Banana, b.Type)
	assert.Equal(t, 20.0, b.NPK.Potassium)

	m, ok := r.Get("m1")
	require.True(t, ok)
	assert.Equal(t, entities.Corn, m.Type)

	assert.Equal(t, 6.5, r.TotalArea())
	assert.Len(t, r.ByType(entities.Corn), 1)
}

func TestLoadYAML(t *testing.T) {
	r, err := Load(writeFile(t, "crops.yaml", cropsYAML))
	require.NoError(t, err)

	s, ok := r.Get("s1")
	require.True(t, ok)
	assert.Equal(t, entities.KindGeneric, s.Type.Kind)
	assert.Equal(t, "SOJA", s.Type.Name)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)

	_, err = Load(writeFile(t, "bad.json", "{"))
	assert.Error(t, err)
}

func TestAddValidation(t *testing.T) {
	valid := entities.CropProfile{ID: "x", Name: "X", Type: entities.Corn, AreaHectares: 1, IdealPH: 6, IdealHumidity: 60}
	r, err := New(valid)
	require.NoError(t, err)

	cases := map[string]func(c *entities.CropProfile){
		"empty id":     func(c *entities.CropProfile) { c.ID = " " },
		"empty name":   func(c *entities.CropProfile) { c.Name = "" },
		"zero area":    func(c *entities.CropProfile) { c.AreaHectares = 0 },
		"ph":           func(c *entities.CropProfile) { c.IdealPH = 9.5 },
		"humidity":     func(c *entities.CropProfile) { c.IdealHumidity = 120 },
		"negative npk": func(c *entities.CropProfile) { c.NPK.Potassium = -1 },
	}
	for name, mut := range cases {
		t.Run(name, func(t *testing.T) {
			c := valid
			mut(&c)
			assert.ErrorIs(t, r.Add(c), ErrInvalidCrop)
		})
	}
}

func TestListSorted(t *testing.T) {
	r, err := New(
		entities.CropProfile{ID: "z", Name: "Z", AreaHectares: 1, IdealPH: 6},
		entities.CropProfile{ID: "a", Name: "A", AreaHectares: 1, IdealPH: 6},
	)
	require.NoError(t, err)
	list := r.List()
	require.Len(t, list, 2)
	assert.Equal(t, "a", list[0].ID)
}

func TestByTypeUnnamedGenericAfterReload(t *testing.T) {
	r, err := New(entities.CropProfile{ID: "g1", Name: "Horta", Type: entities.CropType{}, AreaHectares: 1, IdealPH: 6, IdealHumidity: 60})
	require.NoError(t, err)

	b, err := json.Marshal(r.List())
	require.NoError(t, err)
	reloaded, err := Load(writeFile(t, "crops.json", string(b)))
	require.NoError(t, err)

	got := reloaded.ByType(entities.CropType{})
	require.Len(t, got, 1)
	assert.Equal(t, "g1", got[0].ID)
}
