// Package registry holds the crop profiles known to the irrigation controller.
package registry

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/LeonardoBeccarini/farmtech/internal/model/entities"
)

var ErrInvalidCrop = errors.New("invalid crop")

type Registry struct {
	mu    sync.RWMutex
	crops map[string]entities.CropProfile
}

func New(crops ...entities.CropProfile) (*Registry, error) {
	r := &Registry{crops: make(map[string]entities.CropProfile, len(crops))}
	for _, c := range crops {
		if err := r.Add(c); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Load reads a crop file. The format follows the extension: .yaml/.yml, otherwise JSON.
func Load(path string) (*Registry, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var crops []entities.CropProfile
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(raw, &crops)
	default:
		err = json.Unmarshal(raw, &crops)
	}
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return New(crops...)
}

// Add validates and stores a crop, replacing any crop with the same ID.
func (r *Registry) Add(c entities.CropProfile) error {
	c.ID = strings.TrimSpace(c.ID)
	c.Name = strings.TrimSpace(c.Name)
	if err := validate(c); err != nil {
		return err
	}
	r.mu.Lock()
	r.crops[c.ID] = c
	r.mu.Unlock()
	return nil
}

func (r *Registry) Get(id string) (entities.CropProfile, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.crops[id]
	return c, ok
}

// List returns all crops ordered by ID.
func (r *Registry) List() []entities.CropProfile {
	r.mu.RLock()
	out := make([]entities.CropProfile, 0, len(r.crops))
	for _, c := range r.crops {
		out = append(out, c)
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (r *Registry) ByType(t entities.CropType) []entities.CropProfile {
	var out []entities.CropProfile
	for _, c := range r.List() {
		if c.Type == t {
			out = append(out, c)
		}
	}
	return out
}

func (r *Registry) TotalArea() float64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var sum float64
	for _, c := range r.crops {
		sum += c.AreaHectares
	}
	return sum
}

func validate(c entities.CropProfile) error {
	switch {
	case c.ID == "":
		return fmt.Errorf("%w: empty id", ErrInvalidCrop)
	case c.Name == "":
		return fmt.Errorf("%w %s: empty name", ErrInvalidCrop, c.ID)
	case c.AreaHectares <= 0:
		return fmt.Errorf("%w %s: area must be > 0", ErrInvalidCrop, c.ID)
	case c.IdealPH < 3.0 || c.IdealPH > 9.0:
		return fmt.Errorf("%w %s: ideal pH %g not in 3.0-9.0", ErrInvalidCrop, c.ID, c.IdealPH)
	case c.IdealHumidity < 0 || c.IdealHumidity > 100:
		return fmt.Errorf("%w %s: ideal humidity %g not in 0-100", ErrInvalidCrop, c.ID, c.IdealHumidity)
	case c.NPK.Nitrogen < 0 || c.NPK.Phosphorus < 0 || c.NPK.Potassium < 0:
		return fmt.Errorf("%w %s: negative NPK requirement", ErrInvalidCrop, c.ID)
	}
	return nil
}
