package persistence

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/AlexsanderHamir/gwizpool/pool"

	gojson "github.com/goccy/go-json"
)

// ConfigRecord is the persisted part of a pool.PoolConfig.
type ConfigRecord struct {
	MinPoolSize     int    `json:"MinPoolSize"`
	MaxPoolSize     int    `json:"MaxPoolSize"`
	InitialPoolSize int    `json:"InitialPoolSize"`
	Priority        int    `json:"Priority"`
	Category        string `json:"Category"`
}

func RecordFromConfig(cfg pool.PoolConfig) ConfigRecord {
	return ConfigRecord{
		MinPoolSize:     cfg.MinSize,
		MaxPoolSize:     cfg.MaxSize,
		InitialPoolSize: cfg.InitialSize,
		Priority:        cfg.Priority,
		Category:        cfg.Category,
	}
}

// Apply overlays the record on base. Toggles and timeouts are not persisted
// and come from base.
func (r ConfigRecord) Apply(base pool.PoolConfig) pool.PoolConfig {
	base.MinSize = r.MinPoolSize
	base.MaxSize = r.MaxPoolSize
	base.InitialSize = r.InitialPoolSize
	base.Priority = r.Priority
	base.Category = r.Category
	if base.Category == "" {
		base.Category = pool.DefaultCategory
	}
	return base
}

// LevelConfigs maps type names to their config within one level.
type LevelConfigs map[string]ConfigRecord

// State is the document saved across sessions: configs that apply
// everywhere, and per-level overrides.
type State struct {
	PoolConfigs  map[string]ConfigRecord `json:"PoolConfigs"`
	LevelConfigs map[string]LevelConfigs `json:"LevelConfigs"`
}

func NewState() *State {
	return &State{
		PoolConfigs:  make(map[string]ConfigRecord),
		LevelConfigs: make(map[string]LevelConfigs),
	}
}

// Clone returns a deep copy.
func (s *State) Clone() *State {
	out := NewState()
	for k, v := range s.PoolConfigs {
		out.PoolConfigs[k] = v
	}
	for level, cfgs := range s.LevelConfigs {
		copied := make(LevelConfigs, len(cfgs))
		for k, v := range cfgs {
			copied[k] = v
		}
		out.LevelConfigs[level] = copied
	}
	return out
}

// Merge copies every entry of other into s, overwriting on conflict.
func (s *State) Merge(other *State) {
	if other == nil {
		return
	}
	for k, v := range other.PoolConfigs {
		s.PoolConfigs[k] = v
	}
	for level, cfgs := range other.LevelConfigs {
		dst, ok := s.LevelConfigs[level]
		if !ok {
			dst = make(LevelConfigs, len(cfgs))
			s.LevelConfigs[level] = dst
		}
		for k, v := range cfgs {
			dst[k] = v
		}
	}
}

func (s *State) normalize() {
	if s.PoolConfigs == nil {
		s.PoolConfigs = make(map[string]ConfigRecord)
	}
	if s.LevelConfigs == nil {
		s.LevelConfigs = make(map[string]LevelConfigs)
	}
	for level, cfgs := range s.LevelConfigs {
		if cfgs == nil {
			s.LevelConfigs[level] = make(LevelConfigs)
		}
	}
}

func Marshal(s *State) ([]byte, error) {
	return gojson.MarshalIndent(s, "", "  ")
}

func Unmarshal(data []byte) (*State, error) {
	s := NewState()
	if err := gojson.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("failed to parse pool state: %w", err)
	}
	s.normalize()
	return s, nil
}

// ReadFile loads a state document. A missing file yields an empty state.
func ReadFile(path string) (*State, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return NewState(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read pool state %s: %w", path, err)
	}
	return Unmarshal(data)
}

// WriteFile saves the document atomically, creating parent directories.
func WriteFile(path string, s *State) error {
	data, err := Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to encode pool state: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write pool state: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to replace pool state: %w", err)
	}
	return nil
}
