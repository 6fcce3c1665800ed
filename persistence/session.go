package persistence

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/AlexsanderHamir/gwizpool/manager"
	"github.com/AlexsanderHamir/gwizpool/pool"

	"go.uber.org/zap"
)

// DefaultStatePath is where a session keeps its state when none is given.
const DefaultStatePath = "PoolingSystem/PoolState.json"

var ErrNotInitialized = errors.New("pooling session is not initialized")

// Session owns the manager for the lifetime of an application run. It
// applies persisted configs on Init, reconfigures pools on level
// transitions and saves the configs on Shutdown.
type Session struct {
	mu sync.Mutex

	m         *manager.Manager
	state     *State
	statePath string

	initialized bool

	log *zap.Logger
}

type SessionOption func(*Session)

func WithLogger(log *zap.Logger) SessionOption {
	return func(s *Session) {
		if log != nil {
			s.log = log
		}
	}
}

// WithStatePath sets the file Init loads from and Shutdown saves to. An
// empty path disables both.
func WithStatePath(path string) SessionOption {
	return func(s *Session) {
		s.statePath = path
	}
}

// WithState seeds the session with configs, typically level overrides
// shipped with the application.
func WithState(state *State) SessionOption {
	return func(s *Session) {
		if state != nil {
			s.state.Merge(state)
		}
	}
}

func NewSession(m *manager.Manager, opts ...SessionOption) *Session {
	s := &Session{
		m:         m,
		state:     NewState(),
		statePath: DefaultStatePath,
		log:       zap.NewNop(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

func (s *Session) Manager() *manager.Manager {
	return s.m
}

func (s *Session) Initialized() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.initialized
}

// Init loads the state file, if any, and applies the saved pool configs.
// Calling it again is a no-op.
func (s *Session) Init() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.initialized {
		return nil
	}

	if s.statePath != "" {
		loaded, err := ReadFile(s.statePath)
		if err != nil {
			s.log.Error("failed to load pooling state", zap.String("path", s.statePath), zap.Error(err))
			return err
		}
		s.state.Merge(loaded)
	}

	if _, err := s.loadPoolConfigurations(); err != nil {
		s.log.Warn("some saved pool configs were rejected", zap.Error(err))
	}

	s.initialized = true
	s.log.Info("pooling system initialized",
		zap.Int("pool_configs", len(s.state.PoolConfigs)),
		zap.Int("levels", len(s.state.LevelConfigs)))

	return nil
}

// Shutdown saves the current pool configs, then clears every pool.
func (s *Session) Shutdown() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return nil
	}

	s.savePoolConfigurations()

	var err error
	if s.statePath != "" {
		if err = WriteFile(s.statePath, s.state); err != nil {
			s.log.Error("failed to save pooling state", zap.String("path", s.statePath), zap.Error(err))
		}
	}

	s.m.ClearAll()
	s.initialized = false

	return err
}

// SavePoolConfigurations records every pool's current config as a global
// config.
func (s *Session) SavePoolConfigurations() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return ErrNotInitialized
	}

	s.savePoolConfigurations()
	return nil
}

func (s *Session) savePoolConfigurations() {
	for _, p := range s.m.AllPools() {
		s.state.PoolConfigs[string(p.DeclaredType())] = RecordFromConfig(p.Config())
	}
}

// LoadPoolConfigurations applies every saved global config and returns how
// many were applied.
func (s *Session) LoadPoolConfigurations() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return 0, ErrNotInitialized
	}

	return s.loadPoolConfigurations()
}

func (s *Session) loadPoolConfigurations() (int, error) {
	return s.apply(s.state.PoolConfigs)
}

// apply configures a pool per record. Unknown types are skipped, rejected
// configs are collected.
func (s *Session) apply(records map[string]ConfigRecord) (int, error) {
	applied := 0
	var errs []error

	for _, name := range sortedKeys(records) {
		t := pool.TypeID(name)
		if !s.m.KnowsType(t) {
			s.log.Warn("skipping config for unknown type", zap.String("type", name))
			continue
		}

		base := s.m.DefaultPoolConfig()
		if p, ok := s.m.Pool(t); ok {
			base = p.Config()
		}

		if err := s.m.ConfigurePool(t, records[name].Apply(base)); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
			continue
		}
		applied++
	}

	return applied, errors.Join(errs...)
}

// SetLevelConfig stores the config a type gets when level starts. Invalid
// configs are rejected.
func (s *Session) SetLevelConfig(level string, t pool.TypeID, cfg pool.PoolConfig) error {
	if err := cfg.Validate(); err != nil {
		s.log.Warn("rejecting invalid level config",
			zap.String("level", level),
			zap.String("type", string(t)),
			zap.Error(err))
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cfgs, ok := s.state.LevelConfigs[level]
	if !ok {
		cfgs = make(LevelConfigs)
		s.state.LevelConfigs[level] = cfgs
	}
	cfgs[string(t)] = RecordFromConfig(cfg)
	return nil
}

// ForgetLevel drops the stored configs for level.
func (s *Session) ForgetLevel(level string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.state.LevelConfigs, level)
}

// SetupPoolsForLevel applies the level's configs and returns how many were
// applied. A level without configs is a no-op.
func (s *Session) SetupPoolsForLevel(level string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return 0, ErrNotInitialized
	}

	return s.setupPoolsForLevel(level)
}

func (s *Session) setupPoolsForLevel(level string) (int, error) {
	cfgs, ok := s.state.LevelConfigs[level]
	if !ok {
		return 0, nil
	}
	return s.apply(cfgs)
}

// PreWarmPoolsForLevel sets up the level's pools, then prewarms every pool.
// It returns how many instances were created.
func (s *Session) PreWarmPoolsForLevel(level string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return 0, ErrNotInitialized
	}

	return s.preWarmPoolsForLevel(level)
}

func (s *Session) preWarmPoolsForLevel(level string) (int, error) {
	_, setupErr := s.setupPoolsForLevel(level)

	created, err := s.m.PreWarmAll()
	s.log.Info("pools prewarmed for level", zap.String("level", level), zap.Int("created", created))

	return created, errors.Join(setupErr, err)
}

// CleanupPoolsForLevel shrinks the pools the level configured down to their
// minimum. The pools and the level's configs are kept for later levels.
func (s *Session) CleanupPoolsForLevel(level string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return 0, ErrNotInitialized
	}

	return s.cleanupPoolsForLevel(level), nil
}

func (s *Session) cleanupPoolsForLevel(level string) int {
	removed := 0
	for _, name := range sortedKeys(s.state.LevelConfigs[level]) {
		p, ok := s.m.Pool(pool.TypeID(name))
		if !ok {
			continue
		}
		if p.InUse() == 0 {
			removed += p.ShrinkToMinimum()
		}
	}
	return removed
}

// CleanupUnusedPoolsForLevel shrinks every idle pool, then the level's pools.
func (s *Session) CleanupUnusedPoolsForLevel(level string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return 0, ErrNotInitialized
	}

	removed := s.m.CleanupUnused() + s.cleanupPoolsForLevel(level)
	s.log.Info("unused pools cleaned up for level", zap.String("level", level), zap.Int("removed", removed))
	return removed, nil
}

// HandleLevelTransition cleans up after the old level and prepares the new
// one. Either name may be empty.
func (s *Session) HandleLevelTransition(oldLevel, newLevel string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return ErrNotInitialized
	}

	if oldLevel != "" {
		s.cleanupPoolsForLevel(oldLevel)
	}

	if newLevel == "" {
		return nil
	}

	_, err := s.preWarmPoolsForLevel(newLevel)
	return err
}

// SaveState records the current pool configs and writes the state to path.
func (s *Session) SaveState(path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		s.log.Warn("save state: pooling system not initialized")
		return ErrNotInitialized
	}

	s.savePoolConfigurations()
	if err := WriteFile(path, s.state); err != nil {
		return err
	}

	s.log.Info("pooling state saved", zap.String("path", path))
	return nil
}

// LoadState merges the state at path into the session and applies the
// global configs.
func (s *Session) LoadState(path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		s.log.Warn("load state: pooling system not initialized")
		return ErrNotInitialized
	}

	loaded, err := ReadFile(path)
	if err != nil {
		return err
	}
	s.state.Merge(loaded)

	_, err = s.loadPoolConfigurations()
	s.log.Info("pooling state loaded", zap.String("path", path))
	return err
}

// State returns a copy of the session's configs.
func (s *Session) State() *State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
