// Package stash implements named stashes on top of git's anonymous stash
// stack. Each save records metadata (name, branch, creation time, stash
// commit) under .git/keel/stashes.json so stashes can be applied and
// dropped by name even after the positional stack has shifted.
package stash

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/mrz1836/keel/internal/clock"
	"github.com/mrz1836/keel/internal/constants"
	keelerrors "github.com/mrz1836/keel/internal/errors"
	"github.com/mrz1836/keel/internal/feature"
	"github.com/mrz1836/keel/internal/statefile"
)

// GitRunner is the subset of git operations the manager needs.
// *git.CLIRunner satisfies it.
type GitRunner interface {
	CurrentBranch(ctx context.Context) (string, error)
	StashPush(ctx context.Context, message string) (string, error)
	StashApply(ctx context.Context, sha string) error
	StashDrop(ctx context.Context, sha string) error
}

// Entry is one named stash.
type Entry struct {
	Name      string    `json:"name"`
	Message   string    `json:"message,omitempty"`
	Branch    string    `json:"branch"`
	CreatedAt time.Time `json:"created_at"`
	StashSHA  string    `json:"stash_sha"`
}

// Options are the effective stash_manager settings.
type Options struct {
	// MaxStashes caps how many named stashes may exist at once. Zero means
	// unlimited.
	MaxStashes int `mapstructure:"max_stashes"`
}

// DefaultConfig returns the feature's built-in option values.
func DefaultConfig() map[string]any {
	return map[string]any{
		"max_stashes": 20,
	}
}

// ResolveOptions merges user overrides over the defaults and decodes the
// result.
func ResolveOptions(overrides map[string]any) (Options, error) {
	var opts Options
	if err := feature.DecodeConfig(feature.MergeConfig(DefaultConfig(), overrides), &opts); err != nil {
		return Options{}, keelerrors.Wrap(err, "decoding stash_manager options")
	}
	return opts, nil
}

// Manager saves, applies, and drops named stashes.
type Manager struct {
	git  GitRunner
	path string
	opts Options
	clk  clock.Clock
	log  zerolog.Logger
}

// Params configures a new Manager.
type Params struct {
	Git    GitRunner
	GitDir string
	Opts   Options
	Clock  clock.Clock
	Logger zerolog.Logger
}

// NewManager creates a stash manager. A nil Clock falls back to the system
// clock.
func NewManager(p Params) *Manager {
	clk := p.Clock
	if clk == nil {
		clk = clock.RealClock{}
	}
	return &Manager{
		git:  p.Git,
		path: statefile.PathIn(p.GitDir, constants.StashMetadataFileName),
		opts: p.Opts,
		clk:  clk,
		log:  p.Logger,
	}
}

// load reads the name -> entry metadata map.
func (m *Manager) load() (map[string]Entry, error) {
	entries := make(map[string]Entry)
	if _, err := statefile.Load(m.path, &entries); err != nil {
		return nil, keelerrors.Wrap(err, "loading stash metadata")
	}
	return entries, nil
}

func (m *Manager) save(entries map[string]Entry) error {
	return keelerrors.Wrap(statefile.Save(m.path, entries), "saving stash metadata")
}

// Save stashes the working tree under a unique name. The name is validated
// and the limit checked before the tree is touched.
func (m *Manager) Save(ctx context.Context, name, message string) (*Entry, error) {
	if name == "" {
		return nil, fmt.Errorf("stash name: %w", keelerrors.ErrEmptyValue)
	}
	entries, err := m.load()
	if err != nil {
		return nil, err
	}
	if _, exists := entries[name]; exists {
		return nil, fmt.Errorf("stash %q: %w", name, keelerrors.ErrStashExists)
	}
	if m.opts.MaxStashes > 0 && len(entries) >= m.opts.MaxStashes {
		return nil, fmt.Errorf("%d stashes (max %d): %w", len(entries), m.opts.MaxStashes, keelerrors.ErrStashLimit)
	}

	branch, err := m.git.CurrentBranch(ctx)
	if err != nil {
		return nil, err
	}
	sha, err := m.git.StashPush(ctx, name)
	if err != nil {
		return nil, err
	}

	entry := Entry{
		Name:      name,
		Message:   message,
		Branch:    branch,
		CreatedAt: m.clk.Now(),
		StashSHA:  sha,
	}
	entries[name] = entry
	if err := m.save(entries); err != nil {
		return nil, err
	}

	m.log.Info().Str("stash", name).Str("branch", branch).Msg("stash saved")
	return &entry, nil
}

// Apply re-applies a named stash without dropping it.
func (m *Manager) Apply(ctx context.Context, name string) (*Entry, error) {
	entry, err := m.get(name)
	if err != nil {
		return nil, err
	}
	if err := m.git.StashApply(ctx, entry.StashSHA); err != nil {
		return nil, err
	}
	m.log.Info().Str("stash", name).Msg("stash applied")
	return entry, nil
}

// Drop removes a named stash and its metadata. The metadata is removed even
// when the underlying stash commit has already been dropped out-of-band.
func (m *Manager) Drop(ctx context.Context, name string) error {
	entry, err := m.get(name)
	if err != nil {
		return err
	}
	if err := m.git.StashDrop(ctx, entry.StashSHA); err != nil && !isMissingStash(err) {
		return err
	}

	entries, err := m.load()
	if err != nil {
		return err
	}
	delete(entries, name)
	if err := m.save(entries); err != nil {
		return err
	}
	m.log.Info().Str("stash", name).Msg("stash dropped")
	return nil
}

// List returns all named stashes, newest first.
func (m *Manager) List() ([]Entry, error) {
	entries, err := m.load()
	if err != nil {
		return nil, err
	}
	out := make([]Entry, 0, len(entries))
	for _, e := range entries {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

func (m *Manager) get(name string) (*Entry, error) {
	entries, err := m.load()
	if err != nil {
		return nil, err
	}
	entry, ok := entries[name]
	if !ok {
		return nil, fmt.Errorf("stash %q: %w", name, keelerrors.ErrStashNotFound)
	}
	return &entry, nil
}

func isMissingStash(err error) bool {
	return errors.Is(err, keelerrors.ErrStashNotFound)
}
