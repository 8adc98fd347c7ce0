// Package prefs reads, validates and applies the user's persisted preferences.
package prefs

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/verte-zerg/shellfolio/internal/model"
)

// ErrInvalidValue is returned when a value is not in the enumerated set of its key.
var ErrInvalidValue = errors.New("invalid preference value")

// Storage persists preference values across sessions.
type Storage interface {
	GetPreference(ctx context.Context, key string) (string, bool, error)
	SetPreference(ctx context.Context, key, value string) error
}

// Document is the part of the page preferences are applied to.
type Document interface {
	SetLang(lang string) error
	Check(id string) error
}

// Store is the sole writer of user preferences.
type Store struct {
	storage Storage
	log     *zap.Logger
}

// New returns a preference store backed by storage.
func New(storage Storage, log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{storage: storage, log: log}
}

// Get returns the persisted value for key or its default. It never fails.
func (s *Store) Get(ctx context.Context, key model.PrefKey) string {
	value, ok, err := s.storage.GetPreference(ctx, string(key))
	if err != nil {
		s.log.Warn("failed to read preference", zap.String("key", string(key)), zap.Error(err))
		return model.DefaultValue(key)
	}
	if !ok {
		return model.DefaultValue(key)
	}
	if !model.ValidValue(key, value) {
		s.log.Warn("ignoring invalid stored preference", zap.String("key", string(key)), zap.String("value", value))
		return model.DefaultValue(key)
	}
	return value
}

// All returns a snapshot of every preference.
func (s *Store) All(ctx context.Context) model.Preferences {
	return model.Preferences{
		Language:  s.Get(ctx, model.PrefLanguage),
		Theme:     s.Get(ctx, model.PrefTheme),
		Animation: s.Get(ctx, model.PrefAnimation),
	}
}

// Set persists value for key. Values outside the enumerated set are rejected
// and the previously stored value is kept.
func (s *Store) Set(ctx context.Context, key model.PrefKey, value string) error {
	if !model.ValidValue(key, value) {
		s.log.Warn("rejected preference value",
			zap.String("key", string(key)),
			zap.String("value", value),
			zap.Strings("allowed", model.AllowedValues(key)))
		return fmt.Errorf("%w: %s=%q (allowed: %s)", ErrInvalidValue, key, value, strings.Join(model.AllowedValues(key), ", "))
	}
	if err := s.storage.SetPreference(ctx, string(key), value); err != nil {
		s.log.Warn("failed to store preference", zap.String("key", string(key)), zap.Error(err))
		return fmt.Errorf("failed to store %s: %w", key, err)
	}
	return nil
}

// ApplyOverrides persists preference values passed as URL query parameters.
// Recognized parameters are lang, theme and anim (or animation); anim also
// accepts true and false.
func (s *Store) ApplyOverrides(ctx context.Context, query url.Values) {
	params := []struct {
		key   model.PrefKey
		names []string
	}{
		{model.PrefLanguage, []string{"lang", "language"}},
		{model.PrefTheme, []string{"theme"}},
		{model.PrefAnimation, []string{"anim", "animation"}},
	}
	for _, p := range params {
		for _, name := range p.names {
			if !query.Has(name) {
				continue
			}
			value := strings.ToLower(strings.TrimSpace(query.Get(name)))
			if p.key == model.PrefAnimation {
				value = animationAlias(value)
			}
			// Set already logs rejected values.
			_ = s.Set(ctx, p.key, value)
			break
		}
	}
}

func animationAlias(value string) string {
	switch value {
	case "true", "on", "1":
		return model.AnimationAuto
	case "false", "off", "0":
		return model.AnimationNone
	default:
		return value
	}
}

// ApplyToDocument sets the document language and checks the control matching
// each preference. Missing controls are logged and skipped. Safe to call repeatedly.
func (s *Store) ApplyToDocument(ctx context.Context, doc Document) model.Preferences {
	p := s.All(ctx)
	if err := doc.SetLang(p.Language); err != nil {
		s.log.Warn("failed to set document language", zap.String("lang", p.Language), zap.Error(err))
	}
	for _, id := range []string{p.Language, p.Theme, p.Animation} {
		if err := doc.Check(id); err != nil {
			s.log.Warn("failed to check preference control", zap.String("control", id), zap.Error(err))
		}
	}
	return p
}
