// Package router maps studio capabilities to concrete upstream model
// identifiers and degrades retired models along a fixed fallback chain.
//
// The tables in table.go are configuration data: review them alongside vendor
// model lifecycle announcements instead of hardcoding identifiers at call sites.
package router

import (
	"fmt"
	"maps"
	"regexp"
	"slices"
	"strings"

	vitrine "github.com/atlas-moltbot/vitrine-de-imagens"
)

// MaxFallbackHops bounds the length of any fallback chain.
const MaxFallbackHops = 4

// imageModelPattern accepts identifiers of the Imagen family, e.g. imagen-4.0-generate-001.
var imageModelPattern = regexp.MustCompile(`^imagen-[0-9]+(\.[0-9]+)*-[a-z0-9-]+$`)

// Router resolves capabilities to model identifiers.
// A Router is immutable after construction and safe for concurrent use.
type Router struct {
	bindings  map[vitrine.Capability]string
	fallbacks map[string]string
	families  map[string]string
	settings  vitrine.SettingsProvider
}

// Option configures a Router.
type Option func(*Router)

// WithBindings overrides the default model of the given capabilities.
func WithBindings(b map[vitrine.Capability]string) Option {
	return func(r *Router) {
		maps.Copy(r.bindings, b)
	}
}

// WithFallbacks replaces the fallback table. An empty value ends a chain.
func WithFallbacks(f map[string]string) Option {
	return func(r *Router) {
		r.fallbacks = maps.Clone(f)
	}
}

// WithFamilyFallbacks replaces the prefix-keyed fallbacks used for identifiers
// missing from the fallback table.
func WithFamilyFallbacks(f map[string]string) Option {
	return func(r *Router) {
		r.families = maps.Clone(f)
	}
}

// New creates a Router over the default tables. settings may be nil, in which
// case user overrides are never applied. New fails when the configured
// fallback chains do not terminate.
func New(settings vitrine.SettingsProvider, opts ...Option) (*Router, error) {
	r := &Router{
		bindings:  maps.Clone(DefaultBindings),
		fallbacks: maps.Clone(DefaultFallbacks),
		families:  maps.Clone(DefaultFamilyFallbacks),
		settings:  settings,
	}
	for _, opt := range opts {
		opt(r)
	}
	for _, c := range vitrine.Capabilities {
		if r.bindings[c] == "" {
			return nil, fmt.Errorf("router: no model bound to %s", c)
		}
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return r, nil
}

// Resolve returns the model for a capability. For the image capabilities a
// user override stored under vitrine.SettingImageModel wins when it looks like
// an Imagen identifier. The override is read on every call.
func (r *Router) Resolve(c vitrine.Capability) string {
	if c.IsImage() && r.settings != nil {
		if v, ok := r.settings.GetString(vitrine.SettingImageModel); ok {
			if v = strings.TrimSpace(v); IsImageModel(v) {
				return v
			}
		}
	}
	return r.bindings[c]
}

// IsImageModel reports whether id is syntactically an Imagen model identifier.
func IsImageModel(id string) bool {
	return imageModelPattern.MatchString(id)
}

// Fallback returns the next model to try after failed was rejected as missing,
// or false at the end of the chain. It never returns failed itself.
func (r *Router) Fallback(failed string) (string, bool) {
	next, listed := r.fallbacks[failed]
	if !listed {
		next = r.familyFallback(failed)
	}
	if next == "" || next == failed {
		return "", false
	}
	return next, true
}

// familyFallback picks the default of the longest matching prefix.
func (r *Router) familyFallback(model string) string {
	best := ""
	next := ""
	for prefix, target := range r.families {
		if strings.HasPrefix(model, prefix) && len(prefix) > len(best) {
			best, next = prefix, target
		}
	}
	return next
}

// Chain returns the models tried after start, in order.
func (r *Router) Chain(start string) []string {
	var chain []string
	seen := map[string]bool{start: true}
	for model := start; ; {
		next, ok := r.Fallback(model)
		if !ok || seen[next] || len(chain) >= MaxFallbackHops {
			return chain
		}
		seen[next] = true
		chain = append(chain, next)
		model = next
	}
}

// Validate checks that the chain starting at every known identifier ends
// within MaxFallbackHops without revisiting an identifier.
func (r *Router) Validate() error {
	starts := slices.Collect(maps.Keys(r.fallbacks))
	for _, target := range r.fallbacks {
		starts = append(starts, target)
	}
	for prefix, target := range r.families {
		starts = append(starts, prefix+"unlisted", target)
	}
	for _, m := range r.bindings {
		starts = append(starts, m)
	}
	slices.Sort(starts)
	starts = slices.Compact(starts)

	for _, start := range starts {
		if start == "" {
			continue
		}
		if err := r.walk(start); err != nil {
			return err
		}
	}
	return nil
}

func (r *Router) walk(start string) error {
	seen := map[string]bool{start: true}
	path := []string{start}
	model := start
	for hops := 0; ; hops++ {
		next, ok := r.Fallback(model)
		if !ok {
			return nil
		}
		path = append(path, next)
		if seen[next] {
			return fmt.Errorf("router: fallback cycle %s", strings.Join(path, " -> "))
		}
		if hops+1 > MaxFallbackHops {
			return fmt.Errorf("router: fallback chain longer than %d hops: %s", MaxFallbackHops, strings.Join(path, " -> "))
		}
		seen[next] = true
		model = next
	}
}
