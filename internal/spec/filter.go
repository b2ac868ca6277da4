package spec

import (
    "fmt"
    "regexp"
    "strings"
)

// FilterOption configures which operations take part in generation.
type FilterOption func(*Filter)

// Filter selects operations by tag, method and path. The zero value keeps
// everything.
type Filter struct {
    includeTags map[string]struct{}
    excludeTags map[string]struct{}
    methods     map[HttpMethod]struct{}
    pathRes     []*regexp.Regexp
}

// NewFilter builds a Filter from options.
func NewFilter(opts ...FilterOption) *Filter {
    f := &Filter{}
    for _, opt := range opts {
        opt(f)
    }
    return f
}

// WithIncludeTags keeps only operations that have at least one of the given tags.
func WithIncludeTags(tags []string) FilterOption {
    return func(f *Filter) { f.includeTags = addTags(f.includeTags, tags) }
}

// WithExcludeTags removes operations that have any of the given tags.
func WithExcludeTags(tags []string) FilterOption {
    return func(f *Filter) { f.excludeTags = addTags(f.excludeTags, tags) }
}

func addTags(set map[string]struct{}, tags []string) map[string]struct{} {
    for _, t := range tags {
        t = strings.TrimSpace(t)
        if t == "" {
            continue
        }
        if set == nil {
            set = make(map[string]struct{}, len(tags))
        }
        set[t] = struct{}{}
    }
    return set
}

// WithMethods keeps only operations using one of the provided HTTP methods.
func WithMethods(methods []HttpMethod) FilterOption {
    return func(f *Filter) {
        for _, m := range methods {
            if f.methods == nil {
                f.methods = make(map[HttpMethod]struct{}, len(methods))
            }
            f.methods[HttpMethod(strings.ToLower(string(m)))] = struct{}{}
        }
    }
}

// WithPathPatterns keeps only operations whose path matches at least one of
// the provided regular expressions. An invalid pattern matches nothing.
func WithPathPatterns(patterns []string) FilterOption {
    return func(f *Filter) {
        for _, p := range patterns {
            p = strings.TrimSpace(p)
            if p == "" {
                continue
            }
            re, err := regexp.Compile(p)
            if err != nil {
                re = neverMatch
            }
            f.pathRes = append(f.pathRes, re)
        }
    }
}

var neverMatch = regexp.MustCompile(`a^$`)

// ValidatePathPatterns reports the first pattern that does not compile.
// Callers that take patterns from users check them before building a Filter.
func ValidatePathPatterns(patterns []string) error {
    for _, p := range patterns {
        p = strings.TrimSpace(p)
        if p == "" {
            continue
        }
        if _, err := regexp.Compile(p); err != nil {
            return fmt.Errorf("invalid path pattern %q: %w", p, err)
        }
    }
    return nil
}

// Allow reports whether the operation at path passes every configured filter.
func (f *Filter) Allow(path string, op *Operation) bool {
    if f == nil {
        return true
    }
    if len(f.methods) > 0 {
        if _, ok := f.methods[op.Method]; !ok {
            return false
        }
    }
    if len(f.pathRes) > 0 {
        matched := false
        for _, re := range f.pathRes {
            if re.MatchString(path) {
                matched = true
                break
            }
        }
        if !matched {
            return false
        }
    }
    return f.allowByTags(op.Tags)
}

func (f *Filter) allowByTags(tags []string) bool {
    if len(f.includeTags) > 0 {
        ok := false
        for _, t := range tags {
            if _, yes := f.includeTags[t]; yes {
                ok = true
                break
            }
        }
        if !ok {
            return false
        }
    }
    for _, t := range tags {
        if _, blocked := f.excludeTags[t]; blocked {
            return false
        }
    }
    return true
}

// Empty reports whether the filter keeps every operation.
func (f *Filter) Empty() bool {
    return f == nil || len(f.includeTags)+len(f.excludeTags)+len(f.methods)+len(f.pathRes) == 0
}
