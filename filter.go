// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/gmarc

package gmarc

import (
	"fmt"

	"github.com/woozymasta/pathrules"
)

// itemMatcher holds compiled output name rules for extraction.
type itemMatcher struct {
	matcher *pathrules.Matcher
}

// newItemMatcher compiles extraction filter rules; nil matcher means everything is selected.
func newItemMatcher(rules []pathrules.Rule, opts pathrules.MatcherOptions) (*itemMatcher, error) {
	rules = normalizeFilterRules(rules)
	if len(rules) == 0 {
		return nil, nil
	}

	matcher, err := pathrules.NewMatcher(rules, opts)
	if err != nil {
		return nil, fmt.Errorf("%w: compile filter rules: %w", ErrValidation, err)
	}

	return &itemMatcher{matcher: matcher}, nil
}

// normalizeFilterRules trims rule patterns and drops empty patterns.
func normalizeFilterRules(rules []pathrules.Rule) []pathrules.Rule {
	normalized := make([]pathrules.Rule, 0, len(rules))
	for _, rule := range rules {
		pattern := normalizePathForMatching(rule.Pattern)
		if pattern == "" {
			continue
		}

		normalized = append(normalized, pathrules.Rule{
			Action:  rule.Action,
			Pattern: pattern,
		})
	}

	return normalized
}

// Match reports whether output name is selected by filter rules.
func (m *itemMatcher) Match(name string) bool {
	if m == nil || m.matcher == nil {
		return true
	}

	return m.matcher.Included(name, false)
}

// FilterRules builds ordered extraction rules: include patterns first, then exclude
// patterns, so an exclude overrides an overlapping include.
func FilterRules(include []string, exclude []string) ([]pathrules.Rule, pathrules.MatcherOptions) {
	rules := make([]pathrules.Rule, 0, len(include)+len(exclude))
	for _, pattern := range include {
		rules = append(rules, pathrules.Rule{Action: pathrules.ActionInclude, Pattern: pattern})
	}
	for _, pattern := range exclude {
		rules = append(rules, pathrules.Rule{Action: pathrules.ActionExclude, Pattern: pattern})
	}

	opts := pathrules.MatcherOptions{
		CaseInsensitive: true,
		DefaultAction:   pathrules.ActionInclude,
	}
	if len(normalizeFilterRules(rules[:len(include)])) > 0 {
		opts.DefaultAction = pathrules.ActionExclude
	}

	return normalizeFilterRules(rules), opts
}

// filterExtractItems keeps items whose output name is selected by matcher.
func filterExtractItems(items []ExtractItem, matcher *itemMatcher) []ExtractItem {
	if matcher == nil {
		return items
	}

	out := make([]ExtractItem, 0, len(items))
	for _, item := range items {
		if !matcher.Match(item.Name) {
			continue
		}

		out = append(out, item)
	}

	return out
}
