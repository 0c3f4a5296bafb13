package views

import twmerge "github.com/Oudwins/tailwind-merge-go"

// ClassMerger combines a component's base classes with caller overrides.
// Conflicting utilities resolve in favor of the override.
type ClassMerger func(base, override string) string

// MergeClasses is the default ClassMerger backed by tailwind-merge.
func MergeClasses(base, override string) string {
	if override == "" {
		return base
	}
	return twmerge.Merge(base, override)
}
