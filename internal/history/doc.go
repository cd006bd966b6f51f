// Package history owns the deduplicated scan history. New classifications
// are matched against existing entries by token-set similarity and merged
// into them instead of being stored twice.
package history
