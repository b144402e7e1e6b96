package dedupe

// Package dedupe provides shared singleflight groups used to deduplicate
// concurrent loads of shared read-only resources. Using a centralized
// singleflight.Group ensures only one load runs for a given key while
// other callers wait for the result.

import "golang.org/x/sync/singleflight"

// DexGroup deduplicates pokedex/move data loads keyed by data
// directory. Concurrent sessions starting at once share one load.
var DexGroup singleflight.Group
