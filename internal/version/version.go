// Package version centralizes the versioning for the logical components whose
// output is cached.
//
// Cache keys embed these version strings, so bumping a version invalidates every
// entry produced by the old logic. For example, adding a keyword to the parser
// grammar and moving Grammar from "v1.0" to "v1.1" makes every previously cached
// parse result unreachable.
package version

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// ComponentVersions holds the version strings for the parts of the pipeline a
// cached parse result depends on. Increment the matching entry before shipping
// a change to that component.
var ComponentVersions = struct {
	// Grammar covers the keyword tables and slot binding rules of the parser.
	Grammar string

	// Palette covers the colour word table.
	Palette string

	// Validator covers the normalisation rules applied after parsing.
	Validator string
}{
	Grammar:   "v1.0",
	Palette:   "v1.0",
	Validator: "v1.0",
}

// Stamp renders the current component versions in compact form.
func Stamp() string {
	return fmt.Sprintf("gv%s_pv%s_vv%s",
		ComponentVersions.Grammar,
		ComponentVersions.Palette,
		ComponentVersions.Validator,
	)
}

// GenerateVersionedCacheKey creates a consistent, version-aware cache key for
// an input string.
//
// Example output: "parse:a1b2c3d4...:gv1.0_pv1.0_vv1.0"
func GenerateVersionedCacheKey(prefix, input string) string {
	// 1. Hash the input to get a fixed-length identifier.
	hasher := sha256.New()
	hasher.Write([]byte(input))
	inputHash := hex.EncodeToString(hasher.Sum(nil))

	// 2. Combine prefix, hash and component versions.
	return fmt.Sprintf("%s:%s:%s", prefix, inputHash, Stamp())
}
