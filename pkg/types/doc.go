// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the content-engine
// pipeline: outlines, finished documents, image references, and the typed
// configuration each stage reads.
package types
