// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package a2aserver

import (
	"fmt"
)

// Artifact is an output produced by a task handler. Artifacts are append-only:
// once added to a task they are never mutated or removed. Index records the
// artifact's position among the artifacts produced for its task.
type Artifact struct {
	Name  string `json:"name,omitzero"`
	Parts []Part `json:"parts"`
	Index int    `json:"index"`
}

// NewTextArtifact creates an artifact with a single text part.
func NewTextArtifact(name, text string) Artifact {
	return Artifact{
		Name:  name,
		Parts: []Part{NewTextPart(text)},
	}
}

// Validate ensures the artifact is well-formed.
func (a Artifact) Validate() error {
	if len(a.Parts) == 0 {
		return fmt.Errorf("artifact must have at least one part")
	}
	if a.Index < 0 {
		return fmt.Errorf("artifact index cannot be negative: %d", a.Index)
	}
	return nil
}

// Text returns the text content of the first text part, or "" if none.
func (a Artifact) Text() string {
	for _, p := range a.Parts {
		if p.Type == PartTypeText {
			return p.Text
		}
	}
	return ""
}

// Clone returns a deep copy of the artifact.
func (a Artifact) Clone() Artifact {
	clone := a
	if a.Parts != nil {
		clone.Parts = make([]Part, len(a.Parts))
		for i, p := range a.Parts {
			clone.Parts[i] = p.Clone()
		}
	}
	return clone
}
