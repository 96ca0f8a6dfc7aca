// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package a2aserver

import (
	"fmt"
	"maps"
	"strings"
)

// Role identifies the author of a message.
type Role string

const (
	// RoleUser is a message authored by the remote caller.
	RoleUser Role = "user"

	// RoleAgent is a message authored by a task handler.
	RoleAgent Role = "agent"
)

// Part is one typed segment of a message or artifact. Exactly one of the
// content fields is populated according to Type.
type Part struct {
	Type        string         `json:"type"`
	Text        string         `json:"text,omitzero"`
	Data        map[string]any `json:"data,omitzero"`
	FileName    string         `json:"fileName,omitzero"`
	FileContent string         `json:"fileContent,omitzero"`
	Metadata    map[string]any `json:"metadata,omitzero"`
}

// Part types.
const (
	PartTypeText = "text"
	PartTypeData = "data"
	PartTypeFile = "file"
)

// NewTextPart creates a text part.
func NewTextPart(text string) Part {
	return Part{Type: PartTypeText, Text: text}
}

// NewDataPart creates a structured-data part.
func NewDataPart(data map[string]any) Part {
	return Part{Type: PartTypeData, Data: data}
}

// NewFilePart creates a file part with inline content.
func NewFilePart(name, content string) Part {
	return Part{Type: PartTypeFile, FileName: name, FileContent: content}
}

// Clone returns a deep copy of the part, including its maps.
func (p Part) Clone() Part {
	clone := p
	clone.Data = maps.Clone(p.Data)
	clone.Metadata = maps.Clone(p.Metadata)
	return clone
}

// Message is a single conversational turn, immutable once appended to a
// task's history.
type Message struct {
	Role  Role   `json:"role"`
	Parts []Part `json:"parts"`
}

// NewTextMessage creates a user message with a single text part.
func NewTextMessage(text string) Message {
	return Message{
		Role:  RoleUser,
		Parts: []Part{NewTextPart(text)},
	}
}

// NewAgentTextMessage creates an agent message with a single text part.
func NewAgentTextMessage(text string) Message {
	return Message{
		Role:  RoleAgent,
		Parts: []Part{NewTextPart(text)},
	}
}

// Validate ensures the message is well-formed.
func (m Message) Validate() error {
	if m.Role != RoleUser && m.Role != RoleAgent {
		return fmt.Errorf("invalid message role: %q", m.Role)
	}
	if len(m.Parts) == 0 {
		return fmt.Errorf("message must have at least one part")
	}
	for i, p := range m.Parts {
		if p.Type == "" {
			return fmt.Errorf("message part %d has no type", i)
		}
	}
	return nil
}

// Text returns the concatenated text content of all text parts, joined with
// single spaces. Non-text parts are skipped.
func (m Message) Text() string {
	var texts []string
	for _, p := range m.Parts {
		if p.Type == PartTypeText && p.Text != "" {
			texts = append(texts, strings.TrimSpace(p.Text))
		}
	}
	return strings.Join(texts, " ")
}

// Clone returns a deep copy of the message.
func (m Message) Clone() Message {
	clone := m
	if m.Parts != nil {
		clone.Parts = make([]Part, len(m.Parts))
		for i, p := range m.Parts {
			clone.Parts[i] = p.Clone()
		}
	}
	return clone
}
