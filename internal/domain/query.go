package domain

import (
	"fmt"
	"strings"
)

// Limits on inbound query fields.
const (
	MaxQueryLen        = 500
	MaxInstructionsLen = 1000
)

// Query is the immutable per-request input: the patient question plus
// optional instructions from the practitioner.
type Query struct {
	text         string
	instructions string
}

// NewQuery validates and constructs a Query.
func NewQuery(text, instructions string) (Query, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Query{}, fmt.Errorf("query text is required")
	}
	if len(text) > MaxQueryLen {
		return Query{}, fmt.Errorf("query text exceeds %d characters", MaxQueryLen)
	}
	if len(instructions) > MaxInstructionsLen {
		return Query{}, fmt.Errorf("instructions exceed %d characters", MaxInstructionsLen)
	}
	return Query{text: text, instructions: instructions}, nil
}

// Text returns the question text.
func (q Query) Text() string { return q.text }

// Instructions returns the optional practitioner instructions.
func (q Query) Instructions() string { return q.instructions }
