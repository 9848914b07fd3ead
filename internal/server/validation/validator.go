// Package validation implements the upload validation chain. Validators run
// in a fixed order, are free of side effects, and the chain short-circuits on
// the first rejection.
package validation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// Kind labels a rejection reason.
type Kind int

const (
	KindOversizeOrEmpty Kind = iota + 1
	KindForbiddenName
	KindDisallowedFormat
	KindQuotaExceeded
)

// Error is a caller-visible rejection produced by a validator. It always maps
// the upload record to FAILED with Reason as the error message.
type Error struct {
	Kind   Kind
	Reason string
}

func (e *Error) Error() string { return e.Reason }

func newError(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Reason: fmt.Sprintf(format, args...)}
}

// Validator inspects a candidate upload and either passes or rejects it.
type Validator interface {
	Validate(ctx context.Context, name string, data []byte) error
}

// Chain runs its validators in order and stops at the first rejection.
type Chain struct {
	validators []Validator
}

func NewChain(validators ...Validator) *Chain {
	return &Chain{validators: validators}
}

func (c *Chain) Validate(ctx context.Context, name string, data []byte) error {
	for _, v := range c.validators {
		if err := v.Validate(ctx, name, data); err != nil {
			return err
		}
	}
	return nil
}

// SizeValidator rejects empty payloads and payloads larger than MaxSize.
type SizeValidator struct {
	MaxSize int64
}

func (v *SizeValidator) Validate(ctx context.Context, name string, data []byte) error {
	size := int64(len(data))
	if size == 0 {
		return newError(KindOversizeOrEmpty, "File is empty.")
	}
	if size > v.MaxSize {
		return newError(KindOversizeOrEmpty, "File exceeded %d MB limit: %d bytes (> %d bytes)",
			v.MaxSize/(1024*1024), size, v.MaxSize)
	}
	return nil
}

// NameValidator rejects names containing the forbidden substring,
// case-insensitively.
type NameValidator struct {
	Forbidden string
}

func (v *NameValidator) Validate(ctx context.Context, name string, data []byte) error {
	if v.Forbidden == "" {
		return nil
	}
	if strings.Contains(strings.ToLower(name), strings.ToLower(v.Forbidden)) {
		return newError(KindForbiddenName, "File name contains forbidden letter %q: %s", v.Forbidden, name)
	}
	return nil
}

// JSONValidator rejects payloads that are syntactically valid JSON.
//
// Rejection requires a canonical round-trip: the payload must parse, and its
// re-serialization must equal the canonical serialization of the trimmed
// original. A parse failure at any step is acceptance, not rejection, so a
// payload that merely starts with '{' but does not parse passes through.
type JSONValidator struct{}

func (v *JSONValidator) Validate(ctx context.Context, name string, data []byte) error {
	var node any
	if err := json.Unmarshal(data, &node); err != nil {
		return nil
	}
	normalized, err := json.Marshal(node)
	if err != nil {
		return nil
	}

	var trimmedNode any
	if err := json.Unmarshal(bytes.TrimSpace(data), &trimmedNode); err != nil {
		return nil
	}
	originalNormalized, err := json.Marshal(trimmedNode)
	if err != nil {
		return nil
	}

	if bytes.Equal(normalized, originalNormalized) {
		return newError(KindDisallowedFormat, "File contains valid JSON (not allowed)")
	}
	return nil
}

// SpaceReporter reports free bytes on the medium backing a content store.
type SpaceReporter interface {
	Available() (int64, error)
}

// DiskSpaceValidator rejects uploads when the content store's backing medium
// has less than MinFree bytes available.
type DiskSpaceValidator struct {
	Store   SpaceReporter
	MinFree int64
}

func (v *DiskSpaceValidator) Validate(ctx context.Context, name string, data []byte) error {
	free, err := v.Store.Available()
	if err != nil {
		return newError(KindQuotaExceeded, "Cannot check disk space: %s", err.Error())
	}
	if free < v.MinFree {
		return newError(KindQuotaExceeded, "Not enough disk space")
	}
	return nil
}
