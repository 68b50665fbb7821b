// Package id generates prefixed record identifiers such as
// ent_06a2... for entities and run_06a2... for runs.
package id

import (
	"encoding/base32"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Kind is the prefix naming the record type of an id.
type Kind string

const (
	Entity Kind = "ent"
	Run    Kind = "run"
)

// Lowercase base32hex keeps the lexical order of the underlying bytes, so
// ids of one kind sort by creation time.
var encoding = base32.HexEncoding.WithPadding(base32.NoPadding)

// New returns a kind-prefixed UUIDv7.
func New(kind Kind) (string, error) {
	if kind == "" {
		return "", fmt.Errorf("id kind is required")
	}
	u, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("generate %s id: %w", kind, err)
	}
	return string(kind) + "_" + strings.ToLower(encoding.EncodeToString(u[:])), nil
}
