// Copyright 2024 The trill Authors
// This file is part of trill.
//
// trill is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// trill is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with trill. If not, see <http://www.gnu.org/licenses/>.

package trace

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	pkgerrors "github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// ErrNotFound is returned by a Source that does not know the requested
// transaction.
var ErrNotFound = errors.New("transaction not found")

// Source supplies the instruction trace of a transaction.
type Source interface {
	Fetch(ctx context.Context, hash common.Hash) (*Trace, error)
}

// StaticSource serves traces held in memory.
type StaticSource struct {
	mu     sync.RWMutex
	traces map[common.Hash]*Trace
}

// NewStaticSource creates a source preloaded with the given traces, keyed by
// their transaction hash.
func NewStaticSource(traces ...*Trace) *StaticSource {
	s := &StaticSource{traces: make(map[common.Hash]*Trace, len(traces))}
	for _, t := range traces {
		s.Add(t)
	}
	return s
}

// Add registers a trace under its transaction hash.
func (s *StaticSource) Add(t *Trace) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.traces[t.Transaction.Hash] = t
}

// Fetch implements Source.
func (s *StaticSource) Fetch(ctx context.Context, hash common.Hash) (*Trace, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.traces[hash]
	if !ok {
		return nil, ErrNotFound
	}
	return t, nil
}

// FileSource reads a trace document written by WriteFile. A zero hash passed
// to Fetch accepts whatever transaction the file holds.
type FileSource struct {
	Path string
}

// Fetch implements Source.
func (s *FileSource) Fetch(ctx context.Context, hash common.Hash) (*Trace, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	doc, err := ReadFile(s.Path)
	if err != nil {
		return nil, err
	}
	if hash != (common.Hash{}) && doc.Transaction.Hash != hash {
		return nil, pkgerrors.Wrapf(ErrNotFound, "%s holds %s", s.Path, doc.Transaction.Hash.Hex())
	}
	return NewTrace(doc.Transaction, &doc.Result), nil
}

func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

// ReadFile decodes a trace document, picking YAML or JSON by file extension.
func ReadFile(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "read trace file")
	}
	doc := new(Document)
	if isYAML(path) {
		err = yaml.Unmarshal(data, doc)
	} else {
		err = json.Unmarshal(data, doc)
	}
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "decode %s", path)
	}
	return doc, nil
}

// WriteFile stores the trace as a document readable by FileSource.
func WriteFile(path string, t *Trace) error {
	doc := Document{Transaction: t.Transaction, Result: *t.Result()}

	var (
		data []byte
		err  error
	)
	if isYAML(path) {
		data, err = yaml.Marshal(&doc)
	} else {
		data, err = json.MarshalIndent(&doc, "", "  ")
	}
	if err != nil {
		return pkgerrors.Wrap(err, "encode trace")
	}
	return os.WriteFile(path, data, 0644)
}
