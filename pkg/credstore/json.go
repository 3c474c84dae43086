// Copyright 2018 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package credstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// entryDTO is the on-disk shape of an Entry.
type entryDTO struct {
	SSID          string `json:"ssid"`
	Password      string `json:"password"`
	LastConnected string `json:"last_connected"`
}

// JSONStore keeps entries as a JSON array in a single file that is read
// whole and rewritten whole.
type JSONStore struct {
	path string
	mu   sync.Mutex
}

var _ = Store(&JSONStore{})

// NewJSONStore returns a store backed by path. The file is created on the
// first Upsert.
func NewJSONStore(path string) *JSONStore {
	return &JSONStore{path: path}
}

// Path returns the backing file.
func (s *JSONStore) Path() string {
	return s.path
}

// Load reads every entry. A missing file is an empty store.
func (s *JSONStore) Load(ctx context.Context) (map[string]Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	dtos, err := s.loadFromFile()
	if err != nil {
		return nil, err
	}
	m := make(map[string]Entry, len(dtos))
	for _, d := range dtos {
		m[d.SSID] = fromDTO(d)
	}
	return m, nil
}

// Upsert replaces the entry for e.SSID in place, or appends it.
func (s *JSONStore) Upsert(ctx context.Context, e Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	dtos, err := s.loadFromFile()
	if err != nil {
		return err
	}
	dto := toDTO(e)
	found := false
	for i, d := range dtos {
		if d.SSID == dto.SSID {
			dtos[i] = dto
			found = true
			break
		}
	}
	if !found {
		dtos = append(dtos, dto)
	}
	return s.saveToFile(dtos)
}

func (s *JSONStore) loadFromFile() ([]entryDTO, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", s.path, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}
	var dtos []entryDTO
	if err := json.Unmarshal(data, &dtos); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorrupt, s.path, err)
	}
	return dtos, nil
}

func (s *JSONStore) saveToFile(dtos []entryDTO) error {
	if dtos == nil {
		dtos = []entryDTO{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(dtos); err != nil {
		return fmt.Errorf("encode credentials: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create store directory: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, buf.Bytes(), 0o600); err != nil {
		return fmt.Errorf("write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replace %s: %w", s.path, err)
	}
	return nil
}

func toDTO(e Entry) entryDTO {
	return entryDTO{
		SSID:          e.SSID,
		Password:      e.Password,
		LastConnected: e.LastConnected.Local().Format(TimeLayout),
	}
}

func fromDTO(d entryDTO) Entry {
	e := Entry{SSID: d.SSID, Password: d.Password}
	if t, err := time.ParseInLocation(TimeLayout, d.LastConnected, time.Local); err == nil {
		e.LastConnected = t
	}
	return e
}
