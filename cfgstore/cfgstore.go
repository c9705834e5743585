// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package cfgstore persists the instrument settings in a fixed-size
// checksummed block of 256 little-endian 16-bit words.
//
// Block layout, in words:
//
//	  0-1    checksum, 32-bit sum of words 2-255
//	  2-3    format identifier
//	  4-5    version
//	  8-39   channels 1 and 2, 16 words each
//	 40-55   trigger and time base
//	 56-71   cursors
//	 72-95   measurement slots, 2 words each
//	 96-127  calibration, 16 words per channel
package cfgstore // import "github.com/go-lpc/dso/cfgstore"

import (
	"errors"
	"fmt"
	"io/fs"
	"sync"

	"github.com/go-lpc/dso/scope"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
)

type blockIO interface {
	readBlock() ([]byte, error)
	writeBlock(raw []byte) error
}

var (
	_ scope.Store = (*FileStore)(nil)
	_ scope.Store = (*MemStore)(nil)
)

// FileStore stores the settings block in a file.
type FileStore struct {
	fs   afero.Fs
	name string
	msg  zerolog.Logger
}

// NewFileStore returns a store for the settings block in the named file
// of the provided filesystem.
func NewFileStore(fsys afero.Fs, name string, msg zerolog.Logger) *FileStore {
	return &FileStore{fs: fsys, name: name, msg: msg}
}

// Load reads the settings block, resetting it to the default settings
// when it is missing or invalid.
func (st *FileStore) Load() (scope.Settings, error) {
	return load(st, st.msg)
}

// Save writes the settings block.
func (st *FileStore) Save(set *scope.Settings) error {
	return st.writeBlock(Encode(set))
}

func (st *FileStore) readBlock() ([]byte, error) {
	raw, err := afero.ReadFile(st.fs, st.name)
	if err != nil {
		return nil, fmt.Errorf("cfgstore: could not read settings block %q: %w", st.name, err)
	}
	return raw, nil
}

func (st *FileStore) writeBlock(raw []byte) error {
	f, err := st.fs.Create(st.name)
	if err != nil {
		return fmt.Errorf("cfgstore: could not create settings block %q: %w", st.name, err)
	}
	defer f.Close()

	_, err = f.Write(raw)
	if err != nil {
		return fmt.Errorf("cfgstore: could not write settings block %q: %w", st.name, err)
	}

	err = f.Sync()
	if err != nil {
		return fmt.Errorf("cfgstore: could not sync settings block %q: %w", st.name, err)
	}

	err = f.Close()
	if err != nil {
		return fmt.Errorf("cfgstore: could not close settings block %q: %w", st.name, err)
	}
	return nil
}

// MemStore keeps the settings block in memory.
type MemStore struct {
	mu    sync.Mutex
	Block []byte // nil until the first save
	Saves int
}

// Load decodes the in-memory block, resetting it to the default
// settings when it is missing or invalid.
func (st *MemStore) Load() (scope.Settings, error) {
	return load(st, zerolog.Nop())
}

// Save encodes the settings into the in-memory block.
func (st *MemStore) Save(set *scope.Settings) error {
	return st.writeBlock(Encode(set))
}

func (st *MemStore) readBlock() ([]byte, error) {
	st.mu.Lock()
	defer st.mu.Unlock()
	if st.Block == nil {
		return nil, fs.ErrNotExist
	}
	return append([]byte(nil), st.Block...), nil
}

func (st *MemStore) writeBlock(raw []byte) error {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.Block = append(st.Block[:0], raw...)
	st.Saves++
	return nil
}

func load(bio blockIO, msg zerolog.Logger) (scope.Settings, error) {
	raw, err := bio.readBlock()
	switch {
	case err == nil:
		set, err := Decode(raw)
		if err == nil {
			return set, nil
		}
		msg.Warn().Err(err).Msg("settings block rejected, restoring defaults")
	case errors.Is(err, fs.ErrNotExist):
		msg.Info().Msg("no settings block, restoring defaults")
	default:
		return scope.Settings{}, err
	}

	set := scope.DefaultSettings()
	err = bio.writeBlock(Encode(&set))
	if err != nil {
		return set, fmt.Errorf("cfgstore: could not save default settings: %w", err)
	}
	return set, nil
}
