package history

// This file contains ledger persistence: decoding, saving and scanning
// the meta-<name>.json files of a capture directory.

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog"
	"github.com/test262-automator/automator/model"
)

const (
	MetaPrefix = "meta-"
	MetaSuffix = ".json"
)

// MetaFile returns the ledger file name of a configuration.
func MetaFile(name string) string {
	return MetaPrefix + name + MetaSuffix
}

type Entry struct {
	Meta     model.RunMetadata
	FullPath string
}

// Decode reads a ledger entry and migrates legacy entries.
func Decode(r io.Reader) (model.RunMetadata, error) {
	var meta model.RunMetadata
	if err := json.NewDecoder(r).Decode(&meta); err != nil {
		return model.RunMetadata{}, fmt.Errorf("failed to decode run metadata: %w", err)
	}
	Migrate(&meta)
	return meta, nil
}

// Save writes meta to current and then duplicates it into historic.
func Save(meta model.RunMetadata, current, historic string) error {
	data, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("failed to marshal run metadata: %w", err)
	}
	if err := os.WriteFile(current, data, 0644); err != nil {
		return fmt.Errorf("failed to write run metadata: %w", err)
	}
	if err := os.WriteFile(historic, data, 0644); err != nil {
		return fmt.Errorf("failed to write historic run metadata: %w", err)
	}
	return nil
}

// Load reads a single ledger file.
func Load(path string) (model.RunMetadata, error) {
	f, err := os.Open(path)
	if err != nil {
		return model.RunMetadata{}, err
	}
	defer f.Close()

	meta, err := Decode(f)
	if err != nil {
		return model.RunMetadata{}, fmt.Errorf("%s: %w", path, err)
	}
	return meta, nil
}

// LoadEntries loads every ledger file directly inside dir, ordered by file name.
// Subdirectories (the dated historic copies) are not visited.
func LoadEntries(logger zerolog.Logger, dir string) ([]Entry, error) {
	files, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read capture directory: %w", err)
	}

	var entries []Entry
	for _, f := range files {
		if f.IsDir() || !strings.HasPrefix(f.Name(), MetaPrefix) || !strings.HasSuffix(f.Name(), MetaSuffix) {
			continue
		}
		path := filepath.Join(dir, f.Name())
		meta, err := Load(path)
		if err != nil {
			return nil, err
		}
		logger.Debug().Str("path", path).Str("name", meta.Name).Msg("Loaded run metadata")
		entries = append(entries, Entry{Meta: meta, FullPath: path})
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].FullPath < entries[j].FullPath
	})
	return entries, nil
}
