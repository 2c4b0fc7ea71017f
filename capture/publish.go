package capture

// This file contains publishing of capture files to the remote store.

import (
	"context"
	"errors"
	"io/fs"
	"os"

	"github.com/rs/zerolog"

	"github.com/test262-automator/automator/history"
	"github.com/test262-automator/automator/objstore"
)

// Publisher uploads ledger entries, artifacts and reports so the next
// capture of the same configuration can reuse them.
type Publisher struct {
	logger zerolog.Logger
	store  objstore.Store
	layout Layout
}

func NewPublisher(logger zerolog.Logger, store objstore.Store, layout Layout) *Publisher {
	return &Publisher{logger: logger, store: store, layout: layout}
}

// Publish uploads the files of the named configurations, or of all of
// them when names is empty. It returns the number of objects stored.
// The ledger goes last so a partial upload is never mistaken for a
// reusable capture.
func (p *Publisher) Publish(ctx context.Context, names []string) (int, error) {
	entries, err := history.LoadEntries(p.logger, p.layout.Dir)
	if err != nil {
		return 0, err
	}

	wanted := make(map[string]bool, len(names))
	for _, n := range names {
		wanted[n] = true
	}

	stored := 0
	for _, entry := range entries {
		meta := entry.Meta
		if len(wanted) > 0 && !wanted[meta.Name] {
			continue
		}
		for _, file := range []string{OutputFile(meta), ParsedFile(meta), MetaFile(meta)} {
			ok, err := p.put(ctx, file)
			if err != nil {
				return stored, err
			}
			if ok {
				stored++
			}
		}
	}
	return stored, nil
}

func (p *Publisher) put(ctx context.Context, file string) (bool, error) {
	f, err := os.Open(p.layout.Current(file))
	if errors.Is(err, fs.ErrNotExist) {
		p.logger.Debug().Str("file", file).Msg("Nothing to publish")
		return false, nil
	}
	if err != nil {
		return false, err
	}
	defer f.Close()

	if err := p.store.Put(ctx, file, f); err != nil {
		return false, &TransportError{Op: "store", Key: file, Err: err}
	}
	p.logger.Info().Str("file", file).Msg("Published")
	return true, nil
}
