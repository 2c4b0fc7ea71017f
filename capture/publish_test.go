package capture

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/test262-automator/automator/model"
	"github.com/test262-automator/automator/objstore"
)

func TestPublisher_Publish(t *testing.T) {
	layout := NewLayout(filepath.Join(t.TempDir(), "capture"), t1)
	seedCapture(t, layout, testMeta(), sampleOutput)

	other := testMeta()
	other.Name = "v8-harmony"
	seedCapture(t, layout, other, sampleOutput)

	store := objstore.NewFileStore(t.TempDir())
	p := NewPublisher(zerolog.Nop(), store, layout)

	// no parsed report yet, only ledger and artifact are uploaded
	n, err := p.Publish(context.Background(), []string{"v8"})
	require.NoError(t, err)
	require.Equal(t, 2, n)

	rc, err := store.Get(context.Background(), "output-v8.json")
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	require.Equal(t, sampleOutput, string(data))

	_, err = store.Get(context.Background(), "meta-v8-harmony.json")
	require.ErrorIs(t, err, objstore.ErrNotFound)

	n, err = p.Publish(context.Background(), nil)
	require.NoError(t, err)
	require.Equal(t, 4, n)
}

type recordingStore struct {
	keys []string
	err  error
}

func (s *recordingStore) Get(context.Context, string) (io.ReadCloser, error) {
	return nil, objstore.ErrNotFound
}

func (s *recordingStore) Put(_ context.Context, key string, r io.Reader) error {
	if s.err != nil {
		return s.err
	}
	s.keys = append(s.keys, key)
	_, err := io.Copy(io.Discard, r)
	return err
}

func TestPublisher_LedgerLast(t *testing.T) {
	layout := NewLayout(filepath.Join(t.TempDir(), "capture"), t1)
	meta := testMeta()
	seedCapture(t, layout, meta, sampleOutput)
	require.NoError(t, writeJSON(layout.Current(ParsedFile(meta)), map[string]string{}))

	store := &recordingStore{}
	n, err := NewPublisher(zerolog.Nop(), store, layout).Publish(context.Background(), nil)
	require.NoError(t, err)
	require.Equal(t, 3, n)
	require.Equal(t, []string{"output-v8.json", "parsed-v8.json", "meta-v8.json"}, store.keys)
}

func TestPublisher_StoreError(t *testing.T) {
	layout := NewLayout(filepath.Join(t.TempDir(), "capture"), t1)
	seedCapture(t, layout, model.RunMetadata{Name: "v8", TimeStamp: 1}, sampleOutput)

	store := &recordingStore{err: errors.New("access denied")}
	_, err := NewPublisher(zerolog.Nop(), store, layout).Publish(context.Background(), nil)

	var tErr *TransportError
	require.ErrorAs(t, err, &tErr)
	require.Equal(t, "output-v8.json", tErr.Key)
}
