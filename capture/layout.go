package capture

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/test262-automator/automator/history"
	"github.com/test262-automator/automator/model"
)

// Layout locates the files of a capture directory. Current files are
// overwritten by every invocation, the dated historic directory keeps a
// copy of what each day produced.
type Layout struct {
	Dir      string
	Historic string
}

// NewLayout returns the layout of dir for an invocation at now.
func NewLayout(dir string, now time.Time) Layout {
	return Layout{
		Dir:      dir,
		Historic: filepath.Join(dir, now.UTC().Format("2006-01-02")),
	}
}

// Ensure creates the current and historic directories.
func (l Layout) Ensure() error {
	if err := os.MkdirAll(l.Historic, 0755); err != nil {
		return fmt.Errorf("failed to create capture directory: %w", err)
	}
	return nil
}

func (l Layout) Current(file string) string {
	return filepath.Join(l.Dir, file)
}

func (l Layout) HistoricPath(file string) string {
	return filepath.Join(l.Historic, file)
}

// MetaFile is the ledger file name of a configuration.
func MetaFile(meta model.RunMetadata) string {
	return history.MetaFile(meta.Name)
}

// OutputFile is the raw harness artifact of a configuration.
func OutputFile(meta model.RunMetadata) string {
	return "output" + meta.Suffix() + ".json"
}

// ParsedFile is the folded report of a configuration.
func ParsedFile(meta model.RunMetadata) string {
	return "parsed" + meta.Suffix() + ".json"
}

// ProfileFile is the pprof rendering of the report of a configuration.
func ProfileFile(meta model.RunMetadata) string {
	return "profile" + meta.Suffix() + ".pb.gz"
}

func copyFile(src, dst string) error {
	sourceFile, err := os.Open(src)
	if err != nil {
		return err
	}
	defer sourceFile.Close()

	destFile, err := os.Create(dst)
	if err != nil {
		return err
	}

	if _, err := io.Copy(destFile, sourceFile); err != nil {
		destFile.Close()
		return err
	}
	return destFile.Close()
}
