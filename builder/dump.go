package builder

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/iptv-italy/iptv-italy/m3u"
)

// ErrPathIsDirectory is returned when the output path names an existing directory
var ErrPathIsDirectory = errors.New("output path is an existing directory")

// Dump writes the playlist to path. The document is written to a temporary
// file in the destination directory and renamed into place, so readers never
// observe a truncated playlist.
func Dump(enc *m3u.Encoder, path string) error {
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		return fmt.Errorf("%w: %s", ErrPathIsDirectory, path)
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".playlist-*.m3u")
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := enc.Encode(tmp); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write playlist: %w", err)
	}

	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temporary file: %w", err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to move playlist into place: %w", err)
	}

	return nil
}
