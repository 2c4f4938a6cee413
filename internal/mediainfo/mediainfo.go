// Package mediainfo reads container tags to label media files.
package mediainfo

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/dhowden/tag"

	"github.com/junsooki/vitrine/internal/filesystem"
)

// minTagged is the size of an ID3v1 trailer. The tag reader seeks that far
// back from the end, so shorter files are never handed to it.
const minTagged = 128

// Info describes a media file. Title falls back to the file name.
type Info struct {
	Path   string
	Title  string
	Artist string
	Album  string
	Format string
	Tagged bool
}

// Label is the one-line name shown next to a selected file.
func (i Info) Label() string {
	if i.Artist != "" {
		return fmt.Sprintf("%s - %s", i.Artist, i.Title)
	}
	return i.Title
}

// Probe reads tags from path. Files that cannot be opened return an error;
// files without readable tags still return an Info named after the file.
func Probe(path string) (Info, error) {
	f, err := filesystem.API().Open(path)
	if err != nil {
		return Info{}, fmt.Errorf("probe %s: %w", path, err)
	}
	defer f.Close()

	st, err := f.Stat()
	if err != nil {
		return Info{}, fmt.Errorf("probe %s: %w", path, err)
	}

	info := Info{Path: path}
	if st.Size() >= minTagged {
		if m, err := tag.ReadFrom(f); err == nil {
			info.Title = strings.TrimSpace(m.Title())
			info.Artist = strings.TrimSpace(m.Artist())
			info.Album = strings.TrimSpace(m.Album())
			info.Format = string(m.FileType())
			info.Tagged = true
		}
	}

	if info.Title == "" {
		info.Title = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	if info.Format == "" || info.Format == string(tag.UnknownFileType) {
		info.Format = strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	}
	return info, nil
}
