package tag

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"fermata/src/features/indexing"
	"github.com/dhowden/tag"
)

// TagReader is an implementation of the indexing.Extractor interface that
// uses the dhowden/tag library.
type TagReader struct{}

// NewTagReader creates a new TagReader.
func NewTagReader() indexing.Extractor {
	return &TagReader{}
}

// ReadTags reads metadata from a music file. A file with no tag block at all
// is not an error; it yields empty tags and the caller falls back to the
// filename for display. Unreadable or corrupt files return an error.
func (r *TagReader) ReadTags(ctx context.Context, filePath string) (*indexing.FileTags, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	tags, err := tag.ReadFrom(file)
	if err != nil {
		if errors.Is(err, tag.ErrNoTagsFound) {
			result := &indexing.FileTags{}
			r.estimateDuration(filePath, result)
			return result, nil
		}
		return nil, fmt.Errorf("failed to read tags: %w", err)
	}

	result := &indexing.FileTags{
		Title:       strings.TrimSpace(tags.Title()),
		Artist:      strings.TrimSpace(tags.Artist()),
		Album:       strings.TrimSpace(tags.Album()),
		AlbumArtist: strings.TrimSpace(tags.AlbumArtist()),
		Genre:       strings.TrimSpace(tags.Genre()),
		Year:        tags.Year(),
	}
	r.estimateDuration(filePath, result)
	return result, nil
}

// estimateDuration fills in an approximate duration for FLAC files based on
// file size. dhowden/tag exposes no stream info, so this works from typical
// FLAC bitrates; other formats are left at zero.
func (r *TagReader) estimateDuration(filePath string, result *indexing.FileTags) {
	if strings.ToLower(filepath.Ext(filePath)) != ".flac" {
		return
	}
	fileInfo, err := os.Stat(filePath)
	if err != nil {
		return
	}

	// CD quality uncompressed is 1411 kbps; FLAC compresses to roughly
	// 0.6-0.8 of that, so 1000 kbps is a reasonable average.
	const estimatedBitrate = 1000
	fileSizeBits := fileInfo.Size() * 8
	result.Duration = float64(fileSizeBits) / float64(estimatedBitrate*1000)
}
