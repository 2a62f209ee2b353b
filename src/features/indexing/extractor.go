package indexing

import "context"

// FileTags is the tag-level metadata extracted from one audio file. Absent
// or malformed individual tags yield zero values; only unreadable or corrupt
// files fail extraction outright.
type FileTags struct {
	Title       string
	Artist      string
	Album       string
	AlbumArtist string
	Genre       string
	Year        int
	Duration    float64
}

// Extractor reads tag metadata from a media file.
type Extractor interface {
	ReadTags(ctx context.Context, path string) (*FileTags, error)
}
