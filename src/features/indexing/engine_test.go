package indexing

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"fermata/src/music"
	"github.com/google/uuid"
)

// mockCatalog is an in-memory Catalog covering what the engine touches.
type mockCatalog struct {
	music.Catalog
	mu      sync.Mutex
	tracks  map[string]*music.Track // keyed by path
	albums  map[string]*music.Album // keyed by title|artist
	artists map[string]*music.Artist
	failAdd map[string]bool
}

func newMockCatalog() *mockCatalog {
	return &mockCatalog{
		tracks:  make(map[string]*music.Track),
		albums:  make(map[string]*music.Album),
		artists: make(map[string]*music.Artist),
		failAdd: make(map[string]bool),
	}
}

func (m *mockCatalog) GetTracksByPath(ctx context.Context) (map[string]*music.Track, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	byPath := make(map[string]*music.Track, len(m.tracks))
	for path, track := range m.tracks {
		byPath[path] = track
	}
	return byPath, nil
}

func (m *mockCatalog) AddTrack(ctx context.Context, track *music.Track) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failAdd[track.Path] {
		return errors.New("simulated write failure")
	}
	m.tracks[track.Path] = track
	return nil
}

func (m *mockCatalog) DeleteTrack(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for path, track := range m.tracks {
		if track.ID == id {
			delete(m.tracks, path)
			return nil
		}
	}
	return music.ErrNotFound
}

func (m *mockCatalog) FindOrCreateArtist(ctx context.Context, name string) (*music.Artist, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if artist, ok := m.artists[name]; ok {
		return artist, nil
	}
	artist := &music.Artist{ID: uuid.New().String(), Name: name}
	m.artists[name] = artist
	return artist, nil
}

func (m *mockCatalog) FindOrCreateAlbum(ctx context.Context, title, artist string, year int) (*music.Album, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := title + "|" + artist
	if album, ok := m.albums[key]; ok {
		return album, nil
	}
	album := &music.Album{ID: uuid.New().String(), Title: title, Artist: artist, Year: year}
	m.albums[key] = album
	return album, nil
}

func (m *mockCatalog) SetAlbumCover(ctx context.Context, id, coverPath string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, album := range m.albums {
		if album.ID == id {
			album.CoverPath = coverPath
			return nil
		}
	}
	return music.ErrNotFound
}

// mockExtractor serves canned tags per path.
type mockExtractor struct {
	tags map[string]*FileTags
	errs map[string]error
}

func (m *mockExtractor) ReadTags(ctx context.Context, path string) (*FileTags, error) {
	if err, ok := m.errs[path]; ok {
		return nil, err
	}
	if tags, ok := m.tags[path]; ok {
		return tags, nil
	}
	return &FileTags{}, nil
}

// runEngine collects all events emitted by one run.
func runEngine(t *testing.T, engine *Engine, root string) (*Report, []Event, error) {
	t.Helper()
	events := make(chan Event)
	var collected []Event
	done := make(chan struct{})
	go func() {
		defer close(done)
		for event := range events {
			collected = append(collected, event)
		}
	}()
	report, err := engine.Run(context.Background(), root, events)
	close(events)
	<-done
	return report, collected, err
}

func TestEngine_Run_AddsNewFiles(t *testing.T) {
	root := t.TempDir()
	one := filepath.Join(root, "one.mp3")
	two := filepath.Join(root, "sub", "two.flac")
	writeFile(t, one, []byte("x"))
	writeFile(t, two, []byte("x"))

	catalog := newMockCatalog()
	extractor := &mockExtractor{tags: map[string]*FileTags{
		one: {Title: "One", Artist: "Someone", Album: "First", Year: 2001, Genre: "Rock", Duration: 181.5},
	}}
	engine := NewEngine(catalog, extractor, NewScanner(nil))

	report, _, err := runEngine(t, engine, root)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if len(report.Added) != 2 || len(report.Removed) != 0 || len(report.Unchanged) != 0 {
		t.Fatalf("unexpected report: %d added, %d removed, %d unchanged",
			len(report.Added), len(report.Removed), len(report.Unchanged))
	}

	track, ok := catalog.tracks[one]
	if !ok {
		t.Fatal("expected one.mp3 in catalog")
	}
	if track.Title != "One" || track.Artist != "Someone" || track.Genre != "Rock" {
		t.Errorf("tags not persisted: %+v", track)
	}
	if track.Duration != 181.5 {
		t.Errorf("expected duration 181.5, got %f", track.Duration)
	}
	if track.MIMEType != "audio/mpeg" {
		t.Errorf("expected audio/mpeg, got %s", track.MIMEType)
	}
	if track.AlbumID == "" {
		t.Error("expected album reference to be set")
	}
	if _, ok := catalog.artists["Someone"]; !ok {
		t.Error("expected artist row to be created")
	}

	// A file with no tags still gets cataloged under its filename.
	bare, ok := catalog.tracks[two]
	if !ok {
		t.Fatal("expected two.flac in catalog")
	}
	if bare.Title != "" || bare.Filename != "two.flac" {
		t.Errorf("expected empty title and filename fallback, got %+v", bare)
	}
}

func TestEngine_Run_Idempotent(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.mp3"), []byte("x"))
	writeFile(t, filepath.Join(root, "b.mp3"), []byte("x"))

	catalog := newMockCatalog()
	engine := NewEngine(catalog, &mockExtractor{}, NewScanner(nil))

	if _, _, err := runEngine(t, engine, root); err != nil {
		t.Fatalf("first run failed: %v", err)
	}
	report, _, err := runEngine(t, engine, root)
	if err != nil {
		t.Fatalf("second run failed: %v", err)
	}

	if len(report.Added) != 0 || len(report.Removed) != 0 {
		t.Errorf("expected empty added/removed on second run, got %d/%d",
			len(report.Added), len(report.Removed))
	}
	if len(report.Unchanged) != 2 {
		t.Errorf("expected 2 unchanged, got %d", len(report.Unchanged))
	}
}

func TestEngine_Run_RemovesDeletedFiles(t *testing.T) {
	root := t.TempDir()
	kept := filepath.Join(root, "kept.mp3")
	writeFile(t, kept, []byte("x"))

	catalog := newMockCatalog()
	gone := filepath.Join(root, "gone.mp3")
	catalog.tracks[kept] = &music.Track{ID: "id-kept", Path: kept, Filename: "kept.mp3"}
	catalog.tracks[gone] = &music.Track{ID: "id-gone", Path: gone, Filename: "gone.mp3"}

	engine := NewEngine(catalog, &mockExtractor{}, NewScanner(nil))
	report, _, err := runEngine(t, engine, root)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if len(report.Removed) != 1 || report.Removed[0].ID != "id-gone" {
		t.Fatalf("expected exactly id-gone removed, got %+v", report.Removed)
	}
	if len(report.Unchanged) != 1 || report.Unchanged[0].ID != "id-kept" {
		t.Fatalf("expected id-kept unchanged, got %+v", report.Unchanged)
	}
	if _, ok := catalog.tracks[gone]; ok {
		t.Error("expected gone.mp3 deleted from catalog")
	}
}

func TestEngine_Run_SkipsFailedExtraction(t *testing.T) {
	root := t.TempDir()
	good := filepath.Join(root, "good.mp3")
	bad := filepath.Join(root, "bad.mp3")
	writeFile(t, good, []byte("x"))
	writeFile(t, bad, []byte("x"))

	catalog := newMockCatalog()
	extractor := &mockExtractor{errs: map[string]error{bad: errors.New("corrupt file")}}
	engine := NewEngine(catalog, extractor, NewScanner(nil))

	report, _, err := runEngine(t, engine, root)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if len(report.Added) != 1 || report.Added[0].Path != good {
		t.Fatalf("expected only good.mp3 added, got %+v", report.Added)
	}
	if _, ok := catalog.tracks[bad]; ok {
		t.Error("corrupt file must not enter the catalog")
	}
}

func TestEngine_Run_SkipsFailedStoreWrite(t *testing.T) {
	root := t.TempDir()
	good := filepath.Join(root, "good.mp3")
	bad := filepath.Join(root, "bad.mp3")
	writeFile(t, good, []byte("x"))
	writeFile(t, bad, []byte("x"))

	catalog := newMockCatalog()
	catalog.failAdd[bad] = true
	engine := NewEngine(catalog, &mockExtractor{}, NewScanner(nil))

	report, _, err := runEngine(t, engine, root)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if len(report.Added) != 1 || report.Added[0].Path != good {
		t.Fatalf("expected only good.mp3 added, got %+v", report.Added)
	}
}

func TestEngine_Run_UnreadableRootFails(t *testing.T) {
	catalog := newMockCatalog()
	catalog.tracks["/m/x.mp3"] = &music.Track{ID: "x", Path: "/m/x.mp3", Filename: "x.mp3"}
	engine := NewEngine(catalog, &mockExtractor{}, NewScanner(nil))

	_, events, err := runEngine(t, engine, filepath.Join(t.TempDir(), "missing"))
	if err == nil {
		t.Fatal("expected error for unreadable root")
	}
	if len(events) != 0 {
		t.Errorf("expected no events before failure, got %d", len(events))
	}
	if len(catalog.tracks) != 1 {
		t.Error("catalog must not be mutated on a failed run")
	}
}

func TestEngine_Run_PhaseOrdering(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.mp3"), []byte("x"))
	writeFile(t, filepath.Join(root, "b.mp3"), []byte("x"))

	catalog := newMockCatalog()
	stale := filepath.Join(root, "stale.mp3")
	catalog.tracks[stale] = &music.Track{ID: "stale", Path: stale, Filename: "stale.mp3"}

	engine := NewEngine(catalog, &mockExtractor{}, NewScanner(nil))
	_, events, err := runEngine(t, engine, root)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	order := map[Phase]int{PhaseScanning: 0, PhaseProcessing: 1, PhaseCleanup: 2}
	last := -1
	terminals := 0
	for i, event := range events {
		switch event.Status {
		case "progress":
			if terminals > 0 {
				t.Errorf("progress event %d after terminal event", i)
			}
			rank, ok := order[event.Type]
			if !ok {
				t.Fatalf("unknown phase %q", event.Type)
			}
			if rank < last {
				t.Errorf("event %d: phase %s out of order", i, event.Type)
			}
			last = rank
		case "complete":
			terminals++
			if i != len(events)-1 {
				t.Errorf("terminal event at %d, expected last (%d)", i, len(events)-1)
			}
		default:
			t.Errorf("unexpected status %q", event.Status)
		}
	}
	if terminals != 1 {
		t.Fatalf("expected exactly one terminal event, got %d", terminals)
	}

	final := events[len(events)-1]
	if final.Added != 2 || final.Removed != 1 || final.Unchanged != 0 {
		t.Errorf("unexpected terminal tallies: %+v", final)
	}
	if len(final.AddedTracks) != 2 || len(final.RemovedTracks) != 1 {
		t.Errorf("terminal event must carry the report sets")
	}
}

func TestEngine_Run_DiscoversAlbumCover(t *testing.T) {
	root := t.TempDir()
	song := filepath.Join(root, "album", "song.mp3")
	cover := filepath.Join(root, "album", "cover.jpg")
	writeFile(t, song, []byte("x"))
	writeFile(t, cover, []byte("x"))

	catalog := newMockCatalog()
	extractor := &mockExtractor{tags: map[string]*FileTags{
		song: {Title: "Song", Artist: "Band", Album: "Record"},
	}}
	engine := NewEngine(catalog, extractor, NewScanner(nil))

	if _, _, err := runEngine(t, engine, root); err != nil {
		t.Fatalf("run failed: %v", err)
	}

	album, ok := catalog.albums["Record|Band"]
	if !ok {
		t.Fatal("expected album to be created")
	}
	if album.CoverPath != cover {
		t.Errorf("expected cover %s, got %q", cover, album.CoverPath)
	}
}

func TestEngine_Run_Cancelled(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.mp3"), []byte("x"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	engine := NewEngine(newMockCatalog(), &mockExtractor{}, NewScanner(nil))
	events := make(chan Event, 16)
	_, err := engine.Run(ctx, root, events)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestReport_Summary(t *testing.T) {
	report := &Report{
		Added:   []*music.Track{{}, {}},
		Removed: []*music.Track{{}},
	}
	want := fmt.Sprintf("Indexing finished: %d added, %d removed, %d unchanged.", 2, 1, 0)
	if got := report.Summary(); got != want {
		t.Errorf("Summary() = %q, want %q", got, want)
	}
}
