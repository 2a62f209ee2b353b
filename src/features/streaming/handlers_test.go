package streaming

import (
	"io"
	"net/http/httptest"
	"testing"

	"fermata/src/music"
	"github.com/gofiber/fiber/v2"
)

func newTestApp(t *testing.T, catalog *mockCatalog) *fiber.App {
	t.Helper()
	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	RegisterRoutes(app, NewService(catalog, 0))
	return app
}

func TestHandleTrackStream_FullContent(t *testing.T) {
	catalog := newMockCatalog()
	seedTrack(catalog, "t1", testFile(t, 1000))
	app := newTestApp(t, catalog)

	resp, err := app.Test(httptest.NewRequest("GET", "/tracks/t1/stream", nil))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if got := resp.Header.Get(fiber.HeaderAcceptRanges); got != "bytes" {
		t.Errorf("expected Accept-Ranges bytes, got %q", got)
	}
	if got := resp.Header.Get(fiber.HeaderContentType); got != "audio/mpeg" {
		t.Errorf("expected audio/mpeg, got %q", got)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if len(body) != 1000 {
		t.Errorf("expected 1000 body bytes, got %d", len(body))
	}
}

func TestHandleTrackStream_PartialContent(t *testing.T) {
	catalog := newMockCatalog()
	seedTrack(catalog, "t1", testFile(t, 1000))
	app := newTestApp(t, catalog)

	req := httptest.NewRequest("GET", "/tracks/t1/stream", nil)
	req.Header.Set(fiber.HeaderRange, "bytes=0-99")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != fiber.StatusPartialContent {
		t.Fatalf("expected 206, got %d", resp.StatusCode)
	}
	if got := resp.Header.Get(fiber.HeaderContentRange); got != "bytes 0-99/1000" {
		t.Errorf("expected Content-Range bytes 0-99/1000, got %q", got)
	}
	if got := resp.Header.Get(fiber.HeaderContentLength); got != "100" {
		t.Errorf("expected Content-Length 100, got %q", got)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if len(body) != 100 {
		t.Fatalf("expected 100 body bytes, got %d", len(body))
	}
	for i, b := range body {
		if b != byte(i%256) {
			t.Fatalf("body byte %d is %d, want %d", i, b, byte(i%256))
		}
	}
}

func TestHandleTrackStream_OpenEndedRange(t *testing.T) {
	catalog := newMockCatalog()
	seedTrack(catalog, "t1", testFile(t, 1000))
	app := newTestApp(t, catalog)

	req := httptest.NewRequest("GET", "/tracks/t1/stream", nil)
	req.Header.Set(fiber.HeaderRange, "bytes=900-")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != fiber.StatusPartialContent {
		t.Fatalf("expected 206, got %d", resp.StatusCode)
	}
	if got := resp.Header.Get(fiber.HeaderContentRange); got != "bytes 900-999/1000" {
		t.Errorf("expected Content-Range bytes 900-999/1000, got %q", got)
	}
}

func TestHandleTrackStream_UnknownTrack(t *testing.T) {
	app := newTestApp(t, newMockCatalog())

	resp, err := app.Test(httptest.NewRequest("GET", "/tracks/nope/stream", nil))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != fiber.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestHandleTrackStream_UnsatisfiableRange(t *testing.T) {
	catalog := newMockCatalog()
	seedTrack(catalog, "t1", testFile(t, 1000))
	app := newTestApp(t, catalog)

	req := httptest.NewRequest("GET", "/tracks/t1/stream", nil)
	req.Header.Set(fiber.HeaderRange, "bytes=5000-")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != fiber.StatusRequestedRangeNotSatisfiable {
		t.Fatalf("expected 416, got %d", resp.StatusCode)
	}
	if got := resp.Header.Get(fiber.HeaderContentRange); got != "bytes */1000" {
		t.Errorf("expected Content-Range bytes */1000, got %q", got)
	}
}

func TestHandleAlbumCover(t *testing.T) {
	catalog := newMockCatalog()
	coverPath := testFile(t, 64)
	catalog.albums["a1"] = &music.Album{ID: "a1", Title: "Record", Artist: "Band", CoverPath: coverPath}
	app := newTestApp(t, catalog)

	resp, err := app.Test(httptest.NewRequest("GET", "/albums/a1/cover", nil))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if got := resp.Header.Get(fiber.HeaderCacheControl); got != "public, max-age=31536000, immutable" {
		t.Errorf("unexpected Cache-Control: %q", got)
	}
}

func TestHandleArtistImage_NotSet(t *testing.T) {
	catalog := newMockCatalog()
	catalog.artists["ar1"] = &music.Artist{ID: "ar1", Name: "Band"}
	app := newTestApp(t, catalog)

	resp, err := app.Test(httptest.NewRequest("GET", "/artists/ar1/image", nil))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != fiber.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}
