package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/htmlssg/htmlssg/internal/build"
	"github.com/htmlssg/htmlssg/internal/logging"
	"github.com/htmlssg/htmlssg/internal/testutils"
)

func TestContentType(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"index.html", "text/html"},
		{"styles.css", "text/css"},
		{"app.js", "application/javascript"},
		{"LOGO.PNG", "image/png"},
		{"photo.jpeg", "image/jpeg"},
		{"icon.svg", "image/svg+xml"},
		{"font.woff2", "font/woff2"},
		{"clip.webm", "video/webm"},
		{"archive.tar.gz", "application/octet-stream"},
		{"Makefile", "application/octet-stream"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ContentType(tt.name))
		})
	}
}

func newOutputFs(t *testing.T, files testutils.SiteFiles) afero.Fs {
	t.Helper()
	fs := testutils.NewMemSite(t, "/dist", files)
	require.NoError(t, afero.WriteFile(fs, "/secret.txt", []byte("secret"), 0o644))
	return fs
}

func TestFileHandler(t *testing.T) {
	fs := newOutputFs(t, testutils.SiteFiles{
		"index/index.html": "<html><body>home</body></html>",
		"blog/index.html":  "<html><body>blog</body></html>",
		"styles.css":       "body{}",
		"data.bin":         "\x00\x01",
		"empty/.keep":      "",
	})
	handler := NewFileHandler(fs, "/dist", false)

	tests := []struct {
		name        string
		path        string
		wantStatus  int
		wantType    string
		wantContent string
	}{
		{"root falls back to the index page", "/", http.StatusOK, "text/html", "home"},
		{"directory with trailing slash", "/blog/", http.StatusOK, "text/html", "blog"},
		{"directory without trailing slash", "/blog", http.StatusOK, "text/html", "blog"},
		{"explicit index file", "/blog/index.html", http.StatusOK, "text/html", "blog"},
		{"stylesheet", "/styles.css", http.StatusOK, "text/css", "body{}"},
		{"unknown extension", "/data.bin", http.StatusOK, "application/octet-stream", "\x00\x01"},
		{"missing file", "/nope.html", http.StatusNotFound, "text/plain; charset=utf-8", "404 Not Found"},
		{"directory without index", "/empty/", http.StatusNotFound, "text/plain; charset=utf-8", "404 Not Found"},
		{"traversal outside the root", "/../secret.txt", http.StatusNotFound, "text/plain; charset=utf-8", "404 Not Found"},
		{"nested traversal", "/blog/../../secret.txt", http.StatusNotFound, "text/plain; charset=utf-8", "404 Not Found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.URL.Path = tt.path
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantType, rec.Header().Get("Content-Type"))
			assert.Equal(t, tt.wantContent, rec.Body.String())
		})
	}
}

func TestFileHandlerPrefersRootIndex(t *testing.T) {
	fs := newOutputFs(t, testutils.SiteFiles{
		"index.html":       "root",
		"index/index.html": "index page",
	})

	rec := httptest.NewRecorder()
	NewFileHandler(fs, "/dist", false).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, "root", rec.Body.String())
}

func TestFileHandlerMethods(t *testing.T) {
	fs := newOutputFs(t, testutils.SiteFiles{"styles.css": "body{}"})
	handler := NewFileHandler(fs, "/dist", false)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodHead, "/styles.css", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "6", rec.Header().Get("Content-Length"))
	assert.Empty(t, rec.Body.String())

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/styles.css", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestFileHandlerLiveReloadInjection(t *testing.T) {
	fs := newOutputFs(t, testutils.SiteFiles{
		"page/index.html": "<html><body><p>x</p></body></html>",
		"bare/index.html": "<p>fragment</p>",
		"styles.css":      "body{}",
	})
	handler := NewFileHandler(fs, "/dist", true)

	body := func(path string) string {
		rec := get(t, handler, path)
		require.Equal(t, http.StatusOK, rec.Code)
		return rec.Body.String()
	}

	assert.Equal(t, "<html><body><p>x</p>"+liveReloadScript+"</body></html>", body("/page/"))
	assert.Equal(t, "<p>fragment</p>"+liveReloadScript, body("/bare/"))
	assert.Equal(t, "body{}", body("/styles.css"))
	assert.Contains(t, liveReloadScript, LiveReloadPath)
}

func newTestServer(t *testing.T, opts Options) (*Server, afero.Fs) {
	t.Helper()
	fs := testutils.NewMemSite(t, "/site", testutils.SampleSite())
	gen := build.NewGenerator(fs, build.Options{SourceDir: "/site", OutputDir: "/site/dist", Workers: 2}, logging.Discard())
	return New(fs, gen, opts, logging.Discard()), fs
}

func get(t *testing.T, handler http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestServerRebuildServesOutput(t *testing.T) {
	srv, _ := newTestServer(t, Options{})

	result, err := srv.Rebuild(context.Background())
	require.NoError(t, err)
	require.Len(t, result.Pages, 4)

	handler := srv.Handler()

	rec := get(t, handler, "/")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "<title>Sample</title>")
	assert.NotContains(t, rec.Body.String(), LiveReloadPath)

	rec = get(t, handler, "/styles.css")
	assert.Equal(t, "text/css", rec.Header().Get("Content-Type"))

	rec = get(t, handler, LiveReloadPath)
	assert.Equal(t, http.StatusNotFound, rec.Code, "no socket without live reload")
}

func TestServerStatusPage(t *testing.T) {
	srv, fs := newTestServer(t, Options{})
	handler := srv.Handler()

	rec := get(t, handler, StatusPath)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "No build yet")

	_, err := srv.Rebuild(context.Background())
	require.NoError(t, err)

	rec = get(t, handler, StatusPath)
	body := rec.Body.String()
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, body, "4 pages, 2 skipped")
	assert.Contains(t, body, `<a href="/blog/first/">/blog/first/</a>`)
	assert.Contains(t, body, "pages/loose.md")
	assert.Contains(t, body, `<tr><th>Successful</th><td>1</td></tr>`)
	assert.Contains(t, body, `<tr><th>Success rate</th><td>100%</td></tr>`)

	require.NoError(t, fs.RemoveAll("/site"))
	_, err = srv.Rebuild(context.Background())
	require.Error(t, err)

	body = get(t, handler, StatusPath).Body.String()
	assert.Contains(t, body, "Last build failed")
	assert.Contains(t, body, `<tr><th>Failed</th><td>1</td></tr>`)
	assert.Contains(t, body, `<tr><th>Success rate</th><td>50%</td></tr>`)
}

func TestStatusPageEscapes(t *testing.T) {
	var b strings.Builder
	err := StatusPage(&Status{
		Version: "<v1>",
		Result: &build.Result{
			Skipped: []build.SkippedPage{{Path: "pages/<x>.md", Reason: `a "quoted" reason`}},
		},
	}).Render(context.Background(), &b)
	require.NoError(t, err)

	assert.Contains(t, b.String(), "Version &lt;v1&gt;")
	assert.Contains(t, b.String(), "pages/&lt;x&gt;.md: a &#34;quoted&#34; reason")
}

func TestServerHealth(t *testing.T) {
	srv, _ := newTestServer(t, Options{})
	_, err := srv.Rebuild(context.Background())
	require.NoError(t, err)

	rec := get(t, srv.Handler(), HealthPath)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var health map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &health))
	assert.Equal(t, "healthy", health["status"])
	assert.Equal(t, float64(4), health["pages"])
}

func TestCheckOrigin(t *testing.T) {
	tests := []struct {
		name   string
		origin string
		host   string
		want   bool
	}{
		{"same host", "http://example.test:3000", "example.test:3000", true},
		{"localhost", "http://localhost:3000", "127.0.0.1:3000", true},
		{"loopback ip", "https://127.0.0.1:8080", "localhost:3000", true},
		{"missing origin", "", "localhost:3000", false},
		{"foreign host", "http://evil.example", "localhost:3000", false},
		{"non-http scheme", "file://localhost", "localhost:3000", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, LiveReloadPath, nil)
			req.Host = tt.host
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			assert.Equal(t, tt.want, checkOrigin(req))
		})
	}
}

func dialHub(t *testing.T, ctx context.Context, srv *httptest.Server, origin string) (*websocket.Conn, *http.Response, error) {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + LiveReloadPath
	return websocket.Dial(ctx, url, &websocket.DialOptions{
		HTTPHeader: http.Header{"Origin": []string{origin}},
	})
}

func TestHubBroadcastsReload(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	hub := NewHub(logging.Discard())
	go hub.Run(ctx)

	mux := http.NewServeMux()
	mux.Handle(LiveReloadPath, hub)
	srv := httptest.NewServer(mux)
	defer srv.Close()

	conn, _, err := dialHub(t, ctx, srv, srv.URL)
	require.NoError(t, err)
	defer conn.CloseNow()

	assert.Eventually(t, func() bool { return hub.Clients() == 1 }, 2*time.Second, 10*time.Millisecond)

	hub.Broadcast(UpdateMessage{Type: "reload", Timestamp: time.Now()})

	typ, payload, err := conn.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, websocket.MessageText, typ)

	var msg UpdateMessage
	require.NoError(t, json.Unmarshal(payload, &msg))
	assert.Equal(t, "reload", msg.Type)

	require.NoError(t, conn.Close(websocket.StatusNormalClosure, ""))
	assert.Eventually(t, func() bool { return hub.Clients() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestHubRejectsForeignOrigin(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	hub := NewHub(logging.Discard())
	go hub.Run(ctx)

	srv := httptest.NewServer(hub)
	defer srv.Close()

	_, resp, err := dialHub(t, ctx, srv, "http://evil.example")
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Zero(t, hub.Clients())
}

func TestHubBroadcastWithoutClients(t *testing.T) {
	hub := NewHub(nil)
	for i := 0; i < clientBuffer*2; i++ {
		hub.Broadcast(UpdateMessage{Type: "reload"})
	}
	assert.Zero(t, hub.Clients())
}

func TestServerStartWatchAndReload(t *testing.T) {
	if testing.Short() {
		t.Skip("starts a real server and file watcher")
	}

	root := testutils.CreateTempSite(t, testutils.SampleSite())
	fs := afero.NewOsFs()
	gen := build.NewGenerator(fs, build.Options{
		SourceDir: root,
		OutputDir: filepath.Join(root, "dist"),
		Workers:   2,
	}, logging.Discard())

	srv := New(fs, gen, Options{
		Host:       "127.0.0.1",
		Port:       0,
		Watch:      true,
		LiveReload: true,
		Debounce:   50 * time.Millisecond,
	}, logging.Discard())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Start(ctx) }()

	require.Eventually(t, func() bool { return srv.Addr() != "" }, 5*time.Second, 20*time.Millisecond)
	base := "http://" + srv.Addr()

	fetch := func(path string) string {
		resp, err := http.Get(base + path)
		if err != nil {
			return ""
		}
		defer resp.Body.Close()
		body, _ := io.ReadAll(resp.Body)
		return string(body)
	}

	page := fetch("/blog/")
	assert.Contains(t, page, `<p>Ana</p>`)
	assert.Contains(t, page, LiveReloadPath)

	require.NoError(t, os.WriteFile(filepath.Join(root, "pages", "blog", "blog.html"),
		[]byte(`<p data-blog="author"></p><p>edited</p>`), 0o644))

	assert.Eventually(t, func() bool {
		return strings.Contains(fetch("/blog/"), "<p>edited</p>")
	}, 5*time.Second, 50*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("server did not shut down")
	}
}

func TestServerStartFailsWithoutSource(t *testing.T) {
	fs := afero.NewMemMapFs()
	gen := build.NewGenerator(fs, build.Options{SourceDir: "/missing", OutputDir: "/out"}, logging.Discard())

	err := New(fs, gen, Options{Host: "127.0.0.1"}, nil).Start(context.Background())
	require.Error(t, err)
}
