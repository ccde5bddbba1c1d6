package server

import (
	"bytes"
	"io"
	"net/http"
	"path"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/afero"
)

// contentTypes maps lower-cased extensions to response content types.
var contentTypes = map[string]string{
	".html":  "text/html",
	".css":   "text/css",
	".js":    "application/javascript",
	".json":  "application/json",
	".png":   "image/png",
	".jpg":   "image/jpeg",
	".jpeg":  "image/jpeg",
	".gif":   "image/gif",
	".svg":   "image/svg+xml",
	".ico":   "image/x-icon",
	".txt":   "text/plain",
	".xml":   "application/xml",
	".pdf":   "application/pdf",
	".zip":   "application/zip",
	".woff":  "font/woff",
	".woff2": "font/woff2",
	".ttf":   "font/ttf",
	".eot":   "application/vnd.ms-fontobject",
	".mp4":   "video/mp4",
	".webm":  "video/webm",
	".mp3":   "audio/mpeg",
	".wav":   "audio/wav",
	".webp":  "image/webp",
}

// ContentType returns the content type for name's extension, or
// application/octet-stream when the extension is unknown.
func ContentType(name string) string {
	if ct, ok := contentTypes[strings.ToLower(filepath.Ext(name))]; ok {
		return ct
	}
	return "application/octet-stream"
}

// LiveReloadPath is where browsers open the live reload socket.
const LiveReloadPath = "/__htmlssg/livereload"

const liveReloadScript = `<script>(function(){` +
	`var p=location.protocol==="https:"?"wss:":"ws:";` +
	`var ws=new WebSocket(p+"//"+location.host+"` + LiveReloadPath + `");` +
	`ws.onmessage=function(e){try{if(JSON.parse(e.data).type==="reload"){location.reload();}}catch(_){}};` +
	`})();</script>`

// FileHandler serves a built site from an output directory.
type FileHandler struct {
	fs         afero.Fs
	root       string
	liveReload bool
}

// NewFileHandler serves files under root. With liveReload, HTML responses
// carry the reload client script.
func NewFileHandler(fs afero.Fs, root string, liveReload bool) *FileHandler {
	return &FileHandler{fs: fs, root: filepath.Clean(root), liveReload: liveReload}
}

func (h *FileHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	name, ok := h.resolve(r.URL.Path)
	if !ok {
		notFound(w)
		return
	}

	content, err := afero.ReadFile(h.fs, name)
	if err != nil {
		notFound(w)
		return
	}

	contentType := ContentType(name)
	if h.liveReload && contentType == "text/html" {
		content = injectScript(content, liveReloadScript)
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(content)))
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)
	if r.Method == http.MethodGet {
		w.Write(content)
	}
}

// resolve maps a URL path to a file under the root. Directories map to their
// index.html, and "/" falls back to the index page's directory when the site
// has no root index.html. Paths with ".." segments never resolve.
func (h *FileHandler) resolve(urlPath string) (string, bool) {
	for _, segment := range strings.Split(urlPath, "/") {
		if segment == ".." {
			return "", false
		}
	}

	clean := path.Clean("/" + urlPath)
	candidates := []string{clean}
	if clean == "/" {
		candidates = append(candidates, "/index/")
	}

	for _, candidate := range candidates {
		name := filepath.Join(h.root, filepath.FromSlash(candidate))
		if name != h.root && !strings.HasPrefix(name, h.root+string(filepath.Separator)) {
			continue
		}

		info, err := h.fs.Stat(name)
		if err != nil {
			continue
		}
		if info.IsDir() {
			name = filepath.Join(name, "index.html")
			if info, err = h.fs.Stat(name); err != nil || info.IsDir() {
				continue
			}
		}
		return name, true
	}
	return "", false
}

// injectScript places script before the last </body>, or appends it.
func injectScript(page []byte, script string) []byte {
	idx := bytes.LastIndex(page, []byte("</body>"))
	if idx < 0 {
		idx = bytes.LastIndex(page, []byte("</BODY>"))
	}
	if idx < 0 {
		return append(page, script...)
	}

	out := make([]byte, 0, len(page)+len(script))
	out = append(out, page[:idx]...)
	out = append(out, script...)
	return append(out, page[idx:]...)
}

func notFound(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusNotFound)
	io.WriteString(w, "404 Not Found")
}
