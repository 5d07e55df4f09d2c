package rest

import (
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	log "github.com/sirupsen/logrus"
)

// FrontendHandler serves static files from dir. Unknown paths without an
// extension fall back to index, so client side routes keep working on reload.
type FrontendHandler struct {
	dir   string
	index string
	files http.Handler
}

func NewFrontendHandler(dir string, index string) *FrontendHandler {
	return &FrontendHandler{
		dir:   dir,
		index: index,
		files: http.FileServer(http.Dir(dir)),
	}
}

func (h *FrontendHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	clean := path.Clean("/" + r.URL.Path)
	_, err := os.Stat(filepath.Join(h.dir, filepath.FromSlash(clean)))
	if os.IsNotExist(err) && path.Ext(clean) == "" && !strings.HasPrefix(clean, "/api/") {
		log.Tracef("Serving %s for %s", h.index, clean)
		http.ServeFile(w, r, filepath.Join(h.dir, h.index))
		return
	}
	h.files.ServeHTTP(w, r)
}
