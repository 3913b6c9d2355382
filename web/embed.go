// Package web embeds the FinanceFlow frontend bundle for serving from the Go
// binary.
//
// The web/dist/ directory holds the production build of the frontend
// (index.html plus assets/) and is embedded at compile time using go:embed.
//
// Usage in the API server:
//
//	import "github.com/seenimoa/financeflow/web"
//	fsys := web.DistFS()  // returns io/fs.FS rooted at dist/
package web

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
)

//go:embed all:dist
var dist embed.FS

// DistFS returns a filesystem rooted at the embedded dist/ directory.
// This is ready to use with http.FileServerFS or http.FS.
func DistFS() fs.FS {
	sub, err := fs.Sub(dist, "dist")
	if err != nil {
		// dist is embedded at compile time; Sub only fails on a bad path.
		panic(fmt.Sprintf("web.DistFS: %v", err))
	}
	return sub
}

// Open returns the on-disk bundle at dir when dir is set, otherwise the
// embedded one. An on-disk bundle must contain index.html.
func Open(dir string) (fs.FS, error) {
	if dir == "" {
		return DistFS(), nil
	}
	fsys := os.DirFS(dir)
	if _, err := fs.Stat(fsys, "index.html"); err != nil {
		return nil, fmt.Errorf("web: bundle at %s: %w", dir, err)
	}
	return fsys, nil
}
