package web

import (
	"embed"
	"io/fs"
	"net/http"
)

var (
	//go:embed static/*
	embeddedStaticFiles embed.FS

	//go:embed templates/*
	embeddedTemplates embed.FS
)

// embeddedDir serves dir of tree as its root, so /static/css/app.css maps to static/css/app.css
// and the template engine sees "events/list.gohtml" instead of "templates/events/list.gohtml".
func embeddedDir(tree embed.FS, dir string) http.FileSystem {
	sub, err := fs.Sub(tree, dir)
	if err != nil {
		// only reachable when the go:embed patterns above stop matching dir
		panic(err)
	}

	return http.FS(sub)
}
