package web

import (
	"embed"
	"io/fs"
)

//go:embed static/*
var staticFiles embed.FS

// staticRoot returns the stylesheet tree rooted at static/.
func staticRoot() fs.FS {
	sub, err := fs.Sub(staticFiles, "static")
	if err != nil {
		panic("web: static assets: " + err.Error())
	}
	return sub
}
