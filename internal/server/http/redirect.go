package httpserver

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
)

const (
	homeRoute      = "/"
	signinRoute    = "/signin"
	protectedRoute = "/protected"

	pageSelector = "#page"
)

type hxLocation struct {
	Path   string `json:"path"`
	Target string `json:"target"`
}

// clientRedirect answers with status and asks htmx to load path into the page container.
func clientRedirect(w http.ResponseWriter, status int, path string) {
	loc, _ := json.Marshal(hxLocation{Path: path, Target: pageSelector})
	w.Header().Set("HX-Location", string(loc))
	w.WriteHeader(status)
}

// safeNext keeps only same-site absolute paths; anything else falls back to home.
func safeNext(next string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return homeRoute
	}
	u, err := url.Parse(next)
	if err != nil || u.Scheme != "" || u.Host != "" {
		return homeRoute
	}
	return next
}

func signinURL(next string) string {
	return signinRoute + "?" + url.Values{"next": {next}}.Encode()
}
