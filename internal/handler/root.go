package handler

import "net/http"

// HandleRoot is the API index: it links the two collections so clients can
// discover the resource URLs.
//
// HTTP: GET /
func HandleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"snippets": "/snippets/",
		"users":    "/users/",
	})
}
