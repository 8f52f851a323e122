package api

import (
	"net/http"
)

func (api *Server) handleListFiles(w http.ResponseWriter, r *http.Request) {
	dir := r.URL.Query().Get("directory")
	if dir == "" {
		dir = "/"
	}

	files, err := api.Manager.ListFiles(r.PathValue("uuid"), dir)
	if err != nil {
		api.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, files)
}
