package http

import (
	"encoding/json"
	"log"
	"net/http"
)

// devMode echoes internal error detail on 500s. Never enabled in production.
var devMode = true

func SetDevMode(b bool) { devMode = b }

// ok writes the success envelope: {"success": true, ...fields}.
func ok(w http.ResponseWriter, status int, fields map[string]any) {
	body := map[string]any{"success": true}
	for k, v := range fields {
		body[k] = v
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// fail writes the error envelope: {"success": false, "message": msg}.
func fail(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{"success": false, "message": msg})
}

// failServer logs the underlying error and returns a generic 500 envelope.
func failServer(w http.ResponseWriter, publicMsg string, err error) {
	log.Printf("%s: %v", publicMsg, err)
	msg := publicMsg
	if devMode && err != nil {
		msg = publicMsg + ": " + err.Error()
	}
	fail(w, http.StatusInternalServerError, msg)
}
