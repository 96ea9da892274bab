package handlers

import (
	"net"
	"net/http"
)

// Info serves public static metadata about the project and the host it was
// reached on.
func Info(version string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		host := r.Host
		if h, _, err := net.SplitHostPort(host); err == nil {
			host = h
		}
		respondJSON(w, http.StatusOK, map[string]any{
			"proyecto": map[string]any{
				"nombre":      "SmartConnect API",
				"version":     version,
				"descripcion": "Sistema de gestión de sensores y barreras IoT",
				"tecnologias": []string{"Go", "chi", "GORM", "PostgreSQL", "JWT", "MQTT"},
			},
			"servidor": map[string]any{
				"ip":       host,
				"url_base": "http://" + host + "/api/",
			},
		})
	}
}

// Index lists the resource collections under /api/.
func Index() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		base := "http://" + r.Host + "/api/"
		respondJSON(w, http.StatusOK, map[string]string{
			"departamentos": base + "departamentos/",
			"sensores":      base + "sensores/",
			"usuarios":      base + "usuarios/",
			"barreras":      base + "barreras/",
			"eventos":       base + "eventos/",
			"info":          base + "info/",
		})
	}
}
