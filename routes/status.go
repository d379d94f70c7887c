package routes

import (
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"

	"weddingplanner/utils"
)

// StatusReport is the health check body.
type StatusReport struct {
	Version   string    `json:"version"`
	StartTime time.Time `json:"start_time"`
	// Uptime is in seconds.
	Uptime float64 `json:"uptime"`
}

// Status reports the build version and how long the process has been up.
func Status(version string, started time.Time) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		utils.NoCache(w)
		utils.RespondWithJSON(w, http.StatusOK, StatusReport{
			Version:   version,
			StartTime: started.UTC(),
			Uptime:    time.Since(started).Seconds(),
		})
	}
}
