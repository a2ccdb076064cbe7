package controllers

import (
	"net/http"

	httputils "chatgw/chatgw/utils/http"
	"chatgw/chatgw/utils/types"
	"chatgw/chatgw/version"
)

// ServiceInfo answers GET / with pointers to the API endpoints.
func ServiceInfo(w http.ResponseWriter, r *http.Request) {
	httputils.WriteJSON(w, http.StatusOK, types.ServiceInfo{
		OK:      true,
		Service: version.AppName,
		Version: version.GitCommit,
		Health:  "/api/health",
		Chat:    "/api/chat",
	})
}
