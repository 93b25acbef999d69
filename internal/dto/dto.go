// Package dto defines the wire contract between the tagctl client and the
// proxy. Every request is a POST with a JSON body carrying the upstream
// Jellyfin address and credential alongside the operation parameters, so
// the proxy itself stays stateless about connections.
package dto

// Auth identifies the upstream server for one request. Both fields may be
// empty when the proxy is configured through its environment instead.
type Auth struct {
	Base   string `json:"base,omitempty"`
	APIKey string `json:"apiKey,omitempty"`
}

// ErrorResponse is the body of any non-2xx proxy response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// UsersRequest asks for the user accounts known to the server.
type UsersRequest struct {
	Auth
}

// User is one Jellyfin user account.
type User struct {
	ID   string `json:"Id"`
	Name string `json:"Name"`
}

// LibrariesRequest asks for the server's virtual folders.
type LibrariesRequest struct {
	Auth
}

// Library is one Jellyfin virtual folder.
type Library struct {
	ID             string `json:"ItemId"`
	Name           string `json:"Name"`
	CollectionType string `json:"CollectionType,omitempty"`
}
