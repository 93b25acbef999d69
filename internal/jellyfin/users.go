package jellyfin

import (
	"encoding/json"
	"net/http"
)

// Users lists the accounts known to the server. Records are returned
// undecoded so callers can relay them without stripping fields.
func (c *Client) Users() ([]json.RawMessage, error) {
	var users []json.RawMessage
	if err := c.sendJSON(http.MethodGet, c.url("Users"), nil, nil, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// VirtualFolders lists the server's libraries, undecoded like Users.
func (c *Client) VirtualFolders() ([]json.RawMessage, error) {
	var folders []json.RawMessage
	if err := c.sendJSON(http.MethodGet, c.url("Library", "VirtualFolders"), nil, nil, &folders); err != nil {
		return nil, err
	}
	return folders, nil
}
