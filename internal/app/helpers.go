package app

import (
	"fmt"

	"github.com/blackwell-systems/tagctl/internal/dto"
	"github.com/blackwell-systems/tagctl/internal/gateway"
	"github.com/blackwell-systems/tagctl/internal/tui"
)

// connect validates the connection settings and points the gateway at a
// proxy, auto-starting a loopback instance when none is configured. The
// returned stop func shuts the loopback down.
func connect() (func(), error) {
	if err := cfg.RequireConnection(); err != nil {
		return nil, err
	}
	base, stop, err := startBackend()
	if err != nil {
		return nil, err
	}
	gw = gateway.New(base, dto.Auth{Base: cfg.Jellyfin.Base, APIKey: cfg.Jellyfin.APIKey})
	return stop, nil
}

// pickUser resolves the working user: the remembered default when it
// still exists on the server, an interactive picker otherwise.
func pickUser() (dto.User, error) {
	users, err := gw.Users()
	if err != nil {
		return dto.User{}, fmt.Errorf("listing users: %w", err)
	}
	if id := cfg.Defaults.UserID; id != "" {
		for _, u := range users {
			if u.ID == id {
				return u, nil
			}
		}
		warn("Configured user %s not found on server", id)
	}
	return tui.RunUserPicker(users)
}

// pickLibrary resolves the working library the same way.
func pickLibrary() (dto.Library, error) {
	libraries, err := gw.Libraries()
	if err != nil {
		return dto.Library{}, fmt.Errorf("listing libraries: %w", err)
	}
	if id := cfg.Defaults.LibraryID; id != "" {
		for _, lib := range libraries {
			if lib.ID == id {
				return lib, nil
			}
		}
		warn("Configured library %s not found on server", id)
	}
	return tui.RunLibraryPicker(libraries)
}

// requireUserID resolves the user id for non-interactive commands: the
// flag wins, then the configured default.
func requireUserID(flag string) (string, error) {
	if flag != "" {
		return flag, nil
	}
	if cfg.Defaults.UserID != "" {
		return cfg.Defaults.UserID, nil
	}
	return "", fmt.Errorf("no user selected: pass --user or set defaults.user_id (see 'tagctl users')")
}

// requireLibraryID resolves the library id the same way.
func requireLibraryID(flag string) (string, error) {
	if flag != "" {
		return flag, nil
	}
	if cfg.Defaults.LibraryID != "" {
		return cfg.Defaults.LibraryID, nil
	}
	return "", fmt.Errorf("no library selected: pass --library or set defaults.library_id (see 'tagctl libraries')")
}
