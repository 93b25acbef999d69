package jellyfin

import (
	"errors"
	"net/http"
	"testing"
)

func TestExtractErrorDetail(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"empty body", "", ""},
		{"not json", "<html>boom</html>", ""},
		{"json array", `[1,2]`, ""},
		{"message only", `{"Message":"Item not found"}`, "Item not found"},
		{"lowercase message", `{"message":"nope"}`, "nope"},
		{"error code", `{"ErrorCode":"SecureConnectionRequired"}`, "ErrorCode=SecureConnectionRequired"},
		{
			"message and code",
			`{"Message":"Denied","ErrorCode":104}`,
			"Denied; ErrorCode=104",
		},
		{
			"response status object",
			`{"ResponseStatus":{"Message":"Bad token","ErrorCode":"Auth"}}`,
			"Bad token; ResponseStatus.ErrorCode=Auth",
		},
		{
			"response status scalar",
			`{"ResponseStatus":"teapot"}`,
			"ResponseStatus=teapot",
		},
		{
			"duplicate details collapse",
			`{"Message":"Denied","ResponseStatus":{"Message":"Denied"}}`,
			"Denied",
		},
		{"empty strings skipped", `{"Message":"   ","ErrorCode":""}`, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := extractErrorDetail([]byte(tt.body)); got != tt.want {
				t.Errorf("extractErrorDetail(%q) = %q, want %q", tt.body, got, tt.want)
			}
		})
	}
}

func TestStatusErrorMessage(t *testing.T) {
	err := &StatusError{
		Code:   http.StatusBadRequest,
		Status: "400 Bad Request",
		URL:    "http://jf.local/Items/abc",
		Detail: "Denied; ErrorCode=104",
	}
	want := "HTTP 400 Bad Request for url: http://jf.local/Items/abc - Denied; ErrorCode=104"
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestStatusErrorUnwrapsSentinels(t *testing.T) {
	tests := []struct {
		code int
		want error
	}{
		{http.StatusUnauthorized, ErrUnauthorized},
		{http.StatusForbidden, ErrForbidden},
		{http.StatusNotFound, ErrNotFound},
	}
	for _, tt := range tests {
		err := &StatusError{Code: tt.code, Status: http.StatusText(tt.code)}
		if !errors.Is(err, tt.want) {
			t.Errorf("status %d: errors.Is(%v) = false", tt.code, tt.want)
		}
	}
	plain := &StatusError{Code: http.StatusConflict}
	if errors.Is(plain, ErrNotFound) {
		t.Error("409 should not unwrap to ErrNotFound")
	}
}
