package main

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"os"
	"strings"
)

// MaxRequestBodySize bounds the size of book request payloads (1MB).
const MaxRequestBodySize int64 = 1 << 20

var (
	ErrBookNotFound       = errors.New("book not found")
	ErrInvalidRequestBody = errors.New("invalid request body")
	ErrMissingBookID      = missingFieldError("id")

	errTrailingData = errors.New("unexpected data after json value")
)

type (
	ContextKey        string
	missingFieldError string
)

const (
	RequestIDPrefix         string     = "r"
	RequestIDContextKey     ContextKey = "request.id"
	RequestNumberContextKey ContextKey = "request.number"
)

func (m missingFieldError) Error() string {
	return string(m) + " is required"
}

// DeleteBookRequest is the payload of a book deletion request.
type DeleteBookRequest struct {
	ID *int64 `json:"id"`
}

// GetValueFromContext returns the value of a given key in the context
// if this key is not available, it returns an empty string.
func GetValueFromContext(ctx context.Context, contextKey ContextKey) string {
	if val, ok := ctx.Value(contextKey).(string); ok {
		return val
	}
	return ""
}

// GetRequestNumberFromContext returns the request number set in
// the context. if not previously set then it returns 0.
func GetRequestNumberFromContext(ctx context.Context) uint64 {
	if val, ok := ctx.Value(RequestNumberContextKey).(uint64); ok {
		return val
	}
	return 0
}

// decodeJSONBody reads a size-limited JSON request body into v. An empty
// body leaves v untouched so that field validation reports what is missing.
// Any transport or syntax failure, or data left after the JSON value, is
// reported as ErrInvalidRequestBody.
func decodeJSONBody(w http.ResponseWriter, r *http.Request, v interface{}) error {
	if r.Body == nil || r.Body == http.NoBody {
		return nil
	}
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, MaxRequestBodySize))
	err := dec.Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	if err != nil {
		return errors.Join(ErrInvalidRequestBody, err)
	}
	if err = dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return errors.Join(ErrInvalidRequestBody, errTrailingData)
	}
	return nil
}

// DecodeCreateBookRequestBody is a helper function to read the content of a book creation request.
func DecodeCreateBookRequestBody(w http.ResponseWriter, r *http.Request, nb *NewBook) error {
	return decodeJSONBody(w, r, nb)
}

// DecodeDeleteBookRequestBody is a helper function to read the content of a book deletion request.
func DecodeDeleteBookRequestBody(w http.ResponseWriter, r *http.Request, req *DeleteBookRequest) error {
	return decodeJSONBody(w, r, req)
}

// ValidateCreateBookRequestBody is a helper function to check if the content of a book creation request is valid.
func ValidateCreateBookRequestBody(nb *NewBook) error {
	if len(nb.Title) == 0 {
		return missingFieldError("title")
	}

	if len(nb.Author) == 0 {
		return missingFieldError("author")
	}

	if len(nb.Image) == 0 {
		return missingFieldError("image")
	}

	return nil
}

// ValidateDeleteBookRequestBody returns the id to delete. A zero id is
// treated as missing since the catalog never assigns it.
func ValidateDeleteBookRequestBody(req *DeleteBookRequest) (int64, error) {
	if req.ID == nil || *req.ID == 0 {
		return 0, ErrMissingBookID
	}
	return *req.ID, nil
}

// GetRequestSourceIP helps find the source IP of the caller.
func GetRequestSourceIP(r *http.Request) string {
	// Get IP from the X-REAL-IP header
	ip := r.Header.Get("X-REAL-IP")
	netIP := net.ParseIP(ip)
	if netIP != nil {
		return ip
	}

	// Get IP from X-FORWARDED-FOR header
	ips := r.Header.Get("X-FORWARDED-FOR")
	splitIps := strings.Split(ips, ",")
	for _, ip := range splitIps {
		ip = strings.TrimSpace(ip)
		netIP = net.ParseIP(ip)
		if netIP != nil {
			return ip
		}
	}

	// Get IP from RemoteAddr
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return ""
	}
	netIP = net.ParseIP(ip)
	if netIP != nil {
		return ip
	}
	return ""
}

// IsAppRunningInDocker checks the existence of the .dockerenv
// file at the root directory and returns a boolean result. This
// helps know if the App is running in a docker container or not.
func IsAppRunningInDocker() bool {
	if _, err := os.Stat("/.dockerenv"); err == nil {
		return true
	}
	return false
}
