package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// CustomResponseWriter is a wrapper for http.ResponseWriter. It is
// used to record response details like status code and body size.
type CustomResponseWriter struct {
	http.ResponseWriter
	code  int
	bytes int
	wrote bool
}

// NewCustomResponseWriter provides CustomResponseWriter with 200 as status code.
func NewCustomResponseWriter(rw http.ResponseWriter) *CustomResponseWriter {
	return &CustomResponseWriter{
		ResponseWriter: rw,
		code:           http.StatusOK,
	}
}

// Header implements http.Header interface.
func (cw *CustomResponseWriter) Header() http.Header {
	return cw.ResponseWriter.Header()
}

// WriteHeader implements http.WriteHeader interface.
func (cw *CustomResponseWriter) WriteHeader(code int) {
	if !cw.wrote {
		cw.code = code
		cw.wrote = true
		cw.ResponseWriter.WriteHeader(code)
	}
}

// Write implements http.Write interface.
func (cw *CustomResponseWriter) Write(bytes []byte) (int, error) {
	if !cw.wrote {
		cw.WriteHeader(cw.code)
	}

	n, err := cw.ResponseWriter.Write(bytes)
	cw.bytes += n
	return n, err
}

// Status returns the written status code.
func (cw *CustomResponseWriter) Status() int {
	return cw.code
}

// Bytes returns bytes written as response body.
func (cw *CustomResponseWriter) Bytes() int {
	return cw.bytes
}

// Unwrap returns native response writer and used by
// the http.ResponseController during its operation.
func (cw *CustomResponseWriter) Unwrap() http.ResponseWriter {
	return cw.ResponseWriter
}

// APIError is the data model sent when an error occurred during request processing.
type APIError struct {
	RequestID string `json:"requestid,omitempty"`
	Status    int    `json:"-"`
	Message   string `json:"error"`
}

// APIResponse is the data model sent when a request succeed. Only one of
// `book`, `books` or `message` is set depending on the operation. We use
// a pointer on `books` so an empty catalog is still sent as an array.
type APIResponse struct {
	RequestID string  `json:"requestid,omitempty"`
	Status    int     `json:"-"`
	Success   bool    `json:"success"`
	Message   string  `json:"message,omitempty"`
	Total     *int    `json:"total,omitempty"`
	Book      *Book   `json:"book,omitempty"`
	Books     *[]Book `json:"books,omitempty"`
}

func NewAPIError(requestid string, status int, message string) *APIError {
	return &APIError{
		RequestID: requestid,
		Status:    status,
		Message:   message,
	}
}

// MethodNotAllowedError builds the error sent for unsupported verbs.
func MethodNotAllowedError(requestid, method string) *APIError {
	return NewAPIError(requestid, http.StatusMethodNotAllowed, fmt.Sprintf("Method %s Not Allowed", method))
}

// BooksResponse wraps a list of books with its size.
func BooksResponse(requestid string, books []Book) *APIResponse {
	if books == nil {
		books = []Book{}
	}
	total := len(books)
	return &APIResponse{
		RequestID: requestid,
		Status:    http.StatusOK,
		Success:   true,
		Total:     &total,
		Books:     &books,
	}
}

// BookResponse wraps a single book.
func BookResponse(requestid string, status int, book Book) *APIResponse {
	return &APIResponse{
		RequestID: requestid,
		Status:    status,
		Success:   true,
		Book:      &book,
	}
}

// MessageResponse wraps an informative message.
func MessageResponse(requestid string, status int, message string) *APIResponse {
	return &APIResponse{
		RequestID: requestid,
		Status:    status,
		Success:   true,
		Message:   message,
	}
}

// WriteErrorResponse is used to send error response to client. In case the client closes the request,
// it logs the stats with the Nginx non standard status code 499 (Client Closed Request). In case of
// request processing timeout we set the status code to 504 which will be used to log the stats. The
// timeout handler already sent a message to the client in that case.
func WriteErrorResponse(ctx context.Context, w http.ResponseWriter, errResp *APIError) error {
	if err := abortOnDoneContext(ctx, w); err != nil {
		return err
	}
	w.Header().Set("Content-Type", "application/json; charset=UTF-8")
	w.WriteHeader(errResp.Status)
	return json.NewEncoder(w).Encode(errResp)
}

// WriteResponse is used to send success api response to client. It sets the status code to 499
// in case client cancelled the request, and to 504 if the request processing timed out.
func WriteResponse(ctx context.Context, w http.ResponseWriter, resp *APIResponse) error {
	if err := abortOnDoneContext(ctx, w); err != nil {
		return err
	}
	w.Header().Set("Content-Type", "application/json; charset=UTF-8")
	w.WriteHeader(resp.Status)
	return json.NewEncoder(w).Encode(resp)
}

func abortOnDoneContext(ctx context.Context, w http.ResponseWriter) error {
	err := ctx.Err()
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		w.WriteHeader(http.StatusGatewayTimeout)
	} else {
		w.WriteHeader(499)
	}
	return err
}

// StatusResponse is the data model sent when status endpoint is called.
type StatusResponse struct {
	RequestID string `json:"requestid"`
	Status    string `json:"status"`
	Message   string `json:"message"`
}

// NotFoundResponse is the data model sent when no route matches.
type NotFoundResponse struct {
	RequestID string `json:"requestid"`
	Message   string `json:"message"`
	Path      string `json:"path"`
}
