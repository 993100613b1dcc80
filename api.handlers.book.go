package main

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/julienschmidt/httprouter"
	"go.uber.org/zap"
)

// Messages sent back to clients of the books endpoint.
const (
	MsgMissingBookFields   = "All fields (title, author, image) are required."
	MsgMissingBookID       = "Book ID is required for deletion."
	MsgBookNotFound        = "Book not found."
	MsgBookDeleted         = "Book deleted successfully."
	MsgInvalidRequestBody  = "invalid request body."
	MsgFailedToListBooks   = "failed to get all books."
	MsgFailedToCreateBook  = "failed to create the book."
	MsgFailedToDeleteBook  = "failed to delete the book."
	MsgFailedToProcessCall = "failed to process the request."
)

// Index provides same details like `Status` handler by redirecting the request.
func (api *APIHandler) Index(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	http.Redirect(w, r, "/status", http.StatusSeeOther)
}

// Status provides basics details about the application to the public users.
//
//	@Summary	Service status
//	@Tags		status
//	@Produce	json
//	@Success	200	{object}	StatusResponse
//	@Router		/status [get]
func (api *APIHandler) Status(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	requestID := GetValueFromContext(r.Context(), RequestIDContextKey)
	w.Header().Set("Content-Type", "application/json; charset=UTF-8")
	if err := json.NewEncoder(w).Encode(
		StatusResponse{
			RequestID: requestID,
			Status:    "up & running since " + Uptime(api.clock, api.stats.started),
			Message:   "Hello. Book catalog api is available. Enjoy :)",
		},
	); err != nil {
		api.GetLoggerFromContext(r.Context()).Error("failed to send status response", zap.Error(err))
	}
}

// GetAllBooks serves the catalog. The optional `q` query parameter keeps
// only books whose title or author contains it, ignoring case.
//
//	@Summary		List books
//	@Description	List all books. The optional q parameter keeps books whose title or author contains it.
//	@Tags			books
//	@Produce		json
//	@Param			q	query		string	false	"case-insensitive search term"
//	@Success		200	{object}	APIResponse
//	@Failure		500	{object}	APIError
//	@Router			/api/books [get]
func (api *APIHandler) GetAllBooks(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	requestID := GetValueFromContext(r.Context(), RequestIDContextKey)
	logger := api.GetLoggerFromContext(r.Context())
	query := r.URL.Query().Get("q")

	books, err := api.bookService.List(r.Context(), query)
	if err != nil {
		logger.Error("failed to get all books", zap.Error(err))
		errResp := NewAPIError(requestID, http.StatusInternalServerError, MsgFailedToListBooks)
		if err = WriteErrorResponse(r.Context(), w, errResp); err != nil {
			logger.Error("failed to send error response", zap.Error(err))
		}
		return
	}
	logger.Info("success to get all books", zap.String("books.query", query), zap.Int("books.total", len(books)))
	if err = WriteResponse(r.Context(), w, BooksResponse(requestID, books)); err != nil {
		logger.Error("failed to send response", zap.Error(err))
	}
}

// CreateBook adds a book to the catalog. Title, author and image are required.
//
//	@Summary		Create a book
//	@Description	Add a book. Title, author and image are required.
//	@Tags			books
//	@Accept			json
//	@Produce		json
//	@Param			book	body		NewBook	true	"book to add"
//	@Success		201		{object}	APIResponse
//	@Failure		400		{object}	APIError
//	@Failure		500		{object}	APIError
//	@Router			/api/books [post]
func (api *APIHandler) CreateBook(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var nb NewBook
	requestID := GetValueFromContext(r.Context(), RequestIDContextKey)
	logger := api.GetLoggerFromContext(r.Context())

	err := DecodeCreateBookRequestBody(w, r, &nb)
	if err != nil {
		logger.Error("failed to create book", zap.Error(err))
		errResp := NewAPIError(requestID, http.StatusBadRequest, MsgInvalidRequestBody)
		if err = WriteErrorResponse(r.Context(), w, errResp); err != nil {
			logger.Error("failed to send error response", zap.Error(err))
		}
		return
	}

	err = ValidateCreateBookRequestBody(&nb)
	if err != nil {
		logger.Error("failed to create book", zap.Error(err))
		errResp := NewAPIError(requestID, http.StatusBadRequest, MsgMissingBookFields)
		if err = WriteErrorResponse(r.Context(), w, errResp); err != nil {
			logger.Error("failed to send error response", zap.Error(err))
		}
		return
	}

	book, err := api.bookService.Create(r.Context(), nb)
	if err != nil {
		logger.Error("failed to create book", zap.Error(err))
		errResp := NewAPIError(requestID, http.StatusInternalServerError, MsgFailedToCreateBook)
		if err = WriteErrorResponse(r.Context(), w, errResp); err != nil {
			logger.Error("failed to send error response", zap.Error(err))
		}
		return
	}
	logger.Info("success to create book", zap.Int64("book.id", book.ID))
	if err = WriteResponse(r.Context(), w, BookResponse(requestID, http.StatusCreated, book)); err != nil {
		logger.Error("failed to send response", zap.Error(err))
	}
}

// DeleteBook removes the book whose id is given in the request body.
//
//	@Summary		Delete a book
//	@Description	Remove the book with the given id.
//	@Tags			books
//	@Accept			json
//	@Produce		json
//	@Param			request	body		DeleteBookRequest	true	"id of the book to remove"
//	@Success		200		{object}	APIResponse
//	@Failure		400		{object}	APIError
//	@Failure		404		{object}	APIError
//	@Failure		500		{object}	APIError
//	@Router			/api/books [delete]
func (api *APIHandler) DeleteBook(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req DeleteBookRequest
	requestID := GetValueFromContext(r.Context(), RequestIDContextKey)
	logger := api.GetLoggerFromContext(r.Context())

	err := DecodeDeleteBookRequestBody(w, r, &req)
	if err != nil {
		logger.Error("failed to delete book", zap.Error(err))
		errResp := NewAPIError(requestID, http.StatusBadRequest, MsgInvalidRequestBody)
		if err = WriteErrorResponse(r.Context(), w, errResp); err != nil {
			logger.Error("failed to send error response", zap.Error(err))
		}
		return
	}

	id, err := ValidateDeleteBookRequestBody(&req)
	if err != nil {
		logger.Error("failed to delete book", zap.Error(err))
		errResp := NewAPIError(requestID, http.StatusBadRequest, MsgMissingBookID)
		if err = WriteErrorResponse(r.Context(), w, errResp); err != nil {
			logger.Error("failed to send error response", zap.Error(err))
		}
		return
	}

	found, err := api.bookService.Delete(r.Context(), id)
	if err != nil {
		logger.Error("failed to delete book", zap.Int64("book.id", id), zap.Error(err))
		errResp := NewAPIError(requestID, http.StatusInternalServerError, MsgFailedToDeleteBook)
		if err = WriteErrorResponse(r.Context(), w, errResp); err != nil {
			logger.Error("failed to send error response", zap.Error(err))
		}
		return
	}
	if !found {
		logger.Error("book does not exist", zap.Int64("book.id", id), zap.Error(ErrBookNotFound))
		errResp := NewAPIError(requestID, http.StatusNotFound, MsgBookNotFound)
		if err = WriteErrorResponse(r.Context(), w, errResp); err != nil {
			logger.Error("failed to send error response", zap.Error(err))
		}
		return
	}
	logger.Info("success to delete book", zap.Int64("book.id", id))
	if err = WriteResponse(r.Context(), w, MessageResponse(requestID, http.StatusOK, MsgBookDeleted)); err != nil {
		logger.Error("failed to send response", zap.Error(err))
	}
}

// NotFound handles requests to routes which do not exist.
func (api *APIHandler) NotFound(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	requestID := GetValueFromContext(r.Context(), RequestIDContextKey)
	w.Header().Set("Content-Type", "application/json; charset=UTF-8")
	w.WriteHeader(http.StatusNotFound)
	if err := json.NewEncoder(w).Encode(
		NotFoundResponse{
			RequestID: requestID,
			Message:   "route does not exist",
			Path:      r.Method + " " + r.URL.Path,
		},
	); err != nil {
		api.GetLoggerFromContext(r.Context()).Error("failed to send not found response", zap.Error(err))
	}
}

// MethodNotAllowed handles requests using a verb the route does not support.
// The router already computed the `Allow` header; it is rewritten in the
// canonical verbs order without the OPTIONS entry the router always adds.
func (api *APIHandler) MethodNotAllowed(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	requestID := GetValueFromContext(r.Context(), RequestIDContextKey)
	logger := api.GetLoggerFromContext(r.Context())
	w.Header().Set("Allow", CanonicalAllowHeader(w.Header().Get("Allow")))
	logger.Error("method not allowed", zap.String("request.method", r.Method), zap.String("request.path", r.URL.Path))
	if err := WriteErrorResponse(r.Context(), w, MethodNotAllowedError(requestID, r.Method)); err != nil {
		logger.Error("failed to send error response", zap.Error(err))
	}
}

// canonicalVerbs lists the order in which verbs are advertised.
var canonicalVerbs = []string{
	http.MethodGet,
	http.MethodHead,
	http.MethodPost,
	http.MethodPut,
	http.MethodPatch,
	http.MethodDelete,
}

// CanonicalAllowHeader reorders a comma separated list of verbs following
// canonicalVerbs and drops OPTIONS. Unknown verbs are kept at the end.
func CanonicalAllowHeader(allow string) string {
	present := make(map[string]bool)
	var others []string
	for _, v := range strings.Split(allow, ",") {
		v = strings.ToUpper(strings.TrimSpace(v))
		if v == "" || v == http.MethodOptions || present[v] {
			continue
		}
		present[v] = true
		known := false
		for _, c := range canonicalVerbs {
			if c == v {
				known = true
				break
			}
		}
		if !known {
			others = append(others, v)
		}
	}

	verbs := make([]string, 0, len(present))
	for _, c := range canonicalVerbs {
		if present[c] {
			verbs = append(verbs, c)
		}
	}
	return strings.Join(append(verbs, others...), ", ")
}

