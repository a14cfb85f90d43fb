package httpx

import "net/http"

// Status helpers so module handlers map their sentinel errors consistently.

// NotFound responds 404 with the error text.
func NotFound(w http.ResponseWriter, err error) {
	Problem(w, http.StatusNotFound, "Not Found", err.Error())
}

// Duplicate responds 409 for uniqueness collisions.
func Duplicate(w http.ResponseWriter, err error) {
	Problem(w, http.StatusConflict, "Duplicate", err.Error())
}

// Conflict responds 409 for lifecycle and state conflicts.
func Conflict(w http.ResponseWriter, err error) {
	Problem(w, http.StatusConflict, "Conflict", err.Error())
}

// Unprocessable responds 422 for requests that parse but break domain rules.
func Unprocessable(w http.ResponseWriter, err error) {
	Problem(w, http.StatusUnprocessableEntity, "Unprocessable", err.Error())
}

// BadRequest responds 400 with the given detail.
func BadRequest(w http.ResponseWriter, detail string) {
	Problem(w, http.StatusBadRequest, "Bad Request", detail)
}

// ValidationFailed responds 400 with validator output.
func ValidationFailed(w http.ResponseWriter, err error) {
	Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
}

// Internal responds 500 without leaking internals to the client.
func Internal(w http.ResponseWriter) {
	Problem(w, http.StatusInternalServerError, "Internal Error", "")
}
