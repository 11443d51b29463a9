package request

import "net/http"

// ClientWriter wraps a http.ResponseWriter and records the status code
// written, as it is not otherwise retrievable after the handler has run.
type ClientWriter struct {
	http.ResponseWriter

	// statusCode is the status code written to the client.
	statusCode int
}

// NewClientWriter creates a new ClientWriter.
func NewClientWriter(w http.ResponseWriter) *ClientWriter {
	return &ClientWriter{
		ResponseWriter: w,
	}
}

// WriteHeader records the status code and forwards it to the client.
func (w *ClientWriter) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

// StatusCode returns the status code written to the client. Defaults to 200
// if the handler never called WriteHeader.
func (w *ClientWriter) StatusCode() int {
	if w.statusCode == 0 {
		return http.StatusOK
	}
	return w.statusCode
}
