// internal/app/system/limits/limits.go
package limits

// Request body size limits. Handlers wrap r.Body with http.MaxBytesReader
// using these before decoding.
const (
	// MaxJSONBody is the maximum size of a JSON request body.
	MaxJSONBody = 1 << 20 // 1 MB

	// MaxFormBody is the maximum size of a form-encoded ajax request.
	MaxFormBody = 64 << 10 // 64 KB
)
