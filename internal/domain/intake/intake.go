// Package intake enforces the file acceptance policy before any vector
// work happens: emptiness, extension blocklist, MIME allowlist, size caps.
package intake

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Policy is the immutable validation policy, loaded once at startup.
type Policy struct {
	MaxFileSize       int64
	MaxBatchSize      int64
	AllowedTypes      []string // MIME patterns; a trailing /* matches any subtype
	BlockedExtensions []string // lowercase, with leading dot
}

// FileStat describes a candidate file. Validation reads nothing beyond
// these fields; content sniffing happens before validation if needed.
type FileStat struct {
	Name        string
	ContentType string
	Size        int64
}

// Ext returns the lower-cased file extension including the leading dot.
func (f FileStat) Ext() string {
	return strings.ToLower(filepath.Ext(f.Name))
}

// RejectionError is a policy rejection: expected, user-correctable, and
// carrying a human-readable reason. Never a system fault.
type RejectionError struct {
	Reason string
}

func (e *RejectionError) Error() string { return e.Reason }

func reject(format string, args ...any) error {
	return &RejectionError{Reason: fmt.Sprintf(format, args...)}
}

// Validate checks a single file against the policy. Checks run in order
// and short-circuit on the first failure. The extension check runs before
// the MIME check so a disguised executable is rejected regardless of its
// declared content type.
func Validate(stat FileStat, policy Policy) error {
	if stat.Size == 0 {
		return reject("File is empty: %s", stat.Name)
	}

	if ext := stat.Ext(); ext != "" && blocked(ext, policy.BlockedExtensions) {
		return reject("File extension '%s' is not allowed for security reasons: %s", ext, stat.Name)
	}

	mime := NormalizeMIME(stat.ContentType)
	if !mimeAllowed(mime, policy.AllowedTypes) {
		return reject("File type '%s' is not allowed. Allowed types: %s",
			mime, strings.Join(policy.AllowedTypes, ", "))
	}

	if stat.Size > policy.MaxFileSize {
		return reject("File size (%.1fMB) exceeds maximum allowed size (%.1fMB): %s",
			mb(stat.Size), mb(policy.MaxFileSize), stat.Name)
	}

	return nil
}

// BatchResult holds per-file outcomes of a batch validation.
type BatchResult struct {
	Valid     []FileStat
	Rejected  []Rejection
	TotalSize int64
}

// Rejection pairs a rejected file with its reason.
type Rejection struct {
	Stat   FileStat
	Reason string
}

// ValidateBatch checks the aggregate batch size first — batch acceptance is
// all-or-nothing, so an oversized batch rejects as a whole before any
// per-file validation result is produced.
func ValidateBatch(stats []FileStat, policy Policy) (BatchResult, error) {
	var total int64
	for _, stat := range stats {
		total += stat.Size
	}
	if total > policy.MaxBatchSize {
		return BatchResult{}, reject(
			"Total batch size (%.1fMB) exceeds maximum allowed batch size (%.1fMB)",
			mb(total), mb(policy.MaxBatchSize))
	}

	result := BatchResult{TotalSize: total}
	for _, stat := range stats {
		if err := Validate(stat, policy); err != nil {
			result.Rejected = append(result.Rejected, Rejection{Stat: stat, Reason: err.Error()})
			continue
		}
		result.Valid = append(result.Valid, stat)
	}
	return result, nil
}

func blocked(ext string, blockedExts []string) bool {
	for _, b := range blockedExts {
		if ext == b {
			return true
		}
	}
	return false
}

// mimeAllowed matches a MIME type against the allowed patterns. Patterns
// support a trailing wildcard subtype ("text/*") and the universal "*/*".
func mimeAllowed(mime string, patterns []string) bool {
	for _, p := range patterns {
		p = strings.ToLower(strings.TrimSpace(p))
		switch {
		case p == mime:
			return true
		case p == "*/*":
			return true
		case strings.HasSuffix(p, "/*") && strings.HasPrefix(mime, strings.TrimSuffix(p, "*")):
			return true
		}
	}
	return false
}

// NormalizeMIME lower-cases the type and drops parameters such as charset.
func NormalizeMIME(contentType string) string {
	mime := strings.ToLower(strings.TrimSpace(contentType))
	if i := strings.IndexByte(mime, ';'); i >= 0 {
		mime = strings.TrimSpace(mime[:i])
	}
	if mime == "" {
		return "application/octet-stream"
	}
	return mime
}

func mb(n int64) float64 { return float64(n) / 1024 / 1024 }
