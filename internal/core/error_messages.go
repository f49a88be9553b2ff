package core

// error_messages.go maps technical errors to user-facing messages with a
// support code. Clients receive the code in every structured error response.
//
// # Database Errors (DB001-DB099)
//
//	DB001 - Duplicate key: a product with this SKU already exists
//	        Patterns: "duplicate key"
//	DB002 - Unique constraint: a value that must be unique already exists
//	        Patterns: "unique constraint", "violates unique"
//	DB004 - Connection refused: unable to connect to database
//	        Patterns: "connection refused"
//	DB005 - Connection reset: database connection was interrupted
//	        Patterns: "connection reset"
//	DB006 - Timeout: operation timed out
//	        Patterns: "timeout"
//	DB007 - Deadlock: database was busy with conflicting operations
//	        Patterns: "deadlock"
//
// # Validation Errors (VAL001-VAL099)
//
//	VAL002 - Invalid number: a numeric query parameter could not be parsed
//	         Patterns: "invalid number"
//	VAL007 - Invalid pagination: page or limit is not a positive integer
//	         Patterns: "invalid pagination"
//
// # File Errors (FILE001-FILE099)
//
//	FILE001 - File too large: upload exceeds the configured size limit
//	          Patterns: "file too large", "request body too large"
//	FILE002 - Invalid CSV: file could not be decoded as CSV
//	          Patterns: "invalid csv"
//	FILE003 - Encoding error: file is not UTF-8
//	          Patterns: "encoding error"
//	FILE004 - No file: the multipart "file" part is missing
//	          Patterns: "no file part", "no selected file"
//
// # Upload Errors (UPL001-UPL099)
//
//	UPL001 - Upload cancelled: ingestion stopped before completing
//	         Patterns: "upload cancelled"
//	UPL002 - System busy: all ingestion slots are taken
//	         Patterns: "too many concurrent uploads"
//	UPL004 - Request cancelled
//	         Patterns: "context canceled"
//	UPL005 - Request timeout
//	         Patterns: "context deadline exceeded"
//
// # Rate Limiting (RATE001)
//
//	RATE001 - Too many requests from this client
//	          Patterns: "rate limit"
//
// # Default Error (ERR000)
//
// Returned when no pattern matches; the original error is in the server log.
//
// Patterns are matched case-insensitively with strings.Contains and the first
// match wins, so specific patterns must precede general ones.

import (
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

type errorPattern struct {
	pattern string
	msg     UserMessage
}

var errorPatterns = []errorPattern{
	// Database constraints
	{"duplicate key", UserMessage{
		Message: "A product with this SKU already exists",
		Action:  "Another upload stored the same SKU first; re-upload to see which rows are duplicates",
		Code:    "DB001",
	}},
	{"unique constraint", UserMessage{
		Message: "This value must be unique but already exists",
		Action:  "Check for duplicate entries in your CSV",
		Code:    "DB002",
	}},
	{"violates unique", UserMessage{
		Message: "A duplicate value was found",
		Action:  "Review your data for duplicate SKUs",
		Code:    "DB002",
	}},

	// Database connectivity
	{"connection refused", UserMessage{
		Message: "Unable to connect to database",
		Action:  "Please try again in a few moments",
		Code:    "DB004",
	}},
	{"connection reset", UserMessage{
		Message: "Database connection was interrupted",
		Action:  "Please try again",
		Code:    "DB005",
	}},
	{"timeout", UserMessage{
		Message: "Operation timed out",
		Action:  "Try uploading a smaller file or try again later",
		Code:    "DB006",
	}},
	{"deadlock", UserMessage{
		Message: "Database was busy with conflicting operations",
		Action:  "Please try again",
		Code:    "DB007",
	}},

	// Query parameters
	{"invalid number", UserMessage{
		Message: "Invalid number format detected",
		Action:  "Use a plain decimal such as 499.99 for minPrice and maxPrice",
		Code:    "VAL002",
	}},
	{"invalid pagination", UserMessage{
		Message: "Invalid pagination parameters",
		Action:  "Use positive integers for page and limit",
		Code:    "VAL007",
	}},

	// Files
	{"file too large", UserMessage{
		Message: "File exceeds the maximum upload size",
		Action:  "Split the file into smaller chunks",
		Code:    "FILE001",
	}},
	{"request body too large", UserMessage{
		Message: "File exceeds the maximum upload size",
		Action:  "Split the file into smaller chunks",
		Code:    "FILE001",
	}},
	{"invalid csv", UserMessage{
		Message: "File is not a valid CSV",
		Action:  "Ensure the file is comma-separated with a header row",
		Code:    "FILE002",
	}},
	{"encoding error", UserMessage{
		Message: "File contains invalid characters",
		Action:  "Save the file with UTF-8 encoding",
		Code:    "FILE003",
	}},
	{"no file part", UserMessage{
		Message: "No file was uploaded",
		Action:  "Send the CSV in a multipart field named \"file\"",
		Code:    "FILE004",
	}},
	{"no selected file", UserMessage{
		Message: "No file was selected",
		Action:  "Please select a CSV file to upload",
		Code:    "FILE004",
	}},

	// Upload lifecycle
	{"upload cancelled", UserMessage{
		Message: "Upload was cancelled",
		Action:  "Start a new upload when ready",
		Code:    "UPL001",
	}},
	{"too many concurrent uploads", UserMessage{
		Message: "System is busy processing other uploads",
		Action:  "Please wait a moment and try again",
		Code:    "UPL002",
	}},
	{"context canceled", UserMessage{
		Message: "Request was cancelled",
		Action:  "Please try again",
		Code:    "UPL004",
	}},
	{"context deadline exceeded", UserMessage{
		Message: "Request timed out",
		Action:  "Try uploading a smaller file or check your connection",
		Code:    "UPL005",
	}},

	{"rate limit", UserMessage{
		Message: "Too many requests",
		Action:  "Please wait a moment before trying again",
		Code:    "RATE001",
	}},
}

var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
// The first matching pattern wins; unmatched errors map to ERR000.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	errStr := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	return defaultMessage
}
