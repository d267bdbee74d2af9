// Package core error codes.
//
// # Error Codes Reference
//
// Every error shown to a user carries a code they can quote when asking for
// help. Codes are grouped by category.
//
// # Validation Errors (VAL001-VAL099)
//
//	VAL004 - Missing column: The file lacks columns the chosen profile needs
//	         Action: Add the listed columns, or pick a profile that matches the file
//	         Source: *SchemaError
//
//	VAL005 - Unknown profile: The requested analysis profile does not exist
//	         Action: Choose one of the listed profiles
//	         Patterns: "unknown profile"
//
//	VAL006 - Invalid field: The comparison field is not supported
//	         Action: Compare by issue status or issue category
//	         Patterns: "invalid comparison field"
//
// # File Errors (FILE001-FILE099)
//
//	FILE001 - File too large: File exceeds the upload size limit
//	          Action: Remove unused sheets or rows and try again
//	          Patterns: "file too large", "request body too large"
//
//	FILE002 - Invalid CSV: File is not a readable CSV
//	          Action: Export the sheet again as comma-separated values
//	          Patterns: "invalid csv"
//
//	FILE003 - Invalid workbook: File is not a readable Excel workbook
//	          Action: Open the file in Excel and save it again as .xlsx
//	          Patterns: "invalid spreadsheet"
//
//	FILE004 - No file: No file was selected
//	          Action: Please select a .csv or .xlsx file to upload
//	          Patterns: "no file provided"
//
//	FILE005 - Empty file: The uploaded file has no header row
//	          Action: Upload a file with a header row and data rows
//	          Patterns: "empty file"
//
//	FILE006 - Unsupported type: Only .csv and .xlsx files can be analysed
//	          Action: Save the file as .csv or .xlsx
//	          Patterns: "unsupported file type"
//
// # Classifier Errors (CLS001-CLS099)
//
//	CLS001 - Classification failed: An issue note could not be categorised
//	         Action: Try again, or analyse without categories
//	         Source: *ClassifierError
//
//	CLS002 - No classifier: Issue categories are not available on this server
//	         Action: Analyse without categories, or ask an administrator to enable them
//	         Patterns: "no classifier configured", "classifier unavailable"
//
// # Upload Errors (UPL001-UPL099)
//
//	UPL002 - System busy: Too many analyses in progress
//	         Action: Please wait a moment and try again
//	         Patterns: "too many analyses"
//
//	UPL004 - Request cancelled: Request was cancelled
//	         Patterns: "context canceled"
//
//	UPL005 - Request timeout: Request timed out
//	         Patterns: "context deadline exceeded"
//
// # Rate Limiting (RATE001)
//
//	RATE001 - Rate limited: Too many requests
//	          Patterns: "rate limit"
//
// # Default Error (ERR000)
//
//	ERR000 - Unknown error: An unexpected error occurred
//	         Check application logs for the original error.
//
// # Matching
//
// Typed errors are matched first with errors.As. Everything else is matched
// case-insensitively with strings.Contains against the pattern table, and the
// first matching pattern wins.
package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string `json:"message"` // What happened (user-friendly)
	Action  string `json:"action"`  // What to do about it
	Code    string `json:"code"`    // Error code for support reference
}

type errorPattern struct {
	pattern string
	msg     UserMessage
}

var (
	msgMissingColumns = UserMessage{
		Message: "Required columns are missing from the file",
		Action:  "Add the listed columns, or pick a profile that matches the file",
		Code:    "VAL004",
	}
	msgClassifierFailed = UserMessage{
		Message: "An issue note could not be categorised",
		Action:  "Try again, or analyse without categories",
		Code:    "CLS001",
	}
)

// errorPatterns maps technical error text (case-insensitive) to user messages.
// Specific patterns must come before general ones.
var errorPatterns = []errorPattern{
	// Validation
	{
		pattern: "missing required column",
		msg:     msgMissingColumns,
	},
	{
		pattern: "unknown profile",
		msg: UserMessage{
			Message: "Unknown analysis profile",
			Action:  "Choose one of the listed profiles",
			Code:    "VAL005",
		},
	},
	{
		pattern: "invalid comparison field",
		msg: UserMessage{
			Message: "Unsupported comparison field",
			Action:  "Compare by issue status or issue category",
			Code:    "VAL006",
		},
	},

	// Files
	{
		pattern: "file too large",
		msg: UserMessage{
			Message: "File exceeds the upload size limit",
			Action:  "Remove unused sheets or rows and try again",
			Code:    "FILE001",
		},
	},
	{
		pattern: "request body too large",
		msg: UserMessage{
			Message: "File exceeds the upload size limit",
			Action:  "Remove unused sheets or rows and try again",
			Code:    "FILE001",
		},
	},
	{
		pattern: "invalid csv",
		msg: UserMessage{
			Message: "File is not a readable CSV",
			Action:  "Export the sheet again as comma-separated values",
			Code:    "FILE002",
		},
	},
	{
		pattern: "invalid spreadsheet",
		msg: UserMessage{
			Message: "File is not a readable Excel workbook",
			Action:  "Open the file in Excel and save it again as .xlsx",
			Code:    "FILE003",
		},
	},
	{
		pattern: "no file provided",
		msg: UserMessage{
			Message: "No file was selected",
			Action:  "Please select a .csv or .xlsx file to upload",
			Code:    "FILE004",
		},
	},
	{
		pattern: "empty file",
		msg: UserMessage{
			Message: "The uploaded file has no header row",
			Action:  "Upload a file with a header row and data rows",
			Code:    "FILE005",
		},
	},
	{
		pattern: "unsupported file type",
		msg: UserMessage{
			Message: "Only .csv and .xlsx files can be analysed",
			Action:  "Save the file as .csv or .xlsx",
			Code:    "FILE006",
		},
	},

	// Classifier
	{
		pattern: "no classifier configured",
		msg: UserMessage{
			Message: "Issue categories are not available on this server",
			Action:  "Analyse without categories, or ask an administrator to enable them",
			Code:    "CLS002",
		},
	},
	{
		pattern: "classifier unavailable",
		msg: UserMessage{
			Message: "Issue categories are not available on this server",
			Action:  "Analyse without categories, or ask an administrator to enable them",
			Code:    "CLS002",
		},
	},

	// Upload
	{
		pattern: "too many analyses",
		msg: UserMessage{
			Message: "System is busy processing other files",
			Action:  "Please wait a moment and try again",
			Code:    "UPL002",
		},
	},
	{
		pattern: "context canceled",
		msg: UserMessage{
			Message: "Request was cancelled",
			Action:  "Please try again",
			Code:    "UPL004",
		},
	},
	{
		pattern: "context deadline exceeded",
		msg: UserMessage{
			Message: "Request timed out",
			Action:  "Try a smaller file or check your connection",
			Code:    "UPL005",
		},
	},

	// Rate limiting
	{
		pattern: "rate limit",
		msg: UserMessage{
			Message: "Too many requests",
			Action:  "Please wait a moment before trying again",
			Code:    "RATE001",
		},
	},
}

// defaultMessage is returned when nothing matches (ERR000).
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
//
// A *SchemaError names the missing columns in the message. Otherwise the
// first matching pattern wins, falling back to ERR000.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	var schemaErr *SchemaError
	if errors.As(err, &schemaErr) {
		msg := msgMissingColumns
		msg.Message = fmt.Sprintf("%s: %s", msg.Message, schemaErr.Detail())
		return msg
	}

	// Context errors from inside a classifier call are reported as such
	// rather than as a classification failure.
	var clsErr *ClassifierError
	if errors.As(err, &clsErr) && !isContextErr(err) {
		return msgClassifierFailed
	}

	errStr := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	return defaultMessage
}

func isContextErr(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// FormatUserError creates a formatted error string for display.
// The format is: "Message (Code: XXX). Action"
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err matched something more specific than ERR000.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}
