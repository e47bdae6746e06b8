package core

// error_messages.go maps technical errors to user-facing messages with codes
// for support reference. When users encounter errors, they can quote the code
// to support staff for faster diagnosis.
//
// # Workbook Errors (WB001-WB099)
//
//	WB001 - Unreadable workbook: The file could not be read as a workbook
//	        Action: Re-save the file as .xlsx or .csv and upload it again
//	        Patterns: "unreadable workbook"
//
//	WB002 - Unsupported format: Only .xlsx, .xlsm and .csv files are supported
//	        Patterns: "unsupported workbook format"
//
//	WB003 - Workbook not found: The workbook no longer exists
//	        Patterns: "workbook not found"
//
//	WB004 - Empty workbook: The workbook has no sheets
//	        Patterns: "workbook has no sheets"
//
// # Sheet and Column Errors (SHT001, COL001-COL099)
//
//	SHT001 - Sheet not found               Patterns: "sheet not found"
//	COL001 - Filter columns missing        Patterns: "missing required columns"
//	COL002 - Column not found              Patterns: "column not found"
//
// # Chart Errors (CHT001-CHT099)
//
//	CHT001 - Nothing to plot               Patterns: "no numeric columns", "no data to plot"
//	CHT002 - Column is not numeric         Patterns: "not a number"
//
// # File Errors (FILE001-FILE099)
//
//	FILE001 - File too large               Patterns: "file too large"
//	FILE004 - No file                      Patterns: "no file provided"
//	FILE005 - Empty file                   Patterns: "empty file"
//
// # Upload Errors (UPL001-UPL099)
//
//	UPL002 - System busy                   Patterns: "too many concurrent uploads"
//	UPL004 - Request cancelled             Patterns: "context canceled"
//	UPL005 - Request timeout               Patterns: "context deadline exceeded"
//
// # Session and Rate Limiting
//
//	SES001 - Session expired               Patterns: "session not found"
//	RATE001 - Too many requests            Patterns: "rate limit"
//
// # Default Error (ERR000)
//
// Fallback when no specific pattern matches. Support staff should check the
// application logs for the original technical error.

import (
	"fmt"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

// errorPattern defines a pattern to match and its corresponding user message.
type errorPattern struct {
	pattern string
	msg     UserMessage
}

// errorPatterns maps technical error patterns (case-insensitive) to user messages.
// The first matching pattern wins, so more specific patterns come first.
var errorPatterns = []errorPattern{
	// Request lifecycle errors are checked first: they can wrap anything.
	{
		pattern: "too many concurrent uploads",
		msg: UserMessage{
			Message: "Too many uploads in progress",
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
			Action:  "Try a smaller workbook or check your connection",
			Code:    "UPL005",
		},
	},

	// File errors
	{
		pattern: "file too large",
		msg: UserMessage{
			Message: "File exceeds the maximum upload size",
			Action:  "Remove unused sheets or split the workbook",
			Code:    "FILE001",
		},
	},
	{
		pattern: "no file provided",
		msg: UserMessage{
			Message: "No file was selected",
			Action:  "Please choose an .xlsx or .csv file to upload",
			Code:    "FILE004",
		},
	},
	{
		pattern: "empty file",
		msg: UserMessage{
			Message: "The uploaded file is empty",
			Action:  "Please upload a workbook with at least one sheet of data",
			Code:    "FILE005",
		},
	},

	// Workbook errors
	{
		pattern: "workbook has no sheets",
		msg: UserMessage{
			Message: "The workbook has no sheets",
			Action:  "Add a sheet with CAMPAIGN and PROCESS columns",
			Code:    "WB004",
		},
	},
	{
		pattern: "unreadable workbook",
		msg: UserMessage{
			Message: "The file could not be read as a workbook",
			Action:  "Re-save the file as .xlsx or .csv and upload it again",
			Code:    "WB001",
		},
	},
	{
		pattern: "unsupported workbook format",
		msg: UserMessage{
			Message: "This file type is not supported",
			Action:  "Upload an .xlsx, .xlsm or .csv file",
			Code:    "WB002",
		},
	},
	{
		pattern: "workbook not found",
		msg: UserMessage{
			Message: "The workbook was not found",
			Action:  "It may have been removed or expired with your session; upload it again",
			Code:    "WB003",
		},
	},

	// Sheet and column errors
	{
		pattern: "sheet not found",
		msg: UserMessage{
			Message: "The selected sheet does not exist in this workbook",
			Action:  "Choose one of the listed sheets",
			Code:    "SHT001",
		},
	},
	{
		pattern: "missing required columns",
		msg: UserMessage{
			Message: "'CAMPAIGN' and 'PROCESS' columns not found in this sheet",
			Action:  "Add CAMPAIGN and PROCESS header cells to enable filtering and export",
			Code:    "COL001",
		},
	},
	{
		pattern: "column not found",
		msg: UserMessage{
			Message: "The selected column does not exist",
			Action:  "Choose one of the listed columns",
			Code:    "COL002",
		},
	},

	// Chart errors
	{
		pattern: "no numeric columns",
		msg: UserMessage{
			Message: "No numeric columns to visualize",
			Action:  "Numeric columns are charted automatically when present",
			Code:    "CHT001",
		},
	},
	{
		pattern: "no data to plot",
		msg: UserMessage{
			Message: "No numeric values to plot for the current filters",
			Action:  "Widen the campaign or process selection",
			Code:    "CHT001",
		},
	},
	{
		pattern: "not a number",
		msg: UserMessage{
			Message: "The selected column is not numeric",
			Action:  "Choose one of the numeric columns",
			Code:    "CHT002",
		},
	},

	// Session and rate limiting
	{
		pattern: "session not found",
		msg: UserMessage{
			Message: "Your session has expired",
			Action:  "Reload the page to start a new session",
			Code:    "SES001",
		},
	},
	{
		pattern: "rate limit",
		msg: UserMessage{
			Message: "Too many requests",
			Action:  "Please wait a moment before trying again",
			Code:    "RATE001",
		},
	},
}

// defaultMessage is returned when no pattern matches (ERR000).
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
// It searches through known error patterns (case-insensitive) and returns
// the first match. If no pattern matches, a generic fallback message with
// code ERR000 is returned.
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

// FormatUserError creates a formatted error string for display.
// The format is: "Message (Code: XXX). Action"
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err matches a known pattern, i.e. it maps to
// something other than the generic ERR000 fallback.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}

// UserError pairs a technical error, kept for logging, with its user message.
type UserError struct {
	Technical error
	User      UserMessage
}

func (e *UserError) Error() string {
	return e.User.Message
}

func (e *UserError) Unwrap() error {
	return e.Technical
}

// NewUserError maps err to a UserError. Returns nil if err is nil.
func NewUserError(err error) *UserError {
	if err == nil {
		return nil
	}
	return &UserError{
		Technical: err,
		User:      MapError(err),
	}
}
