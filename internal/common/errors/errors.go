// Package errors provides standardized error handling for BPMN workflow integration.
package errors

import (
	"fmt"
	"strings"
	"time"
)

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeValidationFailed   ErrorCode = "VALIDATION_FAILED"
	ErrCodeCaseNotFound       ErrorCode = "CASE_NOT_FOUND"
	ErrCodeDuplicateCase      ErrorCode = "DUPLICATE_CASE"
	ErrCodeInvalidTransition  ErrorCode = "INVALID_STATUS_TRANSITION"
	ErrCodeForbiddenRole      ErrorCode = "FORBIDDEN_ROLE"
	ErrCodeUserNotFound       ErrorCode = "USER_NOT_FOUND"
	ErrCodeNoAgentsAvailable  ErrorCode = "NO_AGENTS_AVAILABLE"
	ErrCodeCatalogUnavailable ErrorCode = "CATALOG_UNAVAILABLE"

	ErrCodeDatabaseConnectionFailed ErrorCode = "DATABASE_CONNECTION_FAILED"
	ErrCodeQueryExecutionFailed     ErrorCode = "QUERY_EXECUTION_FAILED"
	ErrCodeDatabaseInsertFailed     ErrorCode = "DATABASE_INSERT_FAILED"
	ErrCodeSearchQueryFailed        ErrorCode = "SEARCH_QUERY_FAILED"

	ErrCodeNotificationSendFailed ErrorCode = "NOTIFICATION_SEND_FAILED"
	ErrCodeCRMSyncFailed          ErrorCode = "CRM_SYNC_FAILED"
	ErrCodeGenAITimeout           ErrorCode = "GENAI_TIMEOUT"
	ErrCodeGenAIFailed            ErrorCode = "GENAI_FAILED"

	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

func newStandard(code ErrorCode, message, details string, retryable bool) *StandardError {
	return &StandardError{
		Code:      code,
		Message:   message,
		Details:   details,
		Retryable: retryable,
		Timestamp: time.Now().UTC(),
	}
}

// BPMNError represents an error that can be thrown to the Camunda workflow engine.
type BPMNError struct {
	Code           string                 `json:"code"`
	Message        string                 `json:"message"`
	Details        string                 `json:"details,omitempty"`
	Retryable      bool                   `json:"retryable"`
	Retries        int                    `json:"retries"`
	ErrorVariables map[string]interface{} `json:"errorVariables,omitempty"`
}

func (e *BPMNError) Error() string {
	return fmt.Sprintf("BPMNError[%s]: %s", e.Code, e.Message)
}

// ToErrorVariables returns a map suitable for setting Camunda job fail variables.
func (e *BPMNError) ToErrorVariables() map[string]interface{} {
	vars := map[string]interface{}{
		"errorCode":    e.Code,
		"errorMessage": e.Message,
		"errorDetails": e.Details,
		"retryable":    e.Retryable,
	}
	for k, v := range e.ErrorVariables {
		vars[k] = v
	}
	return vars
}

func NewValidationError(details string) *StandardError {
	return newStandard(ErrCodeValidationFailed, "Input validation failed", details, false)
}

func NewCaseNotFoundError(caseID string) *StandardError {
	return newStandard(ErrCodeCaseNotFound, "Case not found", fmt.Sprintf("caseId: %s", caseID), false)
}

func NewDuplicateCaseError(caseID string) *StandardError {
	return newStandard(ErrCodeDuplicateCase, "Case already exists", fmt.Sprintf("caseId: %s", caseID), false)
}

func NewInvalidTransitionError(from, to string) *StandardError {
	return newStandard(ErrCodeInvalidTransition, "Status transition not allowed", fmt.Sprintf("from: %s, to: %s", from, to), false)
}

func NewForbiddenRoleError(role, action string) *StandardError {
	return newStandard(ErrCodeForbiddenRole, "Role may not perform action", fmt.Sprintf("role: %s, action: %s", role, action), false)
}

func NewUserNotFoundError(userID string) *StandardError {
	return newStandard(ErrCodeUserNotFound, "User not found", fmt.Sprintf("userId: %s", userID), false)
}

func NewNoAgentsAvailableError() *StandardError {
	return newStandard(ErrCodeNoAgentsAvailable, "No active agents to assign", "", false)
}

func NewCatalogUnavailableError(err error) *StandardError {
	return newStandard(ErrCodeCatalogUnavailable, "Program catalog could not be loaded", err.Error(), true)
}

func NewDatabaseConnectionFailedError(err error) *StandardError {
	return newStandard(ErrCodeDatabaseConnectionFailed, "Database connection error", err.Error(), true)
}

func NewQueryExecutionFailedError(operation string, err error) *StandardError {
	return newStandard(ErrCodeQueryExecutionFailed, "Database query execution error",
		fmt.Sprintf("operation: %s, error: %s", operation, err.Error()), true)
}

func NewDatabaseInsertFailedError(err error) *StandardError {
	return newStandard(ErrCodeDatabaseInsertFailed, "Database insert operation failed", err.Error(), true)
}

func NewSearchQueryFailedError(index string, err error) *StandardError {
	return newStandard(ErrCodeSearchQueryFailed, "Elasticsearch query error",
		fmt.Sprintf("index: %s, error: %s", index, err.Error()), true)
}

func NewNotificationSendFailedError(channel string, err error) *StandardError {
	return newStandard(ErrCodeNotificationSendFailed, "Notification delivery failed",
		fmt.Sprintf("channel: %s, error: %s", channel, err.Error()), true)
}

func NewCRMSyncFailedError(err error) *StandardError {
	return newStandard(ErrCodeCRMSyncFailed, "CRM lead sync failed", err.Error(), true)
}

func NewGenAITimeoutError() *StandardError {
	return newStandard(ErrCodeGenAITimeout, "Generative text call timed out", "", true)
}

func NewGenAIFailedError(err error) *StandardError {
	return newStandard(ErrCodeGenAIFailed, "Generative text call failed", err.Error(), true)
}

// GetRetryCount returns the recommended retry budget for an error code.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeDatabaseConnectionFailed,
		ErrCodeQueryExecutionFailed,
		ErrCodeDatabaseInsertFailed,
		ErrCodeSearchQueryFailed,
		ErrCodeCatalogUnavailable,
		ErrCodeNotificationSendFailed,
		ErrCodeCRMSyncFailed,
		ErrCodeGenAIFailed:
		return 3
	case ErrCodeGenAITimeout:
		return 1
	default:
		return 0
	}
}

// ConvertToBPMNError converts a StandardError to a BPMNError for Camunda.
func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable {
		retries = 0
	}

	return &BPMNError{
		Code:      string(stdErr.Code),
		Message:   stdErr.Message,
		Details:   stdErr.Details,
		Retryable: stdErr.Retryable,
		Retries:   retries,
		ErrorVariables: map[string]interface{}{
			"originalErrorCode": string(stdErr.Code),
			"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
		},
	}
}

// IsRetryableErrorCode checks if an error code is retryable.
func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

// GetErrorCategory groups error codes for dashboards and logs.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "DATABASE") || strings.Contains(codeStr, "QUERY"):
		return "DATABASE"
	case strings.Contains(codeStr, "SEARCH") || strings.Contains(codeStr, "CATALOG"):
		return "CATALOG"
	case strings.Contains(codeStr, "NOTIFICATION") || strings.Contains(codeStr, "CRM"):
		return "INTEGRATION"
	case strings.Contains(codeStr, "GENAI"):
		return "AI"
	case strings.Contains(codeStr, "ROLE") || strings.Contains(codeStr, "USER") || strings.Contains(codeStr, "AGENT"):
		return "ACCESS"
	case strings.Contains(codeStr, "CASE") || strings.Contains(codeStr, "TRANSITION") || strings.Contains(codeStr, "VALIDATION"):
		return "CASE"
	default:
		return "OTHER"
	}
}
