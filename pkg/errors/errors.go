package errors

import (
	"fmt"
	"time"
)

// ErrorType represents the type of error
type ErrorType string

const (
	// ErrorTypeNetwork represents network-related errors
	ErrorTypeNetwork ErrorType = "network"
	// ErrorTypeParsing represents HTML parsing errors
	ErrorTypeParsing ErrorType = "parsing"
	// ErrorTypeRateLimit represents rate limiting errors
	ErrorTypeRateLimit ErrorType = "rate_limit"
	// ErrorTypeSession represents currency session bootstrap errors
	ErrorTypeSession ErrorType = "session"
	// ErrorTypePublisher represents publisher-related errors
	ErrorTypePublisher ErrorType = "publisher"
	// ErrorTypeConfiguration represents configuration errors
	ErrorTypeConfiguration ErrorType = "configuration"
)

// ScraperError represents a scraper-specific error
type ScraperError struct {
	Type    ErrorType
	Stage   string
	Message string
	Err     error
	Time    time.Time
}

// Error implements the error interface
func (e *ScraperError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %s - %v", e.Type, e.Stage, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Type, e.Stage, e.Message)
}

// Unwrap returns the underlying error
func (e *ScraperError) Unwrap() error {
	return e.Err
}

// IsRetryable returns true if the error is retryable
func (e *ScraperError) IsRetryable() bool {
	switch e.Type {
	case ErrorTypeNetwork:
		return true
	case ErrorTypeRateLimit:
		return false
	case ErrorTypeParsing:
		return false
	default:
		return false
	}
}

// New creates a new ScraperError
func New(errType ErrorType, stage, message string, err error) *ScraperError {
	return &ScraperError{
		Type:    errType,
		Stage:   stage,
		Message: message,
		Err:     err,
		Time:    time.Now(),
	}
}

// NewNetwork creates a new network error
func NewNetwork(stage, message string, err error) *ScraperError {
	return New(ErrorTypeNetwork, stage, message, err)
}

// NewParsing creates a new parsing error
func NewParsing(stage, message string, err error) *ScraperError {
	return New(ErrorTypeParsing, stage, message, err)
}

// NewRateLimit creates a new rate limit error
func NewRateLimit(stage string, duration time.Duration) *ScraperError {
	message := fmt.Sprintf("rate limited for %v", duration)
	return New(ErrorTypeRateLimit, stage, message, nil)
}

// NewSession creates a new session error
func NewSession(stage, message string, err error) *ScraperError {
	return New(ErrorTypeSession, stage, message, err)
}

// NewPublisher creates a new publisher error
func NewPublisher(stage, message string, err error) *ScraperError {
	return New(ErrorTypePublisher, stage, message, err)
}

// NewConfiguration creates a new configuration error
func NewConfiguration(message string, err error) *ScraperError {
	return New(ErrorTypeConfiguration, "", message, err)
}
