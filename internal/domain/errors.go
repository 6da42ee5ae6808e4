package domain

import "errors"

var (
	// ErrEmptyInput is returned by the classifier when the document text is blank
	ErrEmptyInput = errors.New("empty input text")

	// ErrInvalidRequest is returned when request parameters are invalid
	ErrInvalidRequest = errors.New("invalid request parameters")

	// ErrUnreadableDocument is returned when the upstream text-extraction
	// collaborator cannot read the source document
	ErrUnreadableDocument = errors.New("source document unreadable")

	// ErrExtractionFailed is returned when field extraction fails as a whole
	ErrExtractionFailed = errors.New("invoice extraction failed")

	// ErrUnparseable is returned when the pipeline failed and recovery could not
	// produce a usable partial result
	ErrUnparseable = errors.New("document could not be parsed")

	// ErrCacheMiss is returned when a parse result is not found in cache
	ErrCacheMiss = errors.New("cache miss")
)
