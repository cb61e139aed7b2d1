package data

import "errors"

var (
	// ErrCatalogUnavailable indicates the chapter catalog could not be fetched after retrying
	ErrCatalogUnavailable = errors.New("chapter catalog unavailable")

	// ErrCatalogMalformed indicates the catalog response lacked chapter names or identifiers
	ErrCatalogMalformed = errors.New("chapter catalog malformed")

	// ErrPageListUnavailable indicates a chapter's page list could not be fetched after retrying
	ErrPageListUnavailable = errors.New("page list unavailable")

	// ErrPageListMalformed indicates the page list response lacked page URLs
	ErrPageListMalformed = errors.New("page list malformed")

	// ErrTitleUnavailable indicates the series display name could not be extracted
	ErrTitleUnavailable = errors.New("series title unavailable")

	ErrInvalidRange    = errors.New("invalid chapter range")
	ErrChapterNotFound = errors.New("chapter not found")
)
