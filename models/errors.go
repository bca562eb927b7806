package models

import "errors"

var (
	// ErrNoHeadersFound means an upload batch produced zero usable columns.
	ErrNoHeadersFound = errors.New("no usable column headers found")
	// ErrIncompleteMapping means one or more required fields found no
	// acceptable header match; the caller falls back to manual mapping.
	ErrIncompleteMapping = errors.New("could not match all required columns")
	// ErrInvalidMapping means a confirmed mapping is unusable (missing or
	// colliding required columns, or a column absent from the headers).
	ErrInvalidMapping = errors.New("invalid column mapping")
	// ErrEmptyDataset means no product rows survived aggregation.
	ErrEmptyDataset = errors.New("no product data available for aggregation")
	// ErrMissingCostMapping means a cost-derived report was requested on a
	// batch aggregated without a cost column.
	ErrMissingCostMapping = errors.New("cost column is not mapped")
	// ErrInvalidParameter means a report parameter is out of range.
	ErrInvalidParameter = errors.New("report parameter out of range")
	// ErrUnknownReportKind means the requested report kind does not exist.
	ErrUnknownReportKind = errors.New("unknown report kind")
)
