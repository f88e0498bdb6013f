package catalog

import "fmt"

// UnknownVersionError is returned when no operation document is
// embedded for the requested API version.
type UnknownVersionError struct {
	Version string
}

func (e *UnknownVersionError) Error() string {
	return fmt.Sprintf("unknown API version %q", e.Version)
}

// UnknownCategoryError is returned when a category does not exist in
// the resolved API version.
type UnknownCategoryError struct {
	Category string
	Version  string
}

func (e *UnknownCategoryError) Error() string {
	return fmt.Sprintf("unknown category %q in API version %s", e.Category, e.Version)
}

// UnknownOperationError is returned by Describe when the operation name
// is absent from the resolved category and version.
type UnknownOperationError struct {
	Operation string
	Category  string
	Version   string
}

func (e *UnknownOperationError) Error() string {
	return fmt.Sprintf("unknown operation %q in category %q (API version %s)", e.Operation, e.Category, e.Version)
}
