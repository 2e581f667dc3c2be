package repository

import "errors"

// ErrCatalogEmpty is returned when the stored catalog has no products.
var ErrCatalogEmpty = errors.New("catalog is empty")
