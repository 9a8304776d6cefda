package autotrader

import (
	"fmt"

	"github.com/BigNoodles/carlot/browser"
)

// MissingFieldError means a field every advert page must carry was absent.
type MissingFieldError struct {
	Field    string
	Selector string
	ID       string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("advert %s: required field %s not found (%s)", e.ID, e.Field, e.Selector)
}

func (e *MissingFieldError) Unwrap() error { return browser.ErrNotFound }
