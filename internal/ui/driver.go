// Package ui drives the Users web application through page objects. Pages
// take a Driver explicitly; ChromeDriver implements it with chromedp.
package ui

import (
	"context"
	"errors"
)

// ErrElementNotFound is returned when a page element the flow depends on
// is missing.
var ErrElementNotFound = errors.New("element not found")

// Driver is the browser-driving capability the pages need. Selectors are
// CSS selectors or XPath expressions.
type Driver interface {
	Navigate(ctx context.Context, url string) error
	Click(ctx context.Context, selector string) error
	// SetValue clears an input and types value into it.
	SetValue(ctx context.Context, selector, value string) error
	Text(ctx context.Context, selector string) (string, error)
	// Evaluate runs script in the page and decodes its result into out.
	Evaluate(ctx context.Context, script string, out any) error
	ScrollIntoView(ctx context.Context, selector string) error
}
