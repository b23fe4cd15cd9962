// Package browser is the boundary to the automation driver. Tests and page
// objects talk to a Session; the selenium and chromedp backends implement it.
package browser

import (
	"errors"
	"fmt"

	"github.com/tebeka/selenium"
)

// EnterKey is the WebDriver code point for the Enter key.
const EnterKey = selenium.EnterKey

// ErrElementNotFound is returned (wrapped with the locator) when a selector
// matches nothing.
var ErrElementNotFound = errors.New("element not found")

// By names a selector strategy.
type By string

const (
	ByID        By = "id"
	ByClassName By = "class name"
	ByXPath     By = "xpath"
	ByCSS       By = "css selector"
)

// Locator is a selector strategy plus its value.
type Locator struct {
	By    By
	Value string
}

// ID locates an element by its id attribute.
func ID(id string) Locator { return Locator{By: ByID, Value: id} }

// ClassName locates elements carrying the class name.
func ClassName(name string) Locator { return Locator{By: ByClassName, Value: name} }

// XPath locates elements by an XPath expression.
func XPath(expr string) Locator { return Locator{By: ByXPath, Value: expr} }

// CSS locates elements by a CSS selector.
func CSS(selector string) Locator { return Locator{By: ByCSS, Value: selector} }

func (l Locator) String() string { return fmt.Sprintf("%s=%s", l.By, l.Value) }

// Selector returns the locator as a CSS selector, or as an XPath expression
// for ByXPath.
func (l Locator) Selector() string {
	switch l.By {
	case ByID:
		return "#" + l.Value
	case ByClassName:
		return "." + l.Value
	default:
		return l.Value
	}
}

// Session is one browser window owned by a single test.
type Session interface {
	Navigate(url string) error
	FindElement(loc Locator) (Element, error)
	FindElements(loc Locator) ([]Element, error)
	MaximizeWindow() error
	Screenshot() ([]byte, error)
	Close() error
}

// Element is a handle to a node in the current document.
type Element interface {
	SendKeys(keys string) error
	Click() error
	Text() (string, error)
	Attribute(name string) (string, error)
	IsDisplayed() (bool, error)
	IsEnabled() (bool, error)
}

// Launcher opens sessions on a running browser backend.
type Launcher interface {
	NewSession() (Session, error)
	Stop() error
}

func notFound(loc Locator, cause error) error {
	if cause == nil {
		return fmt.Errorf("%w: %s", ErrElementNotFound, loc)
	}
	return fmt.Errorf("%w: %s: %v", ErrElementNotFound, loc, cause)
}
