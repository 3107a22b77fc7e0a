package classpath

import (
	"errors"
	"fmt"
	"io"
	"strings"
)

// CompositeLocator searches its locators in order; the first one holding a
// resource wins.
type CompositeLocator struct {
	locators []Locator
}

func NewCompositeLocator(locators ...Locator) *CompositeLocator {
	return &CompositeLocator{locators: locators}
}

// Open opens every locator. On failure the ones already opened are closed.
func (c *CompositeLocator) Open() error {
	for i, loc := range c.locators {
		if err := loc.Open(); err != nil {
			for _, opened := range c.locators[:i] {
				opened.Close()
			}
			return err
		}
	}
	return nil
}

func (c *CompositeLocator) Close() error {
	var errs []error
	for _, loc := range c.locators {
		if err := loc.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (c *CompositeLocator) OpenResource(className, resourceName string) (io.ReadCloser, error) {
	for _, loc := range c.locators {
		rc, err := loc.OpenResource(className, resourceName)
		if err == nil {
			return rc, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", loc, err)
		}
	}
	return nil, notFound(c, resourceName)
}

func (c *CompositeLocator) String() string {
	names := make([]string, len(c.locators))
	for i, loc := range c.locators {
		names[i] = loc.String()
	}
	return "[" + strings.Join(names, ", ") + "]"
}
