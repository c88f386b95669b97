// Package display drives the 16x2 character LCD on the front panel.
package display

import "errors"

// Panel geometry.
const (
	Cols = 16
	Rows = 2
)

// Display is a character LCD with a write cursor.
type Display interface {
	// Clear blanks the screen and homes the cursor.
	Clear() error

	// Goto moves the cursor to (col, row).
	Goto(col, row uint8) error

	// WriteText writes s at the cursor, advancing it.
	WriteText(s string) error

	// WriteChar writes one character at the cursor.
	WriteChar(c byte) error

	// Close releases the device.
	Close() error
}

// Tee fans every call out to all displays, for driving the panel while
// mirroring it for the status page.
type Tee []Display

func (t Tee) Clear() error {
	var errs []error
	for _, d := range t {
		errs = append(errs, d.Clear())
	}
	return errors.Join(errs...)
}

func (t Tee) Goto(col, row uint8) error {
	var errs []error
	for _, d := range t {
		errs = append(errs, d.Goto(col, row))
	}
	return errors.Join(errs...)
}

func (t Tee) WriteText(s string) error {
	var errs []error
	for _, d := range t {
		errs = append(errs, d.WriteText(s))
	}
	return errors.Join(errs...)
}

func (t Tee) WriteChar(c byte) error {
	var errs []error
	for _, d := range t {
		errs = append(errs, d.WriteChar(c))
	}
	return errors.Join(errs...)
}

func (t Tee) Close() error {
	var errs []error
	for _, d := range t {
		errs = append(errs, d.Close())
	}
	return errors.Join(errs...)
}
