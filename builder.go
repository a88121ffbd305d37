package dailyscot

import (
	"io"

	"github.com/alexandre-normand/dailyscot/store"
	"github.com/spf13/viper"
)

// Builder holds the settings of a dailyscot instance to build
type Builder struct {
	name    string
	v       *viper.Viper
	options []Option
	closers []io.Closer
	err     error
}

// NewBot returns a new Builder used to set up a new dailyscot
func NewBot(name string, v *viper.Viper, options ...Option) (sb *Builder) {
	sb = new(Builder)
	sb.name = name
	sb.v = v
	sb.options = append(sb.options, options...)

	return sb
}

// WithOption adds an option to the dailyscot instance
func (sb *Builder) WithOption(o Option) *Builder {
	if sb.err != nil {
		return sb
	}

	sb.options = append(sb.options, o)

	return sb
}

// WithStorerErr sets the storer that has a creation function returning (Storer, error). The storer
// is closed when the dailyscot instance is closed
func (sb *Builder) WithStorerErr(s store.Storer, err error) *Builder {
	if sb.err == nil && err != nil {
		sb.err = err
	}

	if sb.err != nil {
		return sb
	}

	sb.options = append(sb.options, OptionStorer(s))
	sb.closers = append(sb.closers, s)

	return sb
}

// WithCloserErr adds a closer, usually a resource created along with the instance, that has a creation
// function returning (io.Closer, error). Closers are closed in order when the dailyscot instance is closed
func (sb *Builder) WithCloserErr(closer io.Closer, err error) *Builder {
	if sb.err == nil && err != nil {
		sb.err = err
	}

	if sb.err != nil {
		return sb
	}

	if closer != nil {
		sb.closers = append(sb.closers, closer)
	}

	return sb
}

// Build returns the built dailyscot instance. If there was an error during
// setup, the error is returned along with a nil dailyscot
func (sb *Builder) Build() (d *Dailyscot, err error) {
	if sb.err != nil {
		return nil, sb.err
	}

	d, err = New(sb.name, sb.v, sb.options...)
	if err != nil {
		return nil, err
	}

	d.closers = sb.closers

	return d, nil
}
