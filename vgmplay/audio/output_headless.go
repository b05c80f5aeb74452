//go:build headless

package audio

// Output is a placeholder in headless builds.
type Output struct{}

func NewOutput(Provider, int) (*Output, error) {
	return nil, ErrUnavailable
}

func (o *Output) Start() {}

func (o *Output) Close() error { return nil }
