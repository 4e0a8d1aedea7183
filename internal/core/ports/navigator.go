package ports

// Navigator is invoked when the API client forces a viewer back to the login
// view. returnTo carries the originally requested path so the login flow can
// send the viewer back afterwards.
type Navigator interface {
	Navigate(path string, returnTo string)
}

// NavigateFunc adapts a function to the Navigator interface.
type NavigateFunc func(path string, returnTo string)

func (f NavigateFunc) Navigate(path string, returnTo string) { f(path, returnTo) }
