package core

import "errors"

var (
	// ErrStructural marks an unreadable source or a table missing required columns.
	ErrStructural = errors.New("structural error")
	// ErrConfiguration marks a missing API key or URL.
	ErrConfiguration = errors.New("configuration error")
	// ErrTransientNetwork marks a failed call to a remote provider.
	ErrTransientNetwork = errors.New("transient network error")
)
