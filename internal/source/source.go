// Package source obtains the raw scenario JSON from exactly one of a file
// path or an inline string. The text is not inspected here.
package source

import (
	"fmt"
	"os"
)

// Flag names reported in configuration errors.
const (
	FileFlag = "scenarios_file"
	JSONFlag = "scenarios_json"
)

// ConfigurationError reports an invalid combination of inputs.
type ConfigurationError struct {
	Message string
}

func (e *ConfigurationError) Error() string { return e.Message }

// IOError reports a scenario file that could not be read.
type IOError struct {
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("read scenarios file: %v", e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

// Options selects the input. An empty string means "not set".
type Options struct {
	File string
	JSON string
}

// Document is the raw scenario text and where it came from.
type Document struct {
	Origin string
	Data   []byte
}

// Load returns the scenario text selected by opts.
func Load(opts Options) (*Document, error) {
	switch {
	case opts.File != "" && opts.JSON != "":
		return nil, &ConfigurationError{
			Message: fmt.Sprintf("Only one of --%s or --%s must be set", FileFlag, JSONFlag),
		}
	case opts.File != "":
		return loadFile(opts.File)
	case opts.JSON != "":
		return &Document{Origin: "inline", Data: []byte(opts.JSON)}, nil
	default:
		return nil, &ConfigurationError{
			Message: fmt.Sprintf("One of --%s or --%s must be set", FileFlag, JSONFlag),
		}
	}
}

func loadFile(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &IOError{Path: path, Err: err}
	}
	return &Document{Origin: path, Data: data}, nil
}
