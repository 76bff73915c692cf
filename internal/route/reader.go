package route

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
)

// ErrNoRoute indicates the directions document contains no routes. Analysis
// treats this as an empty result; the reader reports it so callers can tell the
// user "no route found".
var ErrNoRoute = errors.New("directions result contains no routes")

// ReadFromFile reads and decodes a directions document from a JSON file.
func ReadFromFile(path string) (*Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open route: %w", err)
	}
	defer f.Close()

	return Read(f)
}

// ReadFromBytes decodes a directions document from JSON bytes.
func ReadFromBytes(data []byte) (*Result, error) {
	var res Result
	if err := json.Unmarshal(data, &res); err != nil {
		return nil, fmt.Errorf("failed to parse route: %w", err)
	}
	return &res, nil
}

// Read decodes a directions document from r.
func Read(r io.Reader) (*Result, error) {
	var res Result
	if err := json.NewDecoder(r).Decode(&res); err != nil {
		return nil, fmt.Errorf("failed to parse route: %w", err)
	}
	return &res, nil
}

// Validate reports [ErrNoRoute] when the result is nil or holds no routes.
func (r *Result) Validate() error {
	if r.Primary() == nil {
		return ErrNoRoute
	}
	return nil
}
