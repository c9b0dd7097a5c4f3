package layout

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrUnknownFormat is returned for a format or file extension without a codec.
var ErrUnknownFormat = errors.New("unknown layout format")

// Format names.
const (
	FormatYAML = "yaml"
	FormatJSON = "json"
)

const (
	jsonIndent = "  "
	yamlIndent = 2
)

// Codec serializes layouts.
type Codec interface {
	// Encode writes l to w.
	Encode(w io.Writer, l *Layout) error
	// Extension returns the file extension for this codec, e.g. ".yaml".
	Extension() string
}

// YAMLCodec writes block-style YAML.
type YAMLCodec struct{}

// Encode implements Codec.
func (YAMLCodec) Encode(w io.Writer, l *Layout) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(yamlIndent)

	err := enc.Encode(l)
	if err != nil {
		return fmt.Errorf("yaml encode: %w", err)
	}

	err = enc.Close()
	if err != nil {
		return fmt.Errorf("yaml encode: %w", err)
	}

	return nil
}

// Extension implements Codec.
func (YAMLCodec) Extension() string {
	return ".yaml"
}

// JSONCodec writes indented JSON.
type JSONCodec struct{}

// Encode implements Codec.
func (JSONCodec) Encode(w io.Writer, l *Layout) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", jsonIndent)

	err := enc.Encode(l)
	if err != nil {
		return fmt.Errorf("json encode: %w", err)
	}

	return nil
}

// Extension implements Codec.
func (JSONCodec) Extension() string {
	return ".json"
}

// CodecFor returns the codec for a format name.
func CodecFor(format string) (Codec, error) {
	switch strings.ToLower(format) {
	case FormatYAML, "yml":
		return YAMLCodec{}, nil
	case FormatJSON:
		return JSONCodec{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

// CodecForPath picks the codec matching the extension of path.
func CodecForPath(path string) (Codec, error) {
	return CodecFor(strings.TrimPrefix(filepath.Ext(path), "."))
}

// Save writes l to path with the codec matching its extension.
func (l *Layout) Save(path string) (err error) {
	codec, err := CodecForPath(path)
	if err != nil {
		return err
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create layout file: %w", err)
	}

	defer func() { err = errors.Join(err, file.Close()) }()

	return codec.Encode(file, l)
}
