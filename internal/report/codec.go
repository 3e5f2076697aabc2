package report

import (
	"bytes"
	"encoding/gob"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/Sumatoshi-tech/rbbench/internal/bench"
)

// Report formats.
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
	FormatGob  = "gob"
)

// Default indentation for pretty-printed JSON and YAML.
const (
	defaultIndent     = "  "
	defaultYAMLIndent = 2
)

// ErrUnknownFormat is returned for an unsupported report format or extension.
var ErrUnknownFormat = errors.New("unknown report format")

// Codec defines how results are serialized and deserialized.
type Codec interface {
	// Encode writes the results to the writer.
	Encode(w io.Writer, res *bench.Results) error
	// Decode reads results from the reader.
	Decode(r io.Reader) (*bench.Results, error)
	// Format returns the format name, e.g. "json".
	Format() string
}

// CodecFor returns the codec for a format name.
func CodecFor(format string) (Codec, error) {
	switch strings.ToLower(format) {
	case FormatJSON:
		return JSONCodec{}, nil
	case FormatYAML, "yml":
		return YAMLCodec{}, nil
	case FormatGob:
		return GobCodec{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

// CodecForPath picks a codec from the file extension.
func CodecForPath(path string) (Codec, error) {
	return CodecFor(strings.TrimPrefix(filepath.Ext(path), "."))
}

// JSONCodec encodes results as indented JSON.
type JSONCodec struct{}

// Encode implements Codec.
func (JSONCodec) Encode(w io.Writer, res *bench.Results) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", defaultIndent)

	err := encoder.Encode(res)
	if err != nil {
		return fmt.Errorf("json encode: %w", err)
	}

	return nil
}

// Decode implements Codec.
func (JSONCodec) Decode(r io.Reader) (*bench.Results, error) {
	var res bench.Results

	err := json.NewDecoder(r).Decode(&res)
	if err != nil {
		return nil, fmt.Errorf("json decode: %w", err)
	}

	return &res, nil
}

// Format implements Codec.
func (JSONCodec) Format() string { return FormatJSON }

// YAMLCodec encodes results as YAML.
type YAMLCodec struct{}

// Encode implements Codec.
func (YAMLCodec) Encode(w io.Writer, res *bench.Results) error {
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(defaultYAMLIndent)

	err := encoder.Encode(res)
	if err != nil {
		return fmt.Errorf("yaml encode: %w", err)
	}

	err = encoder.Close()
	if err != nil {
		return fmt.Errorf("yaml close: %w", err)
	}

	return nil
}

// Decode implements Codec.
func (YAMLCodec) Decode(r io.Reader) (*bench.Results, error) {
	var res bench.Results

	err := yaml.NewDecoder(r).Decode(&res)
	if err != nil {
		return nil, fmt.Errorf("yaml decode: %w", err)
	}

	return &res, nil
}

// Format implements Codec.
func (YAMLCodec) Format() string { return FormatYAML }

// GobCodec encodes results with encoding/gob.
type GobCodec struct{}

// Encode implements Codec.
func (GobCodec) Encode(w io.Writer, res *bench.Results) error {
	err := gob.NewEncoder(w).Encode(res)
	if err != nil {
		return fmt.Errorf("gob encode: %w", err)
	}

	return nil
}

// Decode implements Codec.
func (GobCodec) Decode(r io.Reader) (*bench.Results, error) {
	var res bench.Results

	err := gob.NewDecoder(r).Decode(&res)
	if err != nil {
		return nil, fmt.Errorf("gob decode: %w", err)
	}

	return &res, nil
}

// Format implements Codec.
func (GobCodec) Format() string { return FormatGob }

// Save writes results to path with codec.
func Save(path string, codec Codec, res *bench.Results) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create report file: %w", err)
	}

	err = codec.Encode(file, res)
	if err != nil {
		file.Close()

		return fmt.Errorf("encode report: %w", err)
	}

	err = file.Close()
	if err != nil {
		return fmt.Errorf("close report file: %w", err)
	}

	return nil
}

// Load reads results from path. JSON files are validated against the report
// schema before decoding.
func Load(path string) (*bench.Results, error) {
	codec, err := CodecForPath(path)
	if err != nil {
		return nil, err
	}

	if codec.Format() == FormatJSON {
		data, readErr := os.ReadFile(path)
		if readErr != nil {
			return nil, fmt.Errorf("read report file: %w", readErr)
		}

		validateErr := ValidateJSON(data)
		if validateErr != nil {
			return nil, validateErr
		}

		return codec.Decode(bytes.NewReader(data))
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open report file: %w", err)
	}
	defer file.Close()

	res, err := codec.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("decode report: %w", err)
	}

	return res, nil
}
