package artifacts

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"

	"github.com/fxamacker/cbor/v2"

	"github.com/temirov/pipegate/internal/metadata"
)

// Supported codec names.
const (
	CodecNameJSON = "json"
	CodecNameCBOR = "cbor"
)

const (
	jsonExtensionConstant = ".json"
	cborExtensionConstant = ".cbor"
	unknownCodecTemplate  = "unsupported artifact codec %q"
	encodeErrorTemplate   = "failed to encode metadata as %s: %w"
	decodeErrorTemplate   = "failed to decode %s metadata: %w"
)

// Codec converts metadata records to bytes and back.
type Codec interface {
	Name() string
	Extension() string
	Encode(record metadata.PipelineMetadata) ([]byte, error)
	Decode(data []byte) (metadata.PipelineMetadata, error)
}

// CodecByName resolves "json" or "cbor", case-insensitively. An empty name selects JSON.
func CodecByName(name string) (Codec, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", CodecNameJSON:
		return JSONCodec{}, nil
	case CodecNameCBOR:
		return newCBORCodec()
	default:
		return nil, fmt.Errorf(unknownCodecTemplate, name)
	}
}

// JSONCodec writes the record in the same shape `pipegate metadata` prints.
type JSONCodec struct{}

// Name returns "json".
func (JSONCodec) Name() string { return CodecNameJSON }

// Extension returns ".json".
func (JSONCodec) Extension() string { return jsonExtensionConstant }

// Encode marshals record.
func (JSONCodec) Encode(record metadata.PipelineMetadata) ([]byte, error) {
	encoded, encodeError := json.Marshal(record)
	if encodeError != nil {
		return nil, fmt.Errorf(encodeErrorTemplate, CodecNameJSON, encodeError)
	}
	return encoded, nil
}

// Decode unmarshals data.
func (JSONCodec) Decode(data []byte) (metadata.PipelineMetadata, error) {
	var record metadata.PipelineMetadata
	if decodeError := json.Unmarshal(data, &record); decodeError != nil {
		return metadata.PipelineMetadata{}, fmt.Errorf(decodeErrorTemplate, CodecNameJSON, decodeError)
	}
	return record, nil
}

// CBORCodec writes the JSON data model of the record as deterministic CBOR, so both codecs share one field
// naming and the custom JSON shapes of skip patterns, rules and optional values.
type CBORCodec struct {
	encodeMode cbor.EncMode
	decodeMode cbor.DecMode
}

func newCBORCodec() (CBORCodec, error) {
	encodeMode, encodeModeError := cbor.CoreDetEncOptions().EncMode()
	if encodeModeError != nil {
		return CBORCodec{}, encodeModeError
	}
	decodeMode, decodeModeError := cbor.DecOptions{DefaultMapType: reflect.TypeOf(map[string]any(nil))}.DecMode()
	if decodeModeError != nil {
		return CBORCodec{}, decodeModeError
	}
	return CBORCodec{encodeMode: encodeMode, decodeMode: decodeMode}, nil
}

// Name returns "cbor".
func (CBORCodec) Name() string { return CodecNameCBOR }

// Extension returns ".cbor".
func (CBORCodec) Extension() string { return cborExtensionConstant }

// Encode converts record to its JSON data model and marshals that as CBOR.
func (codec CBORCodec) Encode(record metadata.PipelineMetadata) ([]byte, error) {
	encodedJSON, jsonError := json.Marshal(record)
	if jsonError != nil {
		return nil, fmt.Errorf(encodeErrorTemplate, CodecNameCBOR, jsonError)
	}
	var document any
	if documentError := json.Unmarshal(encodedJSON, &document); documentError != nil {
		return nil, fmt.Errorf(encodeErrorTemplate, CodecNameCBOR, documentError)
	}
	encoded, encodeError := codec.encodeMode.Marshal(document)
	if encodeError != nil {
		return nil, fmt.Errorf(encodeErrorTemplate, CodecNameCBOR, encodeError)
	}
	return encoded, nil
}

// Decode reverses Encode.
func (codec CBORCodec) Decode(data []byte) (metadata.PipelineMetadata, error) {
	var document any
	if decodeError := codec.decodeMode.Unmarshal(data, &document); decodeError != nil {
		return metadata.PipelineMetadata{}, fmt.Errorf(decodeErrorTemplate, CodecNameCBOR, decodeError)
	}
	encodedJSON, jsonError := json.Marshal(document)
	if jsonError != nil {
		return metadata.PipelineMetadata{}, fmt.Errorf(decodeErrorTemplate, CodecNameCBOR, jsonError)
	}
	var record metadata.PipelineMetadata
	if recordError := json.Unmarshal(encodedJSON, &record); recordError != nil {
		return metadata.PipelineMetadata{}, fmt.Errorf(decodeErrorTemplate, CodecNameCBOR, recordError)
	}
	return record, nil
}
