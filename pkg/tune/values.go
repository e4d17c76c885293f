package tune

import (
	"encoding/json"
	"io"
	"strings"

	"github.com/pkg/errors"

	"github.com/askiada/go-postprocess/pkg/postprocess"
)

var ErrInvalidKey = errors.New("invalid value key")

// Flatten keys values by "operation.parameter".
func Flatten(values postprocess.Values) map[string]any {
	out := make(map[string]any, len(values))
	for ref, v := range values {
		out[ref.String()] = v
	}

	return out
}

// Unflatten is the inverse of Flatten. The parameter name is what follows the last dot.
func Unflatten(flat map[string]any) (postprocess.Values, error) {
	values := make(postprocess.Values, len(flat))

	for key, v := range flat {
		i := strings.LastIndex(key, ".")
		if i <= 0 || i == len(key)-1 {
			return nil, errors.Wrapf(ErrInvalidKey, "%q, want operation.parameter", key)
		}

		values.Set(key[:i], key[i+1:], v)
	}

	return values, nil
}

// DecodeValues reads a JSON object of flattened values.
func DecodeValues(r io.Reader) (postprocess.Values, error) {
	var flat map[string]any

	err := json.NewDecoder(r).Decode(&flat)
	if err != nil {
		return nil, errors.Wrap(err, "unable to decode values")
	}

	return Unflatten(flat)
}

// EncodeValues writes values as a JSON object of flattened values.
func EncodeValues(w io.Writer, values postprocess.Values) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	err := enc.Encode(Flatten(values))
	if err != nil {
		return errors.Wrap(err, "unable to encode values")
	}

	return nil
}
