package config

import (
	"regexp"

	"github.com/pkg/errors"

	"github.com/askiada/go-postprocess/internal/conv"
	"github.com/askiada/go-postprocess/pkg/postprocess"
)

var tunePattern = regexp.MustCompile(`^\s*tune\(\s*(?:"([^"]*)"|([A-Za-z0-9_.\-]*))\s*\)\s*$`)

// ParseParam turns a decoded value into a parameter. The strings tune() and
// tune(id) declare a tunable placeholder, anything else is a fixed value.
func ParseParam(v any) postprocess.Param {
	if v == nil {
		return postprocess.Param{}
	}

	if s, ok := v.(string); ok {
		if m := tunePattern.FindStringSubmatch(s); m != nil {
			return postprocess.Tune(m[1] + m[2])
		}
	}

	return postprocess.Fixed(v)
}

func param(cfg map[string]any, key string) postprocess.Param {
	return ParseParam(cfg[key])
}

func float(cfg map[string]any, key string, def float64) (float64, error) {
	v, ok := cfg[key]
	if !ok || v == nil {
		return def, nil
	}

	f, ok := conv.ToFloat64(v)
	if !ok {
		return 0, errors.Wrapf(ErrInvalidConfig, "%s: %v is not a number", key, v)
	}

	return f, nil
}

func str(cfg map[string]any, key, def string) (string, error) {
	s, ok := conv.ConfigLookup(cfg, key, def)
	if !ok {
		return "", errors.Wrapf(ErrInvalidConfig, "%s: %v is not a string", key, cfg[key])
	}

	return s, nil
}
