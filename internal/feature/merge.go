package feature

import (
	"github.com/go-viper/mapstructure/v2"

	keelerrors "github.com/mrz1836/keel/internal/errors"
)

// MergeConfig deep-merges user overrides over a feature's defaults and
// returns the effective configuration.
//
// Rules:
//   - A key set in overrides replaces the default for that key entirely,
//     except when both sides are maps, which merge recursively.
//   - Keys unknown to the defaults are preserved, never required.
//   - Neither input map is mutated.
func MergeConfig(defaults, overrides map[string]any) map[string]any {
	merged := make(map[string]any, len(defaults)+len(overrides))
	for k, v := range defaults {
		merged[k] = v
	}
	for k, override := range overrides {
		if defMap, ok := merged[k].(map[string]any); ok {
			if ovrMap, ok := override.(map[string]any); ok {
				merged[k] = MergeConfig(defMap, ovrMap)
				continue
			}
		}
		merged[k] = override
	}
	return merged
}

// DecodeConfig decodes an effective configuration map into a typed options
// struct. Engines call this once at activation so the rest of their code
// works with typed fields instead of map lookups.
func DecodeConfig(effective map[string]any, out any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
	})
	if err != nil {
		return keelerrors.Wrap(err, "building feature config decoder")
	}
	return keelerrors.Wrap(decoder.Decode(effective), "decoding feature config")
}
