package cfg

import (
	"net/url"
	"reflect"

	"github.com/mitchellh/mapstructure"
)

func hookFunc() mapstructure.DecodeHookFuncType {
	return func(
		f reflect.Type,
		t reflect.Type,
		data interface{},
	) (interface{}, error) {
		if f.Kind() != reflect.String {
			return data, nil
		}
		s := data.(string)
		if t == reflect.TypeOf(url.URL{}) {
			u, err := url.Parse(s)
			if err != nil {
				return nil, err
			}
			return *u, nil
		}
		return data, nil
	}
}

// DecodeHook composes the mapstructure decode hooks viper uses to turn
// strings from flags and config files into this package's typed fields:
// the UnmarshalText methods on Octal/LogSeverity/CacheStrategy/ResolvedPath,
// plus the standard duration and comma-separated-slice hooks.
func DecodeHook() mapstructure.DecodeHookFunc {
	return mapstructure.ComposeDecodeHookFunc(
		mapstructure.TextUnmarshallerHookFunc(),
		hookFunc(),
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	)
}
