package lib

import "strings"

// Settings is a flat bag of named configuration values, typically built
// up by layering defaults under caller-supplied overrides via Mixin.
type Settings map[string]interface{}

// Section returns the subset of settings whose key starts with prefix.
func (setts Settings) Section(prefix string) Settings {
	out := make(Settings)
	for key, value := range setts {
		if strings.HasPrefix(key, prefix) {
			out[key] = value
		}
	}
	return out
}

// Trim strips prefix off every key.
func (setts Settings) Trim(prefix string) Settings {
	out := make(Settings, len(setts))
	for key, value := range setts {
		out[strings.TrimPrefix(key, prefix)] = value
	}
	return out
}

// Filter returns the subset of settings whose key contains substr.
func (setts Settings) Filter(substr string) Settings {
	out := make(Settings)
	for key, value := range setts {
		if strings.Contains(key, substr) {
			out[key] = value
		}
	}
	return out
}

// Mixin layers each of settings, in order, on top of setts and returns
// setts. Later arguments win on key collision. Accepts both Settings and
// plain map[string]interface{} so a caller-supplied override map need not
// be wrapped in the named type first.
func (setts Settings) Mixin(settings ...interface{}) Settings {
	for _, arg := range settings {
		var layer map[string]interface{}
		switch v := arg.(type) {
		case Settings:
			layer = v
		case map[string]interface{}:
			layer = v
		default:
			continue
		}
		for key, value := range layer {
			setts[key] = value
		}
	}
	return setts
}

// Bool returns the boolean value stored under key, panicking if key is
// absent or not a bool.
func (setts Settings) Bool(key string) bool {
	value, ok := setts[key]
	if !ok {
		panicerr("missing settings %q", key)
	}
	val, ok := value.(bool)
	if !ok {
		panicerr("settings %q not a bool: %T", key, value)
	}
	return val
}

// String returns the string value stored under key, panicking if key is
// absent or not a string.
func (setts Settings) String(key string) string {
	value, ok := setts[key]
	if !ok {
		panicerr("missing settings %q", key)
	}
	val, ok := value.(string)
	if !ok {
		panicerr("settings %q not a string: %T", key, value)
	}
	return val
}

// Int64 returns the value stored under key coerced to int64, panicking
// if key is absent or holds a non-numeric value.
func (setts Settings) Int64(key string) int64 { return numericSetting[int64](setts, key) }

// Uint64 returns the value stored under key coerced to uint64, panicking
// if key is absent or holds a non-numeric value.
func (setts Settings) Uint64(key string) uint64 { return numericSetting[uint64](setts, key) }

// Float64 returns the value stored under key coerced to float64,
// panicking if key is absent or holds a non-numeric value.
func (setts Settings) Float64(key string) float64 { return numericSetting[float64](setts, key) }

// numericSetting coerces whatever numeric type a settings value was
// stored as (settings commonly arrive out of JSON, flags, or literal Go
// maps, each with their own preferred numeric type) into T, covering
// every built-in integer and float kind in one place instead of
// repeating the same type switch per accessor.
func numericSetting[T int64 | uint64 | float64](setts Settings, key string) T {
	value, ok := setts[key]
	if !ok {
		panicerr("missing settings %q", key)
	}
	switch val := value.(type) {
	case float64:
		return T(val)
	case float32:
		return T(val)
	case int:
		return T(val)
	case int8:
		return T(val)
	case int16:
		return T(val)
	case int32:
		return T(val)
	case int64:
		return T(val)
	case uint:
		return T(val)
	case uint8:
		return T(val)
	case uint16:
		return T(val)
	case uint32:
		return T(val)
	case uint64:
		return T(val)
	}
	panicerr("settings %q not a number: %T", key, value)
	var zero T
	return zero
}
