// Package config provides YAML configuration loading with environment variable override.
package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

var durationType = reflect.TypeOf(time.Duration(0))

// Load reads a YAML configuration file into out, expanding ${VAR} references
// first and then applying `env` struct tag overrides.
func Load(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file %s: %w", path, err)
	}

	expanded := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expanded), out); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	return ApplyEnv(out)
}

// LoadOrDefault is Load, except a missing file leaves out untouched apart
// from env overrides.
func LoadOrDefault(path string, out any) error {
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			return Load(path, out)
		} else if !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("stat config file %s: %w", path, err)
		}
	}
	return ApplyEnv(out)
}

// ApplyEnv sets struct fields from the environment variables named by their
// `env` tag. Nested structs are walked. A tag may list fallbacks separated by
// commas; the first one set wins.
func ApplyEnv(v any) error {
	val := reflect.ValueOf(v)
	if val.Kind() == reflect.Ptr {
		val = val.Elem()
	}
	if val.Kind() != reflect.Struct {
		return nil
	}

	t := val.Type()
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		fieldVal := val.Field(i)
		if !field.IsExported() {
			continue
		}

		if fieldVal.Kind() == reflect.Struct {
			if err := ApplyEnv(fieldVal.Addr().Interface()); err != nil {
				return err
			}
			continue
		}

		name, envVal, ok := lookupTag(field.Tag.Get("env"))
		if !ok {
			continue
		}
		if err := setField(fieldVal, envVal); err != nil {
			return fmt.Errorf("env %s: %w", name, err)
		}
	}
	return nil
}

func lookupTag(tag string) (string, string, bool) {
	if tag == "" {
		return "", "", false
	}
	for _, name := range strings.Split(tag, ",") {
		name = strings.TrimSpace(name)
		if v, ok := os.LookupEnv(name); ok && v != "" {
			return name, v, true
		}
	}
	return "", "", false
}

func setField(fv reflect.Value, raw string) error {
	if fv.Type() == durationType {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return err
		}
		fv.SetInt(int64(d))
		return nil
	}

	switch fv.Kind() {
	case reflect.String:
		fv.SetString(raw)
	case reflect.Int, reflect.Int64:
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return err
		}
		fv.SetInt(n)
	case reflect.Float64:
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return err
		}
		fv.SetFloat(f)
	case reflect.Bool:
		fv.SetBool(strings.EqualFold(raw, "true") || raw == "1")
	case reflect.Slice:
		if fv.Type().Elem().Kind() != reflect.String {
			return fmt.Errorf("unsupported slice type %s", fv.Type())
		}
		parts := strings.Split(raw, ",")
		out := reflect.MakeSlice(fv.Type(), 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = reflect.Append(out, reflect.ValueOf(p))
			}
		}
		fv.Set(out)
	default:
		return fmt.Errorf("unsupported field kind %s", fv.Kind())
	}
	return nil
}
