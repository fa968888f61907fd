// Package config applies TOML file, environment and CLI values to a flat
// options struct, and watches files for changes.
//
// Options fields opt in with tags:
//
//	Port int `toml:"server.port" env:"PORT"`
//
// Precedence is CLI flag > DROIDPANEL_<ENV> variable > TOML value > default.
package config

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/huyangdroid/droidpanel/internal/logging"
)

// EnvPrefix is prepended to every env tag.
const EnvPrefix = "DROIDPANEL_"

var durationType = reflect.TypeOf(time.Duration(0))

// LoadConfig fills opts, a pointer to struct, from the TOML file named by its
// Config field and from the environment. Flags changed on cmd are left alone.
func LoadConfig(opts any, cmd *cobra.Command) error {
	v := reflect.ValueOf(opts)
	if v.Kind() != reflect.Pointer || v.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("config: options must be a pointer to struct, got %T", opts)
	}
	v = v.Elem()

	changed := changedFlags(cmd)

	if f := v.FieldByName("Config"); f.IsValid() && f.Kind() == reflect.String {
		if err := applyTOML(v, f.String(), changed); err != nil {
			return err
		}
	}

	applyEnv(v, changed)
	return nil
}

func changedFlags(cmd *cobra.Command) map[string]bool {
	changed := make(map[string]bool)
	if cmd == nil {
		return changed
	}
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		if f.Changed {
			changed[f.Name] = true
		}
	})
	return changed
}

func applyTOML(v reflect.Value, path string, changed map[string]bool) error {
	if path == "" {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		// A missing config file is not an error; defaults apply.
		return nil
	}

	var doc map[string]any
	if err := toml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("failed to parse TOML config: %w", err)
	}

	t := v.Type()
	for i := 0; i < v.NumField(); i++ {
		ft := t.Field(i)
		if changed[fieldNameToFlag(ft.Name)] {
			continue
		}
		if key := ft.Tag.Get("toml"); key != "" {
			if value := getNestedValue(doc, key); value != nil {
				setFieldValue(v.Field(i), value)
			}
		}
	}
	return nil
}

func applyEnv(v reflect.Value, changed map[string]bool) {
	t := v.Type()
	for i := 0; i < v.NumField(); i++ {
		ft := t.Field(i)
		if changed[fieldNameToFlag(ft.Name)] {
			continue
		}
		if key := ft.Tag.Get("env"); key != "" {
			if value := os.Getenv(EnvPrefix + key); value != "" {
				setFieldValueFromString(v.Field(i), value)
			}
		}
	}
}

// fieldNameToFlag converts a struct field name to a CLI flag name.
// Example: "LoggingLevel" -> "logging-level", "Port" -> "port".
func fieldNameToFlag(fieldName string) string {
	var result []rune
	for i, r := range fieldName {
		if i > 0 && unicode.IsUpper(r) {
			result = append(result, '-')
		}
		result = append(result, unicode.ToLower(r))
	}
	return string(result)
}

// getNestedValue retrieves a value from nested map using dot notation.
func getNestedValue(data map[string]any, path string) any {
	current := data
	parts := strings.Split(path, ".")
	for i, part := range parts {
		if i == len(parts)-1 {
			return current[part]
		}
		next, ok := current[part].(map[string]any)
		if !ok {
			return nil
		}
		current = next
	}
	return nil
}

// setFieldValue assigns a decoded TOML value. Strings go through the same
// parsing as environment values; other mismatched types are ignored.
func setFieldValue(field reflect.Value, value any) {
	if !field.CanSet() {
		return
	}

	switch v := value.(type) {
	case string:
		setFieldValueFromString(field, v)
	case bool:
		if field.Kind() == reflect.Bool {
			field.SetBool(v)
		}
	case int64:
		switch {
		case field.Type() == durationType:
			field.SetInt(v * int64(time.Millisecond))
		case field.Kind() == reflect.Int:
			field.SetInt(v)
		case field.Kind() == reflect.Float64:
			field.SetFloat(float64(v))
		}
	case float64:
		if field.Kind() == reflect.Float64 {
			field.SetFloat(v)
		}
	case []any:
		if field.Kind() != reflect.Slice || field.Type().Elem().Kind() != reflect.String {
			return
		}
		items := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				items = append(items, s)
			}
		}
		field.Set(reflect.ValueOf(items))
	}
}

// setFieldValueFromString parses an environment or TOML string into field.
// Unparsable values leave the field unchanged.
func setFieldValueFromString(field reflect.Value, value string) {
	if !field.CanSet() {
		return
	}

	if field.Type() == durationType {
		if d, err := time.ParseDuration(value); err == nil {
			field.SetInt(int64(d))
		}
		return
	}

	switch field.Kind() {
	case reflect.String:
		field.SetString(value)
	case reflect.Bool:
		if b, err := strconv.ParseBool(value); err == nil {
			field.SetBool(b)
		}
	case reflect.Int:
		if i, err := strconv.Atoi(value); err == nil {
			field.SetInt(int64(i))
		}
	case reflect.Float64:
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			field.SetFloat(f)
		}
	case reflect.Slice:
		if field.Type().Elem().Kind() != reflect.String {
			return
		}
		var items []string
		for part := range strings.SplitSeq(value, ",") {
			items = append(items, strings.TrimSpace(part))
		}
		field.Set(reflect.ValueOf(items))
	}
}

// LoadLoggingConfig reads the [logging] table of a TOML file. Keys other
// than level, format and quiet set per-module levels. Missing or invalid
// files yield the defaults.
func LoadLoggingConfig(configPath string) logging.Config {
	cfg := logging.Config{
		Level:   "info",
		Format:  "text",
		Modules: make(map[string]string),
	}
	if configPath == "" {
		return cfg
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return cfg
	}

	var raw struct {
		Logging map[string]any `toml:"logging"`
	}
	if err := toml.Unmarshal(data, &raw); err != nil {
		return cfg
	}

	for key, value := range raw.Logging {
		switch key {
		case "level":
			cfg.Level, _ = value.(string)
		case "format":
			cfg.Format, _ = value.(string)
		case "quiet":
			cfg.Quiet, _ = value.(bool)
		default:
			if s, ok := value.(string); ok {
				cfg.Modules[key] = s
			}
		}
	}
	return cfg
}
