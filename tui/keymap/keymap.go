// Package keymap applies user keybinding overrides from runner.yml to
// bubbles key maps:
//
//	tui:
//	  keybindings:
//	    sessionlist:
//	      focus: ["enter", "o"]
package keymap

import (
	"reflect"
	"strings"
	"unicode"

	"github.com/charmbracelet/bubbles/key"

	"github.com/grovetools/runner/config"
)

// Overrides maps a snake_case binding name to the keys that trigger it.
type Overrides map[string][]string

type tuiConfig struct {
	Keybindings map[string]Overrides `yaml:"keybindings"`
}

// LoadOverrides returns the overrides for one view, or nil when none are
// configured.
func LoadOverrides(cfg *config.Config, view string) (Overrides, error) {
	if cfg == nil {
		return nil, nil
	}
	var tc tuiConfig
	if err := cfg.UnmarshalExtension("tui", &tc); err != nil {
		return nil, err
	}
	return tc.Keybindings[view], nil
}

// ApplyOverrides rebinds the key.Binding fields of the struct km points to.
// A field named GoToTop is matched by the key "go_to_top". Help text keeps
// its description and shows the first new key.
func ApplyOverrides(km interface{}, overrides Overrides) {
	if len(overrides) == 0 {
		return
	}
	v := reflect.ValueOf(km)
	if v.Kind() != reflect.Ptr || v.Elem().Kind() != reflect.Struct {
		return
	}
	apply(v.Elem(), overrides)
}

var bindingType = reflect.TypeOf(key.Binding{})

func apply(v reflect.Value, overrides Overrides) {
	t := v.Type()
	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)
		ft := t.Field(i)
		if ft.Anonymous && field.Kind() == reflect.Struct {
			apply(field, overrides)
			continue
		}
		if ft.Type != bindingType || !field.CanSet() {
			continue
		}

		keys, ok := overrides[camelToSnake(ft.Name)]
		if !ok || len(keys) == 0 {
			continue
		}
		current := field.Interface().(key.Binding)
		field.Set(reflect.ValueOf(key.NewBinding(
			key.WithKeys(keys...),
			key.WithHelp(strings.Join(keys, "/"), current.Help().Desc),
		)))
	}
}

// camelToSnake converts ViewLogs to view_logs.
func camelToSnake(s string) string {
	var b strings.Builder
	for i, r := range s {
		if unicode.IsUpper(r) {
			if i > 0 {
				b.WriteRune('_')
			}
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
