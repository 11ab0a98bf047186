package flag

import (
	"fmt"
	"io"
	"strings"

	"github.com/alecthomas/kong"
	"gopkg.in/yaml.v3"
)

// YAML loads a kong configuration file. Keys are flag names; flags of a
// command may also be nested under the command's name:
//
//	logging-config: <root>=DEBUG
//	run:
//	  refresh: 1m
func YAML(r io.Reader) (kong.Resolver, error) {
	values := map[string]interface{}{}

	if err := yaml.NewDecoder(r).Decode(&values); err != nil && err != io.EOF {
		return nil, fmt.Errorf("decoding configuration: %w", err)
	}

	var f kong.ResolverFunc = func(_ *kong.Context, parent *kong.Path, flag *kong.Flag) (interface{}, error) {
		if parent != nil && parent.Command != nil {
			if section, ok := values[parent.Command.Name].(map[string]interface{}); ok {
				if v, ok := lookup(section, flag.Name); ok {
					return v, nil
				}
			}
		}

		if v, ok := lookup(values, flag.Name); ok {
			return v, nil
		}

		return nil, nil
	}

	return f, nil
}

func lookup(values map[string]interface{}, name string) (interface{}, bool) {
	for _, key := range []string{name, strings.ReplaceAll(name, "-", "_")} {
		v, ok := values[key]
		if !ok {
			continue
		}

		switch v := v.(type) {
		case map[string]interface{}, []interface{}:
			return nil, false
		case string, bool:
			return v, true
		default:
			return fmt.Sprint(v), true
		}
	}

	return nil, false
}
