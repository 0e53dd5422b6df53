package runtimeinfo

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Env formats understood by FormatEnv.
const (
	FormatDotenv     = "dotenv"
	FormatShell      = "shell"
	FormatSetEnvVars = "set-env-vars"
	FormatJSON       = "json"
)

// FormatEnv renders key/value pairs in a consumer-specific format: dotenv
// lines, shell export statements, the comma-joined --set-env-vars syntax
// (empty values dropped there, since a KEY= entry would unset the var), or
// a JSON object. keys fixes the output order for the line formats.
func FormatEnv(keys []string, values map[string]string, format string) (string, error) {
	switch format {
	case FormatJSON:
		raw, err := json.MarshalIndent(values, "", "  ")
		if err != nil {
			return "", err
		}
		return string(raw), nil
	case FormatSetEnvVars:
		pairs := make([]string, 0, len(keys))
		for _, k := range keys {
			if values[k] == "" {
				continue
			}
			pairs = append(pairs, k+"="+values[k])
		}
		return strings.Join(pairs, ","), nil
	case FormatShell:
		lines := make([]string, 0, len(keys))
		for _, k := range keys {
			lines = append(lines, "export "+k+"="+strconv.Quote(values[k]))
		}
		return strings.Join(lines, "\n"), nil
	case FormatDotenv:
		lines := make([]string, 0, len(keys))
		for _, k := range keys {
			lines = append(lines, k+"="+values[k])
		}
		return strings.Join(lines, "\n"), nil
	}
	return "", fmt.Errorf("unknown env format %q", format)
}
