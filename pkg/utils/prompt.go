package utils

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/AlecAivazis/survey/v2"
	"golang.org/x/term"

	"github.com/picogrid/geoscape-sim/pkg/simulation"
)

// PromptForParameters prompts the user for simulation parameters
func PromptForParameters(params []simulation.Parameter) (map[string]interface{}, error) {
	result := make(map[string]interface{})

	for _, param := range params {
		value, err := promptForParameter(param)
		if err != nil {
			return nil, fmt.Errorf("failed to get %s: %w", param.Name, err)
		}
		if value != nil {
			result[param.Name] = value
		}
	}

	return result, nil
}

// EnvPrefix prefixes the environment variables that answer prompts.
const EnvPrefix = "GEOSCAPE_"

// interactive reports whether prompts can be shown. They are skipped for CI and when
// stdin is not a terminal.
func interactive() bool {
	if os.Getenv(EnvPrefix+"SKIP_PROMPTS") == "true" {
		return false
	}
	return term.IsTerminal(int(os.Stdin.Fd()))
}

func envValue(param simulation.Parameter) (interface{}, bool, error) {
	envKey := EnvPrefix + strings.ToUpper(param.Name)
	envValue := os.Getenv(envKey)
	if envValue == "" {
		return nil, false, nil
	}
	parsed, err := parseEnvValue(envValue, param)
	if err != nil {
		return nil, false, fmt.Errorf("invalid %s: %w", envKey, err)
	}
	return parsed, true, nil
}

// promptForParameter prompts for a single parameter
func promptForParameter(param simulation.Parameter) (interface{}, error) {
	if !interactive() {
		value, ok, err := envValue(param)
		if err != nil {
			return nil, err
		}
		if ok {
			return value, nil
		}
		if param.Default != nil {
			return param.Default, nil
		}
		if param.Required {
			return nil, fmt.Errorf("required parameter %s not provided and no default available", param.Name)
		}
		return nil, nil
	}

	// An environment value becomes the prompt default
	if value, ok, err := envValue(param); err == nil && ok {
		param.Default = value
	}

	switch param.Type {
	case "integer":
		return promptInteger(param)
	case "float":
		return promptFloat(param)
	case "string":
		return promptString(param)
	case "boolean":
		return promptBoolean(param)
	case "duration":
		return promptDuration(param)
	default:
		return nil, fmt.Errorf("unsupported parameter type: %s", param.Type)
	}
}

// parseEnvValue parses an environment variable value according to the parameter type
func parseEnvValue(value string, param simulation.Parameter) (interface{}, error) {
	switch param.Type {
	case "integer":
		return strconv.Atoi(value)
	case "float":
		return strconv.ParseFloat(value, 64)
	case "string":
		return value, nil
	case "boolean":
		return strconv.ParseBool(value)
	case "duration":
		duration, err := time.ParseDuration(value)
		if err != nil {
			return nil, err
		}
		return duration, nil
	default:
		return nil, fmt.Errorf("unsupported parameter type: %s", param.Type)
	}
}

// rangeValidator re-asks until the answer parses and lies within the parameter bounds.
func rangeValidator(param simulation.Parameter, parse func(string) (float64, error)) survey.Validator {
	return func(val interface{}) error {
		str, _ := val.(string)
		value, err := parse(str)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", param.Type, err)
		}
		if param.Min != nil && value < toFloat64(param.Min) {
			return fmt.Errorf("value must be at least %v", param.Min)
		}
		if param.Max != nil && value > toFloat64(param.Max) {
			return fmt.Errorf("value must be at most %v", param.Max)
		}
		return nil
	}
}

func parseIntAsFloat(s string) (float64, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	return float64(n), err
}

func parseFloat(s string) (float64, error) {
	return strconv.ParseFloat(strings.TrimSpace(s), 64)
}

func promptInteger(param simulation.Parameter) (int, error) {
	defaultStr := ""
	if param.Default != nil {
		defaultStr = strconv.Itoa(toInt(param.Default))
	}

	prompt := &survey.Input{
		Message: param.Description,
		Default: defaultStr,
	}

	var result string
	if err := survey.AskOne(prompt, &result,
		survey.WithValidator(survey.Required),
		survey.WithValidator(rangeValidator(param, parseIntAsFloat)),
	); err != nil {
		return 0, err
	}

	return strconv.Atoi(strings.TrimSpace(result))
}

func promptFloat(param simulation.Parameter) (float64, error) {
	defaultStr := ""
	if param.Default != nil {
		defaultStr = fmt.Sprintf("%v", param.Default)
	}

	prompt := &survey.Input{
		Message: param.Description,
		Default: defaultStr,
	}

	var result string
	if err := survey.AskOne(prompt, &result,
		survey.WithValidator(survey.Required),
		survey.WithValidator(rangeValidator(param, parseFloat)),
	); err != nil {
		return 0, err
	}

	return parseFloat(result)
}

func promptString(param simulation.Parameter) (string, error) {
	defaultStr := ""
	if param.Default != nil {
		defaultStr = fmt.Sprintf("%v", param.Default)
	}

	// If options are provided, use a select prompt
	if len(param.Options) > 0 {
		prompt := &survey.Select{
			Message: param.Description,
			Options: param.Options,
			Default: defaultStr,
		}

		var result string
		if err := survey.AskOne(prompt, &result); err != nil {
			return "", err
		}
		return result, nil
	}

	// Otherwise use input prompt
	prompt := &survey.Input{
		Message: param.Description,
		Default: defaultStr,
	}

	var result string
	var validators []survey.Validator
	if param.Required {
		validators = append(validators, survey.Required)
	}

	if err := survey.AskOne(prompt, &result, survey.WithValidator(survey.ComposeValidators(validators...))); err != nil {
		return "", err
	}

	return result, nil
}

func promptBoolean(param simulation.Parameter) (bool, error) {
	defaultBool := false
	if param.Default != nil {
		switch v := param.Default.(type) {
		case bool:
			defaultBool = v
		case string:
			defaultBool = v == "true" || v == "yes" || v == "1"
		}
	}

	prompt := &survey.Confirm{
		Message: param.Description,
		Default: defaultBool,
	}

	var result bool
	if err := survey.AskOne(prompt, &result); err != nil {
		return false, err
	}

	return result, nil
}

func promptDuration(param simulation.Parameter) (time.Duration, error) {
	defaultStr := ""
	if param.Default != nil {
		defaultStr = fmt.Sprintf("%v", param.Default)
	}

	prompt := &survey.Input{
		Message: param.Description + " (e.g., 5m, 1h30m, 30s)",
		Default: defaultStr,
	}

	var result string
	if err := survey.AskOne(prompt, &result, survey.WithValidator(func(val interface{}) error {
		str := val.(string)
		_, err := time.ParseDuration(str)
		if err != nil {
			return fmt.Errorf("invalid duration format (use formats like 5m, 1h30m, 30s)")
		}
		return nil
	})); err != nil {
		return 0, err
	}

	duration, err := time.ParseDuration(result)
	if err != nil {
		return 0, fmt.Errorf("failed to parse duration: %w", err)
	}

	return duration, nil
}

// Helper functions
func toInt(v interface{}) int {
	switch val := v.(type) {
	case int:
		return val
	case int64:
		return int(val)
	case float64:
		return int(val)
	case string:
		i, _ := strconv.Atoi(val)
		return i
	default:
		return 0
	}
}

func toFloat64(v interface{}) float64 {
	switch val := v.(type) {
	case float64:
		return val
	case int:
		return float64(val)
	case int64:
		return float64(val)
	case string:
		f, _ := strconv.ParseFloat(val, 64)
		return f
	default:
		return 0
	}
}
