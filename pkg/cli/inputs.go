package cli

import (
	"os"

	"github.com/m-mizutani/goerr/v2"
	"gopkg.in/yaml.v3"
)

// loadInputs reads the chat app input variables from a YAML file. An empty
// path means no extra inputs.
//
// Example:
//
//	region: tokyo
//	language: ja
func loadInputs(path string) (map[string]string, error) {
	if path == "" {
		return nil, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read inputs file", goerr.V("path", path))
	}

	var inputs map[string]string
	if err := yaml.Unmarshal(data, &inputs); err != nil {
		return nil, goerr.Wrap(err, "failed to parse inputs file", goerr.V("path", path))
	}

	return inputs, nil
}
