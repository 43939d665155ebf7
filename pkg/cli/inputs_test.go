package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/m-mizutani/gt"
)

func TestLoadInputs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "inputs.yml")
	gt.NoError(t, os.WriteFile(path, []byte("region: tokyo\nlanguage: ja\n"), 0o600))

	inputs, err := loadInputs(path)
	gt.NoError(t, err)
	gt.V(t, inputs["region"]).Equal("tokyo")
	gt.V(t, inputs["language"]).Equal("ja")
}

func TestLoadInputsEmptyPath(t *testing.T) {
	inputs, err := loadInputs("")
	gt.NoError(t, err)
	gt.V(t, len(inputs)).Equal(0)
}

func TestLoadInputsMissingFile(t *testing.T) {
	_, err := loadInputs(filepath.Join(t.TempDir(), "nope.yml"))
	gt.Error(t, err)
}

func TestLoadInputsBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "inputs.yml")
	gt.NoError(t, os.WriteFile(path, []byte("- not\n- a\n- map\n"), 0o600))

	_, err := loadInputs(path)
	gt.Error(t, err)
}

func TestValidateEmail(t *testing.T) {
	gt.NoError(t, validateEmail("alice@example.com"))
	gt.Error(t, validateEmail(""))
	gt.Error(t, validateEmail("alice"))
	gt.Error(t, validateEmail("@example.com"))
	gt.Error(t, validateEmail("alice@"))
	gt.Error(t, validateEmail("a@b@example.com"))
}
