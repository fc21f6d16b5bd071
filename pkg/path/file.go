package path

import (
	"encoding/json"
	stderrors "errors"
	"io/fs"
	"path/filepath"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

func ReadYaml(fs afero.Fs, path string, out interface{}) error {
	buf, err := afero.ReadFile(fs, path)
	if err != nil {
		return errors.Wrapf(err, "failed to read file %s", path)
	}

	return ConvertYamlToObject(buf, out)
}

// ReadYamlIfExists behaves like ReadYaml without validation, reporting false when the file is absent.
func ReadYamlIfExists(afs afero.Fs, path string, out interface{}) (bool, error) {
	buf, err := afero.ReadFile(afs, path)
	if stderrors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, errors.Wrapf(err, "failed to read file %s", path)
	}

	if err := yaml.Unmarshal(buf, out); err != nil {
		return false, errors.Wrapf(err, "failed to parse YAML file %s", path)
	}

	return true, nil
}

func WriteYaml(fs afero.Fs, path string, content interface{}) error {
	buf, err := yaml.Marshal(content)
	if err != nil {
		return errors.Wrapf(err, "failed to marshal object to yaml")
	}

	return writeFile(fs, path, buf)
}

func WriteJSON(fs afero.Fs, path string, content interface{}) error {
	buf, err := json.MarshalIndent(content, "", "  ")
	if err != nil {
		return errors.Wrapf(err, "failed to marshal object to json")
	}

	return writeFile(fs, path, buf)
}

func writeFile(fs afero.Fs, path string, buf []byte) error {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := fs.MkdirAll(dir, 0o755); err != nil {
			return errors.Wrapf(err, "failed to create directory %s", dir)
		}
	}

	err := afero.WriteFile(fs, path, buf, 0o644)
	if err != nil {
		return errors.Wrapf(err, "failed to write file to %s", path)
	}

	return nil
}

func ConvertYamlToObject(buf []byte, out interface{}) error {
	err := yaml.Unmarshal(buf, out)
	if err != nil {
		return err
	}

	return ValidateStruct(out)
}

func ValidateStruct(s interface{}) error {
	return validate.Struct(s)
}
