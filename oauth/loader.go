package oauth

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// IntegrationsFile is the layout of an integrations YAML file:
//
//	integrations:
//	  - settings_name: github
//	    preset: github
//	    client_id: ${GITHUB_CLIENT_ID}
//	    client_secret: ${GITHUB_CLIENT_SECRET}
//	    locate_domain: example.com
//	    return_url: https://example.com/settings?tab=github
type IntegrationsFile struct {
	Integrations []ProviderOptions `json:"integrations" yaml:"integrations"`
}

// LoadIntegrations reads integration options from cfg.IntegrationsFile, or
// from the cfg.Integrations JSON array when no file is set. ${VAR}
// references in the file are expanded from the environment.
func LoadIntegrations(cfg Config) ([]ProviderOptions, error) {
	var (
		opts []ProviderOptions
		err  error
	)
	switch {
	case cfg.IntegrationsFile != "":
		var data []byte
		data, err = os.ReadFile(cfg.IntegrationsFile)
		if err != nil {
			return nil, fmt.Errorf("read integrations file: %w", err)
		}
		opts, err = ParseIntegrationsYAML([]byte(os.ExpandEnv(string(data))))
	case cfg.Integrations != "":
		opts, err = ParseIntegrationsJSON([]byte(cfg.Integrations))
	default:
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	for i := range opts {
		if opts[i].EndpointPath == "" {
			opts[i].EndpointPath = cfg.EndpointPath
		}
	}
	return opts, nil
}

// ParseIntegrationsYAML decodes an integrations file. Unknown keys are
// rejected so typos surface at startup.
func ParseIntegrationsYAML(data []byte) ([]ProviderOptions, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var file IntegrationsFile
	if err := dec.Decode(&file); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: integrations file: %v", ErrInvalidConfig, err)
	}
	return file.Integrations, nil
}

// ParseIntegrationsJSON decodes a JSON array of integrations.
func ParseIntegrationsJSON(data []byte) ([]ProviderOptions, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()

	var opts []ProviderOptions
	if err := dec.Decode(&opts); err != nil {
		return nil, fmt.Errorf("%w: integrations JSON: %v", ErrInvalidConfig, err)
	}
	return opts, nil
}

// LoadProviderConfigs loads and validates every integration in cfg.
func LoadProviderConfigs(cfg Config) ([]*ProviderConfig, error) {
	opts, err := LoadIntegrations(cfg)
	if err != nil {
		return nil, err
	}

	out := make([]*ProviderConfig, 0, len(opts))
	for i, o := range opts {
		pc, err := NewProviderConfig(o)
		if err != nil {
			return nil, fmt.Errorf("integration %d: %w", i, err)
		}
		out = append(out, pc)
	}
	return out, nil
}
