package models

import (
	"fmt"

	"github.com/vision-bench/go-bench/config"
)

// Registered model names.
const (
	NameYuNet  = "yunet"
	NameSFace  = "sface"
	NameYOLOv8 = "yolov8"
)

// NewModel builds the model named by the configuration section.
func NewModel(cfg config.Model) (Model, error) {
	switch cfg.Name {
	case NameYuNet:
		return NewYuNet(cfg.Name, cfg.ModelPath)
	case NameSFace:
		return NewSFace(cfg.Name, cfg.ModelPath)
	case NameYOLOv8:
		inputs, err := stringList(cfg, "inputs")
		if err != nil {
			return nil, err
		}
		outputs, err := stringList(cfg, "outputs")
		if err != nil {
			return nil, err
		}
		return NewYOLOv8(cfg.Name, cfg.ModelPath, inputs, outputs)
	default:
		return nil, fmt.Errorf("models: unsupported model name %q", cfg.Name)
	}
}

// stringList decodes an optional model-specific list field.
func stringList(cfg config.Model, key string) ([]string, error) {
	node, ok := cfg.Extra[key]
	if !ok {
		return nil, nil
	}
	var values []string
	if err := node.Decode(&values); err != nil {
		return nil, fmt.Errorf("models: decoding Model.%s: %w", key, err)
	}
	return values, nil
}
