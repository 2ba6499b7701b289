//go:build !onnx
// +build !onnx

package ner

import (
	"go.uber.org/zap"
)

// Stub implementation used when the 'onnx' build tag is not set.
func NewRecognizer(logger *zap.Logger, modelPath string) Recognizer {
	return nil
}
