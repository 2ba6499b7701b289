//go:build onnx
// +build onnx

package ner

import (
	"bufio"
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
	"go.uber.org/zap"
)

// OnnxRecognizer implements Recognizer using a token-classification model
// run through ONNX Runtime (via yalue/onnxruntime_go). The model directory
// must contain model.onnx, vocab.txt (one token per line), and labels.txt
// (one BIO label per line, e.g. B-PERSON).
type OnnxRecognizer struct {
	session    *ort.DynamicAdvancedSession
	inputNames []string
	outputName string
	vocab      map[string]int64
	labels     []string
	maxLength  int
	logger     *zap.Logger
	ready      bool
	mu         sync.RWMutex
}

const (
	padToken = "[PAD]"
	unkToken = "[UNK]"
)

// NewRecognizer initializes the ONNX Runtime recognizer. Requires build tag
// 'onnx'. Returns nil on any initialization failure so callers degrade to
// pattern detection.
func NewRecognizer(logger *zap.Logger, modelPath string) Recognizer {
	// Allow user to provide shared library path via environment variable.
	if shlib := os.Getenv("ONNXRUNTIME_SHARED_LIB"); shlib != "" {
		ort.SetSharedLibraryPath(shlib)
	} else if shlib := os.Getenv("ORT_SHLIB"); shlib != "" {
		ort.SetSharedLibraryPath(shlib)
	}

	if err := ort.InitializeEnvironment(); err != nil {
		logger.Error("ONNX Runtime environment init failed", zap.Error(err))
		return nil
	}

	modelFile := filepath.Join(modelPath, "model.onnx")
	vocab, err := loadLines(filepath.Join(modelPath, "vocab.txt"))
	if err != nil {
		logger.Error("Failed to load vocab", zap.Error(err), zap.String("model", modelPath))
		return nil
	}
	labels, err := loadLabelList(filepath.Join(modelPath, "labels.txt"))
	if err != nil {
		logger.Error("Failed to load labels", zap.Error(err), zap.String("model", modelPath))
		return nil
	}

	inputsInfo, outputsInfo, err := ort.GetInputOutputInfo(modelFile)
	if err != nil {
		logger.Error("Failed to inspect ONNX model IO", zap.Error(err), zap.String("model", modelFile))
		return nil
	}
	if len(outputsInfo) == 0 {
		logger.Error("ONNX model reports no outputs", zap.String("model", modelFile))
		return nil
	}

	var inputNames []string
	for _, ii := range inputsInfo {
		inputNames = append(inputNames, ii.Name)
	}
	outputName := outputsInfo[0].Name

	sess, err := ort.NewDynamicAdvancedSession(modelFile, inputNames, []string{outputName}, nil)
	if err != nil {
		logger.Error("ONNX Runtime session creation failed", zap.Error(err), zap.String("model", modelFile))
		return nil
	}

	logger.Info("ONNX NER backend ready",
		zap.String("model", modelFile),
		zap.Strings("inputs", inputNames),
		zap.String("output", outputName),
		zap.Int("labels", len(labels)),
	)

	return &OnnxRecognizer{
		session:    sess,
		inputNames: inputNames,
		outputName: outputName,
		vocab:      vocab,
		labels:     labels,
		maxLength:  512,
		logger:     logger,
		ready:      true,
	}
}

// IsReady reports whether the backend is initialized.
func (r *OnnxRecognizer) IsReady() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.ready && r.session != nil
}

// Close releases session and environment resources.
func (r *OnnxRecognizer) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.session != nil {
		r.session.Destroy()
		r.session = nil
	}
	ort.DestroyEnvironment()
	r.ready = false
	return nil
}

// Recognize tags the text word by word and assembles BIO spans into entities.
func (r *OnnxRecognizer) Recognize(ctx context.Context, text string, threshold float64) ([]Entity, error) {
	if !r.IsReady() {
		return nil, fmt.Errorf("onnx recognizer not ready")
	}

	words := strings.Fields(text)
	if len(words) == 0 {
		return []Entity{}, nil
	}
	if len(words) > r.maxLength {
		words = words[:r.maxLength]
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	seqLen := len(words)
	inputIDs := make([]int64, seqLen)
	attention := make([]int64, seqLen)
	for i, word := range words {
		id, ok := r.vocab[strings.ToLower(word)]
		if !ok {
			id = r.vocab[unkToken]
		}
		inputIDs[i] = id
		attention[i] = 1
	}

	shape := ort.NewShape(1, int64(seqLen))
	idsTensor, err := ort.NewTensor[int64](shape, inputIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to create input_ids tensor: %w", err)
	}
	defer idsTensor.Destroy()
	maskTensor, err := ort.NewTensor[int64](shape, attention)
	if err != nil {
		return nil, fmt.Errorf("failed to create attention_mask tensor: %w", err)
	}
	defer maskTensor.Destroy()

	inputs := make([]ort.Value, 0, len(r.inputNames))
	for _, rawName := range r.inputNames {
		name := strings.ToLower(rawName)
		switch {
		case strings.Contains(name, "mask") || strings.Contains(name, "attention"):
			inputs = append(inputs, maskTensor)
		default:
			inputs = append(inputs, idsTensor)
		}
	}

	outputs := make([]ort.Value, 1)
	if err := r.session.Run(inputs, outputs); err != nil {
		return nil, fmt.Errorf("onnx run failed: %w", err)
	}
	if len(outputs) == 0 || outputs[0] == nil {
		return nil, fmt.Errorf("onnx returned no outputs")
	}
	defer func() {
		if outputs[0] != nil {
			_ = outputs[0].Destroy()
		}
	}()

	outTensor, ok := outputs[0].(*ort.Tensor[float32])
	if !ok {
		return nil, fmt.Errorf("unexpected output type (want float32 tensor)")
	}
	data := outTensor.GetData()
	outShape := outTensor.GetShape()
	if len(outShape) != 3 {
		return nil, fmt.Errorf("unsupported output shape %v (want [1, seq, labels])", outShape)
	}
	numLabels := int(outShape[2])
	if numLabels != len(r.labels) {
		return nil, fmt.Errorf("model emits %d labels, labels.txt has %d", numLabels, len(r.labels))
	}
	if len(data) < seqLen*numLabels {
		return nil, fmt.Errorf("unexpected flat data length %d for shape %v", len(data), outShape)
	}

	return r.decodeBIO(words, data, seqLen, numLabels, threshold), nil
}

// decodeBIO converts per-word label scores into entity spans.
func (r *OnnxRecognizer) decodeBIO(words []string, logits []float32, seqLen, numLabels int, threshold float64) []Entity {
	var entities []Entity
	var span []string
	var spanLabel string
	var spanConfidence float64
	var spanCount int

	flush := func() {
		if len(span) == 0 {
			return
		}
		confidence := spanConfidence / float64(spanCount)
		if confidence >= threshold {
			entities = append(entities, Entity{
				Label:      spanLabel,
				Text:       strings.Join(span, " "),
				Confidence: confidence,
			})
		}
		span = nil
	}

	for i := 0; i < seqLen; i++ {
		offset := i * numLabels
		best, prob := argmaxSoftmax(logits[offset : offset+numLabels])
		label := r.labels[best]

		switch {
		case strings.HasPrefix(label, "B-"):
			flush()
			span = []string{words[i]}
			spanLabel = strings.TrimPrefix(label, "B-")
			spanConfidence = prob
			spanCount = 1
		case strings.HasPrefix(label, "I-") && len(span) > 0 && strings.TrimPrefix(label, "I-") == spanLabel:
			span = append(span, words[i])
			spanConfidence += prob
			spanCount++
		default:
			flush()
		}
	}
	flush()

	return entities
}

// argmaxSoftmax returns the index of the best score and its softmax
// probability.
func argmaxSoftmax(scores []float32) (int, float64) {
	best := 0
	for i, s := range scores {
		if s > scores[best] {
			best = i
		}
	}

	var sum float64
	for _, s := range scores {
		sum += math.Exp(float64(s - scores[best]))
	}
	return best, 1.0 / sum
}

// loadLines reads a vocab file into a token -> id map, line number as id.
func loadLines(path string) (map[string]int64, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	vocab := make(map[string]int64)
	scanner := bufio.NewScanner(file)
	var id int64
	for scanner.Scan() {
		vocab[scanner.Text()] = id
		id++
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if _, ok := vocab[unkToken]; !ok {
		return nil, fmt.Errorf("vocab missing %s token", unkToken)
	}
	return vocab, nil
}

// loadLabelList reads the ordered BIO label list.
func loadLabelList(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var labels []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			labels = append(labels, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if len(labels) == 0 {
		return nil, fmt.Errorf("labels file is empty")
	}
	return labels, nil
}
