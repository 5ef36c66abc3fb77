//go:build cgo
// +build cgo

// Package embedding provides ONNX-based image embedding (requires CGO and onnxruntime library).
package embedding

import (
	"context"
	"fmt"
	"sync"

	ort "github.com/yalue/onnxruntime_go"

	"github.com/hyperjump/kimawashi/pkg/utils"
)

// ONNXEmbedder runs an image embedding model (e.g. Inception-v3 with its
// classifier head removed) via ONNX Runtime. Requires CGO and the
// onnxruntime shared library. The model must take a 1x3xSxS float32 input
// named "input" and produce a 1xD float32 output named "output".
type ONNXEmbedder struct {
	session    *ort.AdvancedSession
	dimensions int
	imageSize  int
	// Pre-allocated tensors for Run(); we update input data and read output.
	inputTensor  *ort.Tensor[float32]
	outputTensor *ort.Tensor[float32]
	mu           sync.Mutex
}

// NewONNXEmbedder creates an ONNX image embedder. InitializeEnvironment is called if not already done.
func NewONNXEmbedder(modelPath string, dimensions, imageSize int) (*ONNXEmbedder, error) {
	if err := ort.InitializeEnvironment(); err != nil {
		return nil, fmt.Errorf("failed to initialize ONNX runtime: %w", err)
	}

	s := int64(imageSize)
	inputData := make([]float32, 3*imageSize*imageSize)
	inputTensor, err := ort.NewTensor(ort.NewShape(1, 3, s, s), inputData)
	if err != nil {
		return nil, fmt.Errorf("failed to create input tensor: %w", err)
	}
	outputData := make([]float32, dimensions)
	outputTensor, err := ort.NewTensor(ort.NewShape(1, int64(dimensions)), outputData)
	if err != nil {
		inputTensor.Destroy()
		return nil, fmt.Errorf("failed to create output tensor: %w", err)
	}

	session, err := ort.NewAdvancedSession(
		modelPath,
		[]string{"input"},
		[]string{"output"},
		[]ort.ArbitraryTensor{inputTensor},
		[]ort.ArbitraryTensor{outputTensor},
		nil,
	)
	if err != nil {
		inputTensor.Destroy()
		outputTensor.Destroy()
		return nil, fmt.Errorf("failed to create ONNX session: %w", err)
	}

	return &ONNXEmbedder{
		session:      session,
		dimensions:   dimensions,
		imageSize:    imageSize,
		inputTensor:  inputTensor,
		outputTensor: outputTensor,
	}, nil
}

// Embed decodes the image, runs the model and returns the unit-normalized embedding.
func (e *ONNXEmbedder) Embed(ctx context.Context, imageData []byte) ([]float32, error) {
	img, err := DecodeImage(imageData)
	if err != nil {
		return nil, err
	}
	tensor := Preprocess(img, e.imageSize)

	e.mu.Lock()
	defer e.mu.Unlock()

	copy(e.inputTensor.GetData(), tensor)
	if err := e.session.Run(); err != nil {
		return nil, fmt.Errorf("inference failed: %w", err)
	}

	outputData := e.outputTensor.GetData()
	embedding := make([]float32, e.dimensions)
	copy(embedding, outputData[:e.dimensions])

	utils.NormalizeL2(embedding)
	return embedding, nil
}

// Dimensions returns the embedding dimension.
func (e *ONNXEmbedder) Dimensions() int {
	return e.dimensions
}

// Close destroys the session and tensors.
func (e *ONNXEmbedder) Close() error {
	var err error
	if e.session != nil {
		err = e.session.Destroy()
		e.session = nil
	}
	if e.inputTensor != nil {
		_ = e.inputTensor.Destroy()
		e.inputTensor = nil
	}
	if e.outputTensor != nil {
		_ = e.outputTensor.Destroy()
		e.outputTensor = nil
	}
	return err
}
