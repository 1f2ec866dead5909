package processing

import (
	"errors"
	"testing"
)

func TestCommandInvoker_EmptyCommandList(t *testing.T) {
	invoker := NewCommandInvoker([]Command{})
	testData := []byte("test data")
	result, err := invoker.Execute(testData)
	if err != nil {
		t.Errorf("Expected no error, got %v", err)
	}
	if string(result) != string(testData) {
		t.Error("Expected result to match input for empty command list")
	}
}

func TestCommandInvoker_ExecutesInOrder(t *testing.T) {
	appendByte := func(b byte) func([]byte) ([]byte, error) {
		return func(data []byte) ([]byte, error) {
			return append(append([]byte{}, data...), b), nil
		}
	}
	invoker := NewCommandInvoker([]Command{
		newMockCommand("first", appendByte('1')),
		newMockCommand("second", appendByte('2')),
	})

	result, err := invoker.Execute([]byte("x"))
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if string(result) != "x12" {
		t.Errorf("Expected 'x12', got %q", string(result))
	}
}

func TestCommandInvoker_StopsOnError(t *testing.T) {
	failure := errors.New("boom")
	called := false
	invoker := NewCommandInvoker([]Command{
		newMockCommand("failing", func([]byte) ([]byte, error) { return nil, failure }),
		newMockCommand("after", func(data []byte) ([]byte, error) {
			called = true
			return data, nil
		}),
	})

	_, err := invoker.Execute([]byte("x"))
	if !errors.Is(err, failure) {
		t.Fatalf("Expected wrapped failure, got %v", err)
	}
	if called {
		t.Error("Expected commands after a failure not to run")
	}
}

func TestExecuteCommands_UnknownCommand(t *testing.T) {
	_, err := ExecuteCommands([]byte("x"), []CommandConfig{{Name: "UnknownCommand"}})
	if err == nil {
		t.Error("Expected error for unknown command")
	}
}

func TestExecuteCommands_CropPipeline(t *testing.T) {
	source := newTestPNG(t, 40, 20)
	result, err := ExecuteCommands(source, []CommandConfig{
		{Name: "RegionCropCommand", Params: map[string]any{"x": 0, "y": 0, "width": 10, "height": 10}},
		{Name: "DensityScaleCommand", Params: map[string]any{"pixelRatio": 2.0}},
		{Name: "JpegEncodeCommand", Params: map[string]any{"quality": 80}},
	})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	width, height, format := decodeDimensions(t, result)
	if width != 20 || height != 20 {
		t.Errorf("Expected 20x20 result, got %dx%d", width, height)
	}
	if format != "jpeg" {
		t.Errorf("Expected jpeg output, got %s", format)
	}
}
