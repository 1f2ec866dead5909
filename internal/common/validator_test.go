package common

import (
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
)

type sample struct {
	Name  string  `validate:"required"`
	Ratio float64 `validate:"gt=0"`
}

func TestGenericEchoValidator(t *testing.T) {
	v := &GenericEchoValidator{}

	if err := v.Validate(&sample{Name: "leaf", Ratio: 1}); err != nil {
		t.Fatalf("Expected valid struct, got %v", err)
	}

	err := v.Validate(&sample{})
	var httpErr *echo.HTTPError
	if !errors.As(err, &httpErr) {
		t.Fatalf("Expected echo.HTTPError, got %T", err)
	}
	if httpErr.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", httpErr.Code)
	}
	message, _ := httpErr.Message.(string)
	if !strings.Contains(message, "Name (required)") || !strings.Contains(message, "Ratio (gt)") {
		t.Errorf("Expected failing fields in message, got %q", message)
	}
}
