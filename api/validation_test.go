package api

import (
	"testing"

	"github.com/gcbaptista/go-recommendation-blender/services"
)

func TestValidationResult_AddError(t *testing.T) {
	result := &ValidationResult{Valid: true}

	result.AddError("field1", "error message")

	if result.Valid {
		t.Error("Expected Valid to be false after adding error")
	}

	if len(result.Errors) != 1 {
		t.Fatalf("Expected 1 error, got %d", len(result.Errors))
	}

	if result.Errors[0].Field != "field1" {
		t.Errorf("Expected field 'field1', got '%s'", result.Errors[0].Field)
	}

	if result.Errors[0].Message != "error message" {
		t.Errorf("Expected message 'error message', got '%s'", result.Errors[0].Message)
	}
}

func TestValidationResult_HasErrors(t *testing.T) {
	result := &ValidationResult{Valid: true}

	if result.HasErrors() {
		t.Error("Expected HasErrors to be false for empty result")
	}

	result.AddError("field", "message")

	if !result.HasErrors() {
		t.Error("Expected HasErrors to be true after adding error")
	}
}

func TestValidateBlendRequest(t *testing.T) {
	tests := []struct {
		name       string
		req        *services.BlendRequest
		wantErrors int
	}{
		{
			name:       "valid request",
			req:        &services.BlendRequest{External: []string{"a:1"}, Forked: []string{"a:2"}},
			wantErrors: 0,
		},
		{
			name:       "forked may be empty",
			req:        &services.BlendRequest{External: []string{"a:1"}},
			wantErrors: 0,
		},
		{
			name:       "nil request",
			req:        nil,
			wantErrors: 1,
		},
		{
			name:       "no external lines",
			req:        &services.BlendRequest{Forked: []string{"a:2"}},
			wantErrors: 1,
		},
		{
			name:       "negative limits",
			req:        &services.BlendRequest{External: []string{"a:1"}, ForkedLimit: intPtr(-1), ResultLimit: intPtr(-1)},
			wantErrors: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ValidateBlendRequest(tt.req)
			if len(result.Errors) != tt.wantErrors {
				t.Errorf("Expected %d errors, got %d: %v", tt.wantErrors, len(result.Errors), result.Errors)
			}
		})
	}
}

func TestValidateKey(t *testing.T) {
	tests := []struct {
		name      string
		key       string
		wantValid bool
		wantError string
	}{
		{name: "numeric key", key: "1042", wantValid: true},
		{name: "empty key", key: "", wantValid: false, wantError: "Key is required"},
		{name: "leading whitespace", key: " 1042", wantValid: false, wantError: "Key cannot have leading or trailing whitespace"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ValidateKey(tt.key)

			if result.HasErrors() == tt.wantValid {
				t.Errorf("Expected valid=%v, got errors %v", tt.wantValid, result.Errors)
			}
			if !tt.wantValid && result.Errors[0].Message != tt.wantError {
				t.Errorf("Expected error '%s', got '%s'", tt.wantError, result.Errors[0].Message)
			}
		})
	}
}

func TestValidateJobStatus(t *testing.T) {
	if ValidateJobStatus("completed").HasErrors() {
		t.Error("Expected 'completed' to be a valid status")
	}
	if !ValidateJobStatus("done").HasErrors() {
		t.Error("Expected 'done' to be rejected")
	}
}

func TestValidatePagination(t *testing.T) {
	tests := []struct {
		name         string
		page         int
		pageSize     int
		wantPage     int
		wantPageSize int
		wantErrors   int
	}{
		{name: "defaults", page: 0, pageSize: 0, wantPage: 1, wantPageSize: defaultPageSize},
		{name: "explicit values", page: 3, pageSize: 20, wantPage: 3, wantPageSize: 20},
		{name: "negative page", page: -1, pageSize: 10, wantPage: -1, wantPageSize: 10, wantErrors: 1},
		{name: "page size too large", page: 1, pageSize: 5000, wantPage: 1, wantPageSize: 5000, wantErrors: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, pageSize, result := ValidatePagination(tt.page, tt.pageSize)
			if page != tt.wantPage || pageSize != tt.wantPageSize {
				t.Errorf("Expected (%d, %d), got (%d, %d)", tt.wantPage, tt.wantPageSize, page, pageSize)
			}
			if len(result.Errors) != tt.wantErrors {
				t.Errorf("Expected %d errors, got %d", tt.wantErrors, len(result.Errors))
			}
		})
	}
}
