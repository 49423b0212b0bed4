package server

import (
	"encoding/json"
	"testing"
)

func TestGetToolDefinitions(t *testing.T) {
	tools := GetToolDefinitions()

	if len(tools) == 0 {
		t.Fatal("GetToolDefinitions returned empty slice")
	}

	expectedTools := []string{
		"image_load",
		"image_dimensions",
		"image_sample_color",
		"mask_load",
		"digitize_calibrate",
		"digitize_transform",
		"digitize_labels",
		"digitize_settings",
		"digitize_probe_add",
		"digitize_probe_generate",
		"digitize_probe_update",
		"digitize_probe_remove",
		"digitize_manual",
		"digitize_manual_import",
		"digitize_profile",
		"digitize_detect",
		"digitize_results",
		"digitize_preview",
		"digitize_status",
	}

	toolMap := make(map[string]Tool)
	for _, tool := range tools {
		if _, dup := toolMap[tool.Name]; dup {
			t.Errorf("Tool %s defined twice", tool.Name)
		}
		toolMap[tool.Name] = tool
	}

	for _, name := range expectedTools {
		if _, ok := toolMap[name]; !ok {
			t.Errorf("Expected tool %s not found", name)
		}
	}
	if len(tools) != len(expectedTools) {
		t.Errorf("Tool count: got %d, want %d", len(tools), len(expectedTools))
	}
}

func TestToolDefinitions_Structure(t *testing.T) {
	tools := GetToolDefinitions()

	for _, tool := range tools {
		t.Run(tool.Name, func(t *testing.T) {
			if tool.Description == "" {
				t.Error("Tool description is empty")
			}
			if tool.InputSchema == nil {
				t.Fatal("Tool InputSchema is nil")
			}
			if tool.InputSchema["type"] != "object" {
				t.Errorf("InputSchema type: got %v, want 'object'", tool.InputSchema["type"])
			}
			if _, ok := tool.InputSchema["properties"].(map[string]interface{}); !ok {
				t.Error("InputSchema properties should be a map")
			}
		})
	}
}

// Every required field must also be declared as a property.
func TestToolDefinitions_RequiredAreProperties(t *testing.T) {
	for _, tool := range GetToolDefinitions() {
		required, ok := tool.InputSchema["required"]
		if !ok {
			continue
		}
		props := tool.InputSchema["properties"].(map[string]interface{})
		for _, r := range required.([]string) {
			if _, ok := props[r]; !ok {
				t.Errorf("%s: required field %q is not a property", tool.Name, r)
			}
		}
	}
}

// Every defined tool must be dispatched by executeTool.
func TestToolDefinitions_Dispatched(t *testing.T) {
	s := New()
	for _, tool := range GetToolDefinitions() {
		_, err := s.executeTool(tool.Name, json.RawMessage(`{}`))
		if err != nil && err.Error() == "unknown tool: "+tool.Name {
			t.Errorf("%s is listed but not dispatched", tool.Name)
		}
	}
}

func TestToolDefinitions_JSON(t *testing.T) {
	data, err := json.Marshal(GetToolDefinitions())
	if err != nil {
		t.Fatalf("Failed to marshal: %v", err)
	}

	var decoded []map[string]interface{}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Failed to unmarshal: %v", err)
	}
	for _, tool := range decoded {
		if _, ok := tool["inputSchema"]; !ok {
			t.Errorf("%v: missing inputSchema key", tool["name"])
		}
	}
}
