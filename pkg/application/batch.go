package application

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/felixgeelhaar/kanbn/pkg/domain/board"
)

const batchSchemaJSON = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "definitions": {
    "stringList": { "type": "array", "items": { "type": "string" } },
    "task": {
      "type": "object",
      "additionalProperties": false,
      "properties": {
        "name": { "type": "string" },
        "description": { "type": "string" },
        "column": { "type": "string" },
        "tags": { "$ref": "#/definitions/stringList" },
        "assigned": { "type": "string" },
        "due": { "type": "string" },
        "started": { "type": "string" },
        "completed": { "type": "string" },
        "subtasks": { "$ref": "#/definitions/stringList" }
      }
    },
    "tasks": { "type": "array", "items": { "$ref": "#/definitions/task" } }
  },
  "oneOf": [
    { "$ref": "#/definitions/tasks" },
    {
      "type": "object",
      "required": ["tasks"],
      "additionalProperties": false,
      "properties": {
        "column": { "type": "string" },
        "tasks": { "$ref": "#/definitions/tasks" }
      }
    }
  ]
}`

var batchSchemaLoader = gojsonschema.NewStringLoader(batchSchemaJSON)

// BatchFile is a decoded batch document.
type BatchFile struct {
	Column string         `json:"column"`
	Tasks  []AddTaskInput `json:"tasks"`
}

// ParseBatch validates and decodes a batch document: either a JSON array of
// tasks or an object with "tasks" and an optional default "column".
func ParseBatch(data []byte) (*BatchFile, error) {
	result, err := gojsonschema.Validate(batchSchemaLoader, gojsonschema.NewBytesLoader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: batch is not valid JSON: %v", board.ErrInvalidInput, err)
	}
	if !result.Valid() {
		var problems []string
		for _, desc := range result.Errors() {
			problems = append(problems, desc.String())
		}
		return nil, fmt.Errorf("%w: batch does not match schema: %s", board.ErrInvalidInput, strings.Join(problems, "; "))
	}

	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, "[") {
		var tasks []AddTaskInput
		if err := json.Unmarshal(data, &tasks); err != nil {
			return nil, fmt.Errorf("%w: %v", board.ErrInvalidInput, err)
		}
		return &BatchFile{Tasks: tasks}, nil
	}
	var file BatchFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("%w: %v", board.ErrInvalidInput, err)
	}
	return &file, nil
}
