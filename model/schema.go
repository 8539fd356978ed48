package model

import (
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

const snapshotSchemaSrc = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["turn", "width", "height", "player_id"],
  "properties": {
    "turn": {"type": "integer", "minimum": 0},
    "width": {"type": "integer", "minimum": 1},
    "height": {"type": "integer", "minimum": 1},
    "player_id": {"enum": [0, 1]},
    "research_points": {
      "type": "array",
      "items": {"type": "integer", "minimum": 0},
      "minItems": 2,
      "maxItems": 2
    },
    "resources": {
      "type": ["array", "null"],
      "items": {
        "type": "object",
        "required": ["type", "x", "y", "amount"],
        "properties": {
          "type": {"enum": ["wood", "coal", "uranium"]},
          "x": {"type": "integer", "minimum": 0},
          "y": {"type": "integer", "minimum": 0},
          "amount": {"type": "integer", "minimum": 0}
        }
      }
    },
    "units": {
      "type": ["array", "null"],
      "items": {
        "type": "object",
        "required": ["id", "team", "x", "y"],
        "properties": {
          "id": {"type": "string", "minLength": 1},
          "team": {"enum": [0, 1]},
          "type": {"enum": [0, 1]},
          "x": {"type": "integer", "minimum": 0},
          "y": {"type": "integer", "minimum": 0},
          "cooldown": {"type": "number", "minimum": 0},
          "wood": {"type": "integer", "minimum": 0},
          "coal": {"type": "integer", "minimum": 0},
          "uranium": {"type": "integer", "minimum": 0}
        }
      }
    },
    "cities": {
      "type": ["array", "null"],
      "items": {
        "type": "object",
        "required": ["id", "team"],
        "properties": {
          "id": {"type": "string", "minLength": 1},
          "team": {"enum": [0, 1]},
          "fuel": {"type": "number"},
          "light_upkeep": {"type": "number", "minimum": 0}
        }
      }
    },
    "city_tiles": {
      "type": ["array", "null"],
      "items": {
        "type": "object",
        "required": ["city_id", "team", "x", "y"],
        "properties": {
          "city_id": {"type": "string", "minLength": 1},
          "team": {"enum": [0, 1]},
          "x": {"type": "integer", "minimum": 0},
          "y": {"type": "integer", "minimum": 0},
          "cooldown": {"type": "number", "minimum": 0}
        }
      }
    },
    "roads": {
      "type": ["array", "null"],
      "items": {
        "type": "object",
        "required": ["x", "y"],
        "properties": {
          "x": {"type": "integer", "minimum": 0},
          "y": {"type": "integer", "minimum": 0},
          "level": {"type": "number", "minimum": 0}
        }
      }
    }
  }
}`

var snapshotSchema = jsonschema.MustCompileString("snapshot.schema.json", snapshotSchemaSrc)

// DecodeSnapshot validates raw against the snapshot schema and decodes it.
// Schema violations wrap ErrInvalidSnapshot.
func DecodeSnapshot(raw []byte) (Snapshot, error) {
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return Snapshot{}, fmt.Errorf("%w: %v", ErrInvalidSnapshot, err)
	}
	if err := snapshotSchema.Validate(doc); err != nil {
		return Snapshot{}, fmt.Errorf("%w: %v", ErrInvalidSnapshot, err)
	}
	var s Snapshot
	if err := json.Unmarshal(raw, &s); err != nil {
		return Snapshot{}, fmt.Errorf("%w: %v", ErrInvalidSnapshot, err)
	}
	return s, nil
}
