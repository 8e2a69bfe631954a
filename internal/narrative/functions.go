package narrative

import (
	"encoding/json"

	"leasingedge-engine/internal/llm"
)

const (
	rollupFunctionName     = "rollup_summary"
	extractionFunctionName = "note_extraction"
)

const rollupSchema = `{
  "type": "object",
  "properties": {
    "average_view": {"type": "array", "description": "Average rent and size per property and bed count", "items": {"type": "object"}},
    "minimum_view": {"type": "array", "description": "Minimum rent and size per property and bed count", "items": {"type": "object"}},
    "largest_view": {"type": "array", "description": "Maximum rent and size per property and bed count", "items": {"type": "object"}},
    "concessions": {"type": "array", "description": "Specials at the property and its comps", "items": {"type": "object"}},
    "amenities": {"type": "array", "description": "Building and unit amenities per property", "items": {"type": "object"}},
    "fees": {"type": "array", "description": "Fees per property", "items": {"type": "object"}},
    "prospect": {"type": "object", "description": "Prospect record including preferences and notes"}
  },
  "required": ["average_view", "minimum_view", "largest_view", "concessions", "amenities", "fees", "prospect"]
}`

const extractionSchema = `{
  "type": "object",
  "properties": {
    "client_full_name": {"type": "string", "description": "The prospect's full name"},
    "client_price_ceiling": {"type": "integer", "description": "Highest monthly rent the prospect will pay"},
    "client_sqft_min": {"type": "integer", "description": "Smallest square footage the prospect will accept"},
    "studio_preference": {"type": "boolean", "description": "Interested in a studio"},
    "onebed_preference": {"type": "boolean", "description": "Interested in a one-bedroom"},
    "twobed_preference": {"type": "boolean", "description": "Interested in a two-bedroom"},
    "threebed_preference": {"type": "boolean", "description": "Interested in a three-bedroom"},
    "fourbed_preference": {"type": "boolean", "description": "Interested in a four-bedroom"}
  }
}`

var (
	rollupFunction = llm.Function{
		Name:        rollupFunctionName,
		Description: "Write a free-form summary of a prospect's preferences and how the available options compare",
		Parameters:  json.RawMessage(rollupSchema),
	}
	extractionFunction = llm.Function{
		Name:        extractionFunctionName,
		Description: "Extract structured detail from free-text prospect notes",
		Parameters:  json.RawMessage(extractionSchema),
	}
)
