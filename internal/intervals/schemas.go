package intervals

import (
	"fmt"

	"github.com/xeipuuv/gojsonschema"
)

// Required fields are strict, optional telemetry is nullable so new or
// missing upstream fields never fail a feed.

const activitiesSchema = `{
  "type": "array",
  "items": {
    "type": "object",
    "required": ["id", "start_date_local", "type"],
    "properties": {
      "id": {"type": ["string", "integer"]},
      "start_date_local": {"type": "string", "minLength": 10},
      "type": {"type": "string"},
      "name": {"type": ["string", "null"]},
      "description": {"type": ["string", "null"]},
      "moving_time": {"type": ["number", "null"]},
      "distance": {"type": ["number", "null"]},
      "icu_training_load": {"type": ["number", "null"]},
      "icu_intensity": {"type": ["number", "null"]},
      "weighted_average_watts": {"type": ["number", "null"]},
      "average_watts": {"type": ["number", "null"]},
      "max_watts": {"type": ["number", "null"]},
      "average_heartrate": {"type": ["number", "null"]},
      "max_heartrate": {"type": ["number", "null"]},
      "calories": {"type": ["number", "null"]},
      "total_elevation_gain": {"type": ["number", "null"]}
    }
  }
}`

const eventsSchema = `{
  "type": "array",
  "items": {
    "type": "object",
    "required": ["id", "start_date_local", "category"],
    "properties": {
      "id": {"type": "integer"},
      "start_date_local": {"type": "string", "minLength": 10},
      "category": {"type": "string"},
      "type": {"type": ["string", "null"]},
      "name": {"type": ["string", "null"]},
      "description": {"type": ["string", "null"]},
      "coach_notes": {"type": ["string", "null"]},
      "moving_time": {"type": ["number", "null"]},
      "icu_training_load": {"type": ["number", "null"]}
    }
  }
}`

const wellnessSchema = `{
  "type": "array",
  "items": {
    "type": "object",
    "required": ["id"],
    "properties": {
      "id": {"type": "string", "pattern": "^[0-9]{4}-[0-9]{2}-[0-9]{2}$"},
      "ctl": {"type": ["number", "null"]},
      "atl": {"type": ["number", "null"]},
      "ctlLoad": {"type": ["number", "null"]},
      "atlLoad": {"type": ["number", "null"]}
    }
  }
}`

const powerCurveSchema = `{
  "type": "object",
  "required": ["list"],
  "properties": {
    "list": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["secs", "watts"],
        "properties": {
          "secs": {"type": "array", "items": {"type": "integer"}},
          "watts": {"type": "array", "items": {"type": ["number", "null"]}},
          "activity_id": {"type": ["array", "null"], "items": {"type": ["string", "null"]}}
        }
      }
    },
    "activities": {
      "type": ["object", "null"],
      "additionalProperties": {
        "type": "object",
        "required": ["start_date_local"],
        "properties": {
          "id": {"type": ["string", "integer"]},
          "start_date_local": {"type": "string", "minLength": 10}
        }
      }
    }
  }
}`

var feedSchemas = map[Feed]*gojsonschema.Schema{
	FeedActivities: mustSchema(activitiesSchema),
	FeedEvents:     mustSchema(eventsSchema),
	FeedWellness:   mustSchema(wellnessSchema),
	FeedPowerCurve: mustSchema(powerCurveSchema),
}

func mustSchema(s string) *gojsonschema.Schema {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(s))
	if err != nil {
		panic(fmt.Sprintf("compile json schema: %s", err))
	}
	return schema
}

// validate checks body against the schema registered for feed.
func validate(feed Feed, body []byte) error {
	schema, ok := feedSchemas[feed]
	if !ok {
		return fmt.Errorf("no schema for feed %s", feed)
	}

	result, err := schema.Validate(gojsonschema.NewBytesLoader(body))
	if err != nil {
		return &ValidationError{Feed: feed, Details: []string{err.Error()}}
	}
	if result.Valid() {
		return nil
	}

	details := make([]string, 0, len(result.Errors()))
	for _, resErr := range result.Errors() {
		details = append(details, resErr.String())
	}
	return &ValidationError{Feed: feed, Details: details}
}
