package server

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/gin-gonic/gin"

	"houseprice/internal/features"
)

var formFields = []string{
	features.FieldBedrooms, features.FieldBathrooms, features.FieldSqftLiving, features.FieldSqftLot,
	features.FieldFloors, features.FieldYrBuilt, features.FieldCondition, features.FieldGrade,
	features.FieldYrRenovated, features.FieldWaterfront, features.FieldView, features.FieldLocation,
}

// rawFields collects the property form as strings. Keys that were not sent
// stay absent so the feature builder can tell them apart from empty values.
func rawFields(c *gin.Context) (map[string]string, error) {
	if c.ContentType() == gin.MIMEJSON {
		return jsonFields(c)
	}
	if err := c.Request.ParseForm(); err != nil {
		return nil, fmt.Errorf("parse form: %w", err)
	}
	out := make(map[string]string, len(formFields))
	for _, name := range formFields {
		if values, ok := c.Request.PostForm[name]; ok && len(values) > 0 {
			out[name] = values[0]
		}
	}
	return out, nil
}

func jsonFields(c *gin.Context) (map[string]string, error) {
	var body map[string]any
	if err := json.NewDecoder(c.Request.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode json body: %w", err)
	}
	out := make(map[string]string, len(formFields))
	for _, name := range formFields {
		switch v := body[name].(type) {
		case nil:
		case string:
			out[name] = v
		case float64:
			out[name] = strconv.FormatFloat(v, 'f', -1, 64)
		case bool:
			if v {
				out[name] = "1"
			} else {
				out[name] = "0"
			}
		default:
			return nil, fmt.Errorf("field %s has unsupported type %T", name, v)
		}
	}
	return out, nil
}
