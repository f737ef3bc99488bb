package utils_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"go-contact-pipeline/pkg/utils"
)

func TestStringField(t *testing.T) {
	rec := map[string]interface{}{
		"name":   "  Ada  ",
		"phone":  float64(5550101),
		"rate":   1.5,
		"active": true,
		"gone":   nil,
	}

	require.Equal(t, "Ada", utils.StringField(rec, "name"))
	require.Equal(t, "5550101", utils.StringField(rec, "phone"))
	require.Equal(t, "1.5", utils.StringField(rec, "rate"))
	require.Equal(t, "true", utils.StringField(rec, "active"))
	require.Equal(t, "", utils.StringField(rec, "gone"))
	require.Equal(t, "", utils.StringField(rec, "missing"))
}
