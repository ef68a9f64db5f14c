package city

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ceyewan/cityweather/xerrors"
)

func TestCity_JSONIsFlat(t *testing.T) {
	var c City
	require.NoError(t, json.Unmarshal([]byte(`{"name":"Paris","country":"FR","population":2100000}`), &c))
	assert.Equal(t, "Paris", c.Name)
	assert.Equal(t, "FR", c.Attributes["country"])
	assert.NotContains(t, c.Attributes, "name")

	out, err := json.Marshal(c)
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"Paris","country":"FR","population":2100000}`, string(out))
}

func TestCity_UnmarshalRejectsBadShapes(t *testing.T) {
	var c City
	assert.Error(t, json.Unmarshal([]byte(`["Paris"]`), &c))
	assert.ErrorIs(t, json.Unmarshal([]byte(`null`), &c), xerrors.ErrInvalidInput)
	assert.ErrorIs(t, json.Unmarshal([]byte(`{"name":42}`), &c), xerrors.ErrInvalidInput)
}

func TestCity_Validate(t *testing.T) {
	assert.NoError(t, (&City{Name: "Lima"}).Validate())
	assert.ErrorIs(t, (&City{}).Validate(), xerrors.ErrInvalidInput)
	assert.ErrorIs(t, (&City{Name: "a/b"}).Validate(), xerrors.ErrInvalidInput)
}

func TestLocation(t *testing.T) {
	assert.Equal(t, "/cities/Paris", Location("Paris"))
	assert.Equal(t, "/cities/New%20York", Location("New York"))
	assert.Equal(t, "/cities/S%C3%A3o%20Paulo", Location("São Paulo"))
	assert.Equal(t, "/cities/a%3Fb", Location("a?b"))
}
