package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hospital/hms/internal/platform/apperr"
	"github.com/hospital/hms/internal/platform/form"
)

func TestApplyMedicine(t *testing.T) {
	var m Medicine
	require.NoError(t, applyMedicine(form.Values{"MedicineName": " Panadol ", "UnitPrice": "12.5", "Quantity": "40"}, &m))
	require.NoError(t, validateMedicine(&m))

	assert.Equal(t, "Panadol", m.MedicineName)
	require.NotNil(t, m.UnitPrice)
	assert.InDelta(t, 12.5, *m.UnitPrice, 0.0001)
	require.NotNil(t, m.Quantity)
	assert.Equal(t, 40, *m.Quantity)
}

func TestApplyMedicine_BadNumber(t *testing.T) {
	var m Medicine
	err := applyMedicine(form.Values{"MedicineName": "Panadol", "Quantity": "many"}, &m)
	assert.True(t, apperr.IsValidation(err))
}

func TestValidateMedicine(t *testing.T) {
	neg := -1
	tests := []struct {
		name string
		m    Medicine
	}{
		{"blank name", Medicine{MedicineName: "  "}},
		{"negative quantity", Medicine{MedicineName: "Panadol", Quantity: &neg}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, apperr.IsValidation(validateMedicine(&tt.m)))
		})
	}
}

func TestValidateSupply_RequiresQuantityAndPrice(t *testing.T) {
	var s Supply
	require.NoError(t, applySupply(form.Values{"ItemName": "Gloves", "Quantity": "10"}, &s))

	err := validateSupply(&s)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "UnitPrice")

	require.NoError(t, applySupply(form.Values{"UnitPrice": "0.5"}, &s))
	assert.NoError(t, validateSupply(&s))
}

func TestApplyLabTest_NormalisesPrice(t *testing.T) {
	var lt LabTest
	require.NoError(t, applyLabTest(form.Values{"TestName": "CBC", "Price": "150", "Description": "Blood count"}, &lt))
	require.NoError(t, validateLabTest(&lt))

	require.NotNil(t, lt.Price)
	assert.Equal(t, "150.00", *lt.Price)
	require.NotNil(t, lt.Description)
	assert.Equal(t, "Blood count", *lt.Description)
}

func TestApplyRadiologyTest_ClearsDescription(t *testing.T) {
	desc := "Chest"
	rt := RadiologyTest{TestName: "X-Ray", Description: &desc}
	require.NoError(t, applyRadiologyTest(form.Values{"Description": ""}, &rt))
	assert.Nil(t, rt.Description)
	assert.Equal(t, "X-Ray", rt.TestName)
}

func TestValidateRadiologyTest_NegativePrice(t *testing.T) {
	var rt RadiologyTest
	require.NoError(t, applyRadiologyTest(form.Values{"TestName": "MRI", "Price": "-20"}, &rt))
	assert.True(t, apperr.IsValidation(validateRadiologyTest(&rt)))
}
