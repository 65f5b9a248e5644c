package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/skillswap-project/server-beta/internal/schemas"
)

func TestValidateTimeSlots(t *testing.T) {
	testCases := []struct {
		name  string
		slots []schemas.TimeSlot
		valid bool
	}{
		{"Empty", []schemas.TimeSlot{}, true},
		{"Nil", nil, true},
		{
			"SingleValid",
			[]schemas.TimeSlot{{Day: "Monday", Start: "18:00", End: "19:30"}},
			true,
		},
		{
			"MultipleValid",
			[]schemas.TimeSlot{
				{Day: "Saturday", Start: "10:00", End: "12:00"},
				{Day: "Sunday", Start: "09:15", End: "09:45"},
			},
			true,
		},
		{
			"UnknownWeekday",
			[]schemas.TimeSlot{{Day: "Funday", Start: "18:00", End: "19:30"}},
			false,
		},
		{
			"LowercaseWeekday",
			[]schemas.TimeSlot{{Day: "monday", Start: "18:00", End: "19:30"}},
			false,
		},
		{
			"StartEqualsEnd",
			[]schemas.TimeSlot{{Day: "Monday", Start: "18:00", End: "18:00"}},
			false,
		},
		{
			"StartAfterEnd",
			[]schemas.TimeSlot{{Day: "Monday", Start: "20:00", End: "19:00"}},
			false,
		},
		{
			"UnparseableStart",
			[]schemas.TimeSlot{{Day: "Monday", Start: "6pm", End: "19:00"}},
			false,
		},
		{
			"UnparseableEnd",
			[]schemas.TimeSlot{{Day: "Monday", Start: "18:00", End: "25:61"}},
			false,
		},
		{
			"OneBadSlotAmongGood",
			[]schemas.TimeSlot{
				{Day: "Monday", Start: "18:00", End: "19:00"},
				{Day: "Tuesday", Start: "19:00", End: "18:00"},
			},
			false,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateTimeSlots(tc.slots)
			if tc.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestPasswordValidation(t *testing.T) {
	validate := GetValidator().Validate

	type passwordHolder struct {
		Password string `validate:"required,min=8,password_validation"`
	}

	testCases := []struct {
		name     string
		password string
		valid    bool
	}{
		{"Valid", "test.Password123", true},
		{"NoUpper", "test.password123", false},
		{"NoLower", "TEST.PASSWORD123", false},
		{"NoNumber", "test.Password", false},
		{"TooShort", "tP1.", false},
		{"NonAscii", "test.Pässword123", false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := validate.Struct(passwordHolder{Password: tc.password})
			if tc.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestTimeSlotValidationTag(t *testing.T) {
	validate := GetValidator().Validate

	type availabilityHolder struct {
		Availability []schemas.TimeSlot `validate:"omitempty,time_slot_validation"`
	}

	valid := availabilityHolder{Availability: []schemas.TimeSlot{{Day: "Friday", Start: "08:00", End: "10:00"}}}
	assert.NoError(t, validate.Struct(valid))

	invalid := availabilityHolder{Availability: []schemas.TimeSlot{{Day: "Friday", Start: "10:00", End: "08:00"}}}
	assert.Error(t, validate.Struct(invalid))
}

func TestSanitizeData(t *testing.T) {
	v := GetValidator()

	type nested struct {
		Comment string
	}
	type payload struct {
		Name   string
		Nested nested
		Slice  []nested
	}

	p := &payload{
		Name:   "<script>alert(1)</script>Alice",
		Nested: nested{Comment: "<b>bold</b> text"},
		Slice:  []nested{{Comment: "<i>hi</i>"}},
	}

	err := v.SanitizeData(p)
	assert.NoError(t, err)
	assert.Equal(t, "Alice", p.Name)
	assert.Equal(t, "bold text", p.Nested.Comment)
	assert.Equal(t, "hi", p.Slice[0].Comment)
}
