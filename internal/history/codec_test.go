package history

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carelog/patient-api/internal/model"
	apperrors "github.com/carelog/patient-api/pkg/errors"
)

func floatPtr(f float64) *float64 { return &f }

func TestDecodeEmpty(t *testing.T) {
	events, err := Decode("")
	require.NoError(t, err)
	assert.Empty(t, events)

	events, err = Decode("null")
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestDecodeCorrupt(t *testing.T) {
	_, err := Decode("{not json")
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCorruptData))

	_, err = Decode(`{"type":"visit"}`)
	require.Error(t, err, "an object is not a valid history sequence")
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCorruptData))
}

func TestRoundTrip(t *testing.T) {
	cases := map[string][]model.Event{
		"empty": {},
		"single visit": {
			{Type: model.EventTypeVisit, Date: "2025-10-22T10:00:00Z", Purpose: "checkup"},
		},
		"mixed variants": {
			{Type: model.EventTypeVisit, Date: "2025-10-22T10:00:00Z", Purpose: "checkup",
				MentalHealthScore: floatPtr(7), Prescription: "rest"},
			{Type: model.EventTypePayment, Date: "2025-10-23T09:30:00Z",
				Amount: floatPtr(350), Method: "UPI"},
			{Type: model.EventTypeVisit, Purpose: "follow-up"},
		},
	}

	for name, events := range cases {
		t.Run(name, func(t *testing.T) {
			raw, err := Encode(events)
			require.NoError(t, err)

			decoded, err := Decode(raw)
			require.NoError(t, err)
			assert.Equal(t, events, decoded)
		})
	}
}

func TestEncodeNil(t *testing.T) {
	raw, err := Encode(nil)
	require.NoError(t, err)
	assert.Equal(t, "[]", raw)
}

func TestAppendPreservesOrder(t *testing.T) {
	raw, err := Append("", model.NewVisitEvent("", "checkup", nil, ""))
	require.NoError(t, err)

	raw, err = Append(raw, model.NewPaymentEvent(120, "card"))
	require.NoError(t, err)

	events, err := Decode(raw)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, model.EventTypeVisit, events[0].Type)
	assert.Equal(t, "checkup", events[0].Purpose)
	assert.Equal(t, model.EventTypePayment, events[1].Type)
	assert.Equal(t, "card", events[1].Method)
	assert.True(t, events[0].ValidDate())
	assert.True(t, events[1].ValidDate())
}

func TestAppendCorruptBlob(t *testing.T) {
	_, err := Append("not json", model.NewVisitEvent("", "checkup", nil, ""))
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCorruptData))
}
