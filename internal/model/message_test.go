package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func validMessage() *Message {
	return &Message{
		ID:                "m1",
		Class:             MEDIUM,
		Payload:           NewTextPayload("hello"),
		BandwidthRequired: 5.0,
		Time: TimeConstraints{
			MaxLatency: time.Second,
			Timeout:    time.Second,
		},
	}
}

func TestMessage_Validate_AcceptsBandwidthCoveringPayloadSize(t *testing.T) {
	m := validMessage()
	assert.NoError(t, m.Validate())
}

func TestMessage_Validate_RejectsBandwidthBelowPayloadSize(t *testing.T) {
	m := validMessage()
	m.BandwidthRequired = 1.0 // payload is 5 bytes
	assert.ErrorIs(t, m.Validate(), ErrInvalidInput)
}

func TestMessage_Validate_RejectsNonPositiveBandwidth(t *testing.T) {
	m := validMessage()
	m.Payload = Payload{}
	m.BandwidthRequired = 0
	assert.ErrorIs(t, m.Validate(), ErrInvalidInput)
}

func TestMessage_Validate_RejectsMissingID(t *testing.T) {
	m := validMessage()
	m.ID = ""
	assert.ErrorIs(t, m.Validate(), ErrInvalidInput)
}
