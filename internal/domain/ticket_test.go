package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormatReference(t *testing.T) {
	assert.Equal(t, "T-000001", FormatReference(1))
	assert.Equal(t, "T-000042", FormatReference(42))
	assert.Equal(t, "T-1000000", FormatReference(1000000))
}

func TestParseTicketPriority(t *testing.T) {
	for _, valid := range []string{"LOW", "MEDIUM", "HIGH"} {
		got, ok := ParseTicketPriority(valid)
		assert.True(t, ok)
		assert.Equal(t, TicketPriority(valid), got)
	}
	_, ok := ParseTicketPriority("URGENT")
	assert.False(t, ok)
	_, ok = ParseTicketPriority("")
	assert.False(t, ok)
}

func TestTicketIsOpen(t *testing.T) {
	for status, open := range map[TicketStatus]bool{
		TicketStatusNew:        true,
		TicketStatusAssigned:   true,
		TicketStatusInProgress: true,
		TicketStatusOnHold:     true,
		TicketStatusReopened:   true,
		TicketStatusResolved:   false,
		TicketStatusClosed:     false,
	} {
		ticket := &Ticket{Status: status}
		assert.Equal(t, open, ticket.IsOpen(), string(status))
	}
}

func TestSLADurationFallback(t *testing.T) {
	hours := 4
	withTarget := &IssueCategory{SLAHours: &hours}
	assert.Equal(t, 4*time.Hour, withTarget.SLADuration())

	noTarget := &IssueCategory{}
	assert.Equal(t, time.Duration(DefaultSLAHours)*time.Hour, noTarget.SLADuration())

	var missing *IssueCategory
	assert.Equal(t, time.Duration(DefaultSLAHours)*time.Hour, missing.SLADuration())
}
