package queue

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MarianKovalyshyn/planetarium-api-service/internal/logger"
)

func sampleEvent() ReservationCreatedEvent {
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	return ReservationCreatedEvent{
		ReservationID: 7,
		UserID:        3,
		CreatedAt:     at,
		Tickets: []EventTicket{
			{TicketID: 1, SessionID: 2, ShowTitle: "Cosmos", DomeName: "Main", ShowTime: at.Add(6 * time.Hour), Row: 1, Seat: 4},
		},
	}
}

func TestFormatLine(t *testing.T) {
	line := FormatLine(sampleEvent())
	assert.True(t, strings.HasSuffix(line, "\n"))
	assert.Contains(t, line, "reservation_id=7")
	assert.Contains(t, line, "user_id=3")
	assert.Contains(t, line, `session=2 "Cosmos" @ "Main" 2024-05-01T18:00:00Z row=1 seat=4`)
}

func TestHandleMessageAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "reservations.log")
	c := NewConsumer("amqp://unused", path, logger.Discard())

	body, err := json.Marshal(sampleEvent())
	require.NoError(t, err)
	require.NoError(t, c.HandleMessage(body))
	require.NoError(t, c.HandleMessage(body))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(string(data), "Reservation created"))
}

func TestHandleMessageRejectsGarbage(t *testing.T) {
	c := NewConsumer("amqp://unused", filepath.Join(t.TempDir(), "r.log"), logger.Discard())
	assert.Error(t, c.HandleMessage([]byte("{not json")))
}
