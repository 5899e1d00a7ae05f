package utils

import (
	"fmt"
	"time"

	qrcode "github.com/skip2/go-qrcode"
)

// TicketQRPayload is the text encoded into a ticket's check-in QR code.
func TicketQRPayload(reservationID, ticketID, sessionID uint64, row, seat int, showTime time.Time) string {
	return fmt.Sprintf("PLANETARIUM|R%d|T%d|S%d|ROW%d|SEAT%d|%s",
		reservationID, ticketID, sessionID, row, seat, showTime.UTC().Format(time.RFC3339))
}

// QRCodePNG renders content as a size x size PNG.
func QRCodePNG(content string, size int) ([]byte, error) {
	qr, err := qrcode.New(content, qrcode.Medium)
	if err != nil {
		return nil, fmt.Errorf("qr encode: %w", err)
	}
	png, err := qr.PNG(size)
	if err != nil {
		return nil, fmt.Errorf("qr png: %w", err)
	}
	return png, nil
}
