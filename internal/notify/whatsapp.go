package notify

import (
	"fmt"
	"net/url"
	"strings"
	"time"
	"unicode"

	"github.com/kevenm/barber-booking/internal/booking"
)

// WhatsAppLink builds the pre-formatted wa.me hand-off offered after a
// successful booking. The link is opened by the client, never sent by the
// system. Returns "" when the professional has no phone number on file.
func WhatsAppLink(prof *booking.Professional, clientName, date, timeOfDay string) string {
	digits := onlyDigits(prof.PhoneNumber)
	if digits == "" {
		return ""
	}

	message := fmt.Sprintf(
		"Olá! Gostaria de confirmar meu agendamento:\n\nNome: %s\nData: %s\nHorário: %s",
		clientName, displayDate(date), timeOfDay,
	)

	return "https://wa.me/" + digits + "?text=" + url.QueryEscape(message)
}

// displayDate renders YYYY-MM-DD as dd/MM/yyyy for the message body.
func displayDate(date string) string {
	t, err := time.Parse("2006-01-02", date)
	if err != nil {
		return date
	}
	return t.Format("02/01/2006")
}

func onlyDigits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}
