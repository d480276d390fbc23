package notify

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kevenm/barber-booking/internal/booking"
)

func TestWhatsAppLink(t *testing.T) {
	prof := &booking.Professional{
		Name:        "Barbearia Sarty",
		PhoneNumber: "+55 (11) 99999-0000",
	}

	link := WhatsAppLink(prof, "Ana", "2025-09-10", "14:00")

	// Phone is reduced to digits for the wa.me path.
	assert.True(t, strings.HasPrefix(link, "https://wa.me/5511999990000?text="), link)

	// The message carries the client name, the dd/MM/yyyy date and the time.
	assert.Contains(t, link, "Ana")
	assert.Contains(t, link, "10%2F09%2F2025")
	assert.Contains(t, link, "14%3A00")
}

func TestWhatsAppLinkWithoutPhone(t *testing.T) {
	prof := &booking.Professional{Name: "Barbearia Sarty"}
	assert.Empty(t, WhatsAppLink(prof, "Ana", "2025-09-10", "14:00"))

	prof.PhoneNumber = "no digits here"
	assert.Empty(t, WhatsAppLink(prof, "Ana", "2025-09-10", "14:00"))
}

func TestWhatsAppLinkKeepsUnparseableDateAsIs(t *testing.T) {
	prof := &booking.Professional{PhoneNumber: "5511999990000"}
	link := WhatsAppLink(prof, "Ana", "not-a-date", "14:00")
	assert.Contains(t, link, "not-a-date")
}
