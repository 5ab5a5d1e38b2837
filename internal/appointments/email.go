package appointments

import (
	"fmt"
	"strings"

	"github.com/crestline/estatesite/internal/notify"
)

func companyNotification(companyEmail string, a *Appointment) notify.Message {
	var b strings.Builder
	b.WriteString("A new viewing appointment was requested.\n\n")
	writeDetails(&b, a)

	return notify.Message{
		To:      companyEmail,
		ReplyTo: a.Email,
		Subject: fmt.Sprintf("New appointment request from %s", a.CompanyName),
		Body:    b.String(),
	}
}

func requesterConfirmation(a *Appointment) notify.Message {
	var b strings.Builder
	fmt.Fprintf(&b, "Dear %s,\n\n", a.CompanyName)
	b.WriteString("Thank you for your interest. We received your appointment request ")
	b.WriteString("and our leasing team will contact you to confirm it.\n\n")
	writeDetails(&b, a)

	return notify.Message{
		To:      a.Email,
		Subject: "We received your appointment request",
		Body:    b.String(),
	}
}

func writeDetails(b *strings.Builder, a *Appointment) {
	fmt.Fprintf(b, "Company: %s\n", a.CompanyName)
	fmt.Fprintf(b, "Phone: %s\n", a.PhoneNumber)
	fmt.Fprintf(b, "Email: %s\n", a.Email)
	fmt.Fprintf(b, "Preferred date: %s\n", a.PreferredDate)
	fmt.Fprintf(b, "Preferred time: %s\n", a.PreferredTime)
	if a.Property != "" {
		fmt.Fprintf(b, "Property: %s\n", a.Property)
	}
	if a.Floor != "" {
		fmt.Fprintf(b, "Floor: %s\n", a.Floor)
	}
	if a.AdditionalNotes != "" {
		fmt.Fprintf(b, "Notes: %s\n", a.AdditionalNotes)
	}
}
