package email

import (
	"fmt"
	"strings"
)

type Message struct {
	Subject string
	Body    string
}

// BookingDetails is what a booking email shows about the reservation.
type BookingDetails struct {
	CommunityName string
	Date          string
	TimeRange     string
	Court         int
	BookedBy      string
}

func BuildBookingConfirmation(details BookingDetails) Message {
	return buildBookingMessage(
		"Court Booking Received",
		"Your court booking has been received and is pending confirmation.",
		details,
	)
}

func BuildBookingReminder(details BookingDetails) Message {
	return buildBookingMessage(
		"Upcoming Court Booking",
		"Reminder: your court booking is coming up.",
		details,
	)
}

func BuildBookingCancellation(details BookingDetails) Message {
	return buildBookingMessage(
		"Court Booking Cancelled",
		"Your court booking has been cancelled.",
		details,
	)
}

func buildBookingMessage(subject, lead string, details BookingDetails) Message {
	communityName := orDefault(details.CommunityName, "your community")
	court := "TBD"
	if details.Court > 0 {
		court = fmt.Sprintf("Court %d", details.Court)
	}

	lines := []string{
		lead,
		"",
		fmt.Sprintf("Community: %s", communityName),
		fmt.Sprintf("Date: %s", orDefault(details.Date, "TBD")),
		fmt.Sprintf("Time: %s", orDefault(details.TimeRange, "TBD")),
		fmt.Sprintf("Court: %s", court),
	}
	if bookedBy := strings.TrimSpace(details.BookedBy); bookedBy != "" {
		lines = append(lines, fmt.Sprintf("Booked by: %s", bookedBy))
	}

	return Message{
		Subject: fmt.Sprintf("%s - %s", subject, communityName),
		Body:    strings.Join(lines, "\n"),
	}
}

func orDefault(value, fallback string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return fallback
	}
	return value
}
