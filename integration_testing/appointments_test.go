//go:build integration_test

package integration_testing

import (
	"context"
	"fmt"
	"net/http"

	"github.com/crestline/estatesite/internal/appointments"
)

func (s *IntegrationTestSuite) TestAppointmentLifecycle() {
	ctx := context.Background()
	clerk := s.newClient(ctx, adminUsername, adminPassword)

	resp := s.call(ctx, http.MethodPost, "/api/appointments/send-appointment", "", map[string]string{
		"companyName":   "Northwind Traders",
		"phoneNumber":   "+1 555 0100",
		"email":         "ops@northwind.test",
		"preferredDate": "2026-11-03",
		"preferredTime": "10:30",
		"property":      "Harbor Tower",
	})
	s.Require().Equal(http.StatusCreated, resp.status, string(resp.body))
	var booked struct {
		Appointment appointments.Appointment `json:"appointment"`
	}
	s.Require().NoError(resp.decode(&booked))
	s.Equal(appointments.StatusPending, booked.Appointment.Status)

	resp = s.call(ctx, http.MethodPost, "/api/appointments/send-appointment", "", map[string]string{"companyName": "x"})
	s.Equal(http.StatusBadRequest, resp.status)

	pending, err := clerk.Appointments(ctx, appointments.StatusPending)
	s.Require().NoError(err)
	s.Require().NotEmpty(pending)

	id := booked.Appointment.ID
	for range 2 {
		updated, err := clerk.UpdateAppointmentStatus(ctx, id, appointments.StatusConfirmed)
		s.Require().NoError(err)
		s.Equal(appointments.StatusConfirmed, updated.Status)
	}

	path := fmt.Sprintf("/api/admin/appointments/%d", id)
	resp = s.call(ctx, http.MethodDelete, path, clerk.Token(), nil)
	s.Equal(http.StatusOK, resp.status)
	resp = s.call(ctx, http.MethodDelete, path, clerk.Token(), nil)
	s.Equal(http.StatusNotFound, resp.status)
	resp = s.call(ctx, http.MethodDelete, "/api/admin/appointments/999999", clerk.Token(), nil)
	s.Equal(http.StatusNotFound, resp.status)
}
