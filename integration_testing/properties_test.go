//go:build integration_test

package integration_testing

import (
	"context"
	"net/http"

	"github.com/crestline/estatesite/internal/adminclient"
	"github.com/crestline/estatesite/internal/properties"
	"github.com/crestline/estatesite/internal/properties/editor"
)

func (s *IntegrationTestSuite) TestUnitEditorRoundTrip() {
	ctx := context.Background()
	root := s.newClient(ctx, superAdminUsername, superAdminPassword)

	resp := s.call(ctx, http.MethodPost, "/api/admin/buildings", root.Token(), properties.Building{
		ID:      "harbor",
		Name:    "Harbor Tower",
		Prefix:  "HT",
		Address: "1 Quay Street",
	})
	s.Require().Equal(http.StatusCreated, resp.status, string(resp.body))

	// warm the public listing cache
	units, err := root.EditorUnits(ctx, "harbor")
	s.Require().NoError(err)
	s.Empty(units)
	resp = s.call(ctx, http.MethodGet, "/api/buildings/harbor/units", "", nil)
	s.Require().Equal(http.StatusOK, resp.status)

	shell := adminclient.NewShell(adminclient.NewClient(serverEndpoint, nil), adminclient.NewMemorySessionStore())
	_, err = shell.Login(ctx, adminUsername, adminPassword)
	s.Require().NoError(err)

	_, err = shell.Navigate(ctx, adminclient.SectionProperties)
	s.Require().NoError(err)
	ws := shell.Workspace()
	_, err = ws.SwitchTab("harbor")
	s.Require().NoError(err)

	ed := ws.Active()
	first := ed.Add(editor.DefaultUnitForm())
	second := ed.Add(editor.DefaultUnitForm())
	s.Equal("HT-1", first.ID())
	s.Equal("HT-2", second.ID())
	s.Require().NoError(ed.Edit("HT-2", editor.FieldPrice, 2400.0))
	s.Require().NoError(ed.Edit("HT-2", editor.FieldCondition, "Fitted"))

	pending, err := shell.Navigate(ctx, adminclient.SectionAppointments)
	s.Require().NoError(err)
	s.Require().NotNil(pending)
	s.Require().NoError(pending.Resolve(ctx, editor.SaveThenProceed))
	s.Equal(adminclient.SectionAppointments, shell.Current())

	resp = s.call(ctx, http.MethodGet, "/api/buildings/harbor/units", "", nil)
	s.Require().Equal(http.StatusOK, resp.status)
	var listed struct {
		Units []properties.Unit `json:"units"`
	}
	s.Require().NoError(resp.decode(&listed))
	s.Require().Len(listed.Units, 2)
	s.Equal("HT-1", listed.Units[0].ID)
	s.Equal(2400.0, listed.Units[1].Price)
	s.Equal(properties.ConditionFitted, listed.Units[1].Condition)

	var stored int
	s.Require().NoError(s.DB.QueryRow(`SELECT count(*) FROM unit WHERE building_id = 'harbor'`).Scan(&stored))
	s.Equal(2, stored)

	// a second editor that discards leaves the stored set alone
	_, err = shell.Navigate(ctx, adminclient.SectionProperties)
	s.Require().NoError(err)
	ed = shell.Workspace().Active()
	_, err = ed.Remove("HT-1", func(properties.Unit) bool { return true })
	s.Require().NoError(err)
	pending, err = shell.Navigate(ctx, adminclient.SectionDashboard)
	s.Require().NoError(err)
	s.Require().NotNil(pending)
	s.Require().NoError(pending.Resolve(ctx, editor.DiscardThenProceed))

	s.Require().NoError(s.DB.QueryRow(`SELECT count(*) FROM unit WHERE building_id = 'harbor'`).Scan(&stored))
	s.Equal(2, stored)
}
