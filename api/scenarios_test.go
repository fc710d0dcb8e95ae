/*
scenarios_test.go - Unit tests for demo scenarios

PURPOSE:
	Tests that each scenario correctly sets up the expected state:
	- Accounts are created
	- Schedules are generated (or not)
	- Recorded deposits reconcile to the expected remaining amount

These tests ensure scenarios work correctly and can be used as integration tests.
*/
package api

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (s *testServer) load(id string) []AccountDTO {
	s.t.Helper()
	rec := s.do(http.MethodPost, "/api/scenarios/load", map[string]string{"scenario_id": id})
	require.Equal(s.t, http.StatusOK, rec.Code, rec.Body.String())

	rec = s.do(http.MethodGet, "/api/accounts", nil)
	require.Equal(s.t, http.StatusOK, rec.Code)
	return decode[[]AccountDTO](s.t, rec)
}

func TestScenarios_AllLoad(t *testing.T) {
	s := setupTestServer(t)

	rec := s.do(http.MethodGet, "/api/scenarios", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[[]ScenarioDTO](t, rec)
	require.Len(t, list, len(scenarioLoaders))

	for _, sc := range list {
		accounts := s.load(sc.ID)
		assert.NotEmpty(t, accounts, sc.ID)

		rec := s.do(http.MethodGet, "/api/scenarios/current", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, sc.ID, decode[ScenarioDTO](t, rec).ID)
	}
}

func TestScenario_SingleAccount(t *testing.T) {
	s := setupTestServer(t)

	accounts := s.load("single-account")

	require.Len(t, accounts, 1)
	a := accounts[0]
	assert.Equal(t, 12, a.TotalInstallments)
	assert.Equal(t, 3, a.PaidInstallments)
	assert.Equal(t, 12000.0, a.TotalInvestmentAmount)
	assert.Equal(t, 9000.0, a.LeftInvestmentAmount)
}

func TestScenario_Overpaid(t *testing.T) {
	s := setupTestServer(t)

	accounts := s.load("overpaid")

	require.Len(t, accounts, 1)
	assert.Equal(t, -1500.0, accounts[0].LeftInvestmentAmount)
}

func TestScenario_NoSchedule(t *testing.T) {
	s := setupTestServer(t)

	accounts := s.load("no-schedule")

	require.Len(t, accounts, 2)
	for _, a := range accounts {
		assert.Zero(t, a.TotalInstallments)
	}
}

func TestScenario_LoadReplacesData(t *testing.T) {
	s := setupTestServer(t)
	s.load("mixed-portfolio")

	accounts := s.load("single-account")
	assert.Len(t, accounts, 1)
}

func TestScenario_UnknownAndReset(t *testing.T) {
	s := setupTestServer(t)

	rec := s.do(http.MethodPost, "/api/scenarios/load", map[string]string{"scenario_id": "nope"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodPost, "/api/scenarios/load", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	s.load("mixed-portfolio")
	rec = s.do(http.MethodPost, "/api/scenarios/reset", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(http.MethodGet, "/api/accounts", nil)
	assert.Empty(t, decode[[]AccountDTO](t, rec))

	rec = s.do(http.MethodGet, "/api/scenarios/current", nil)
	assert.Equal(t, "null\n", rec.Body.String())
}
