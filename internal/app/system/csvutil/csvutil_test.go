package csvutil

import (
	"bytes"
	"encoding/csv"
	"testing"
	"time"

	"github.com/dalemusser/fleethub/internal/domain/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestWriteServiceRecords(t *testing.T) {
	created := time.Date(2026, 3, 15, 9, 30, 0, 0, time.UTC)
	records := []models.ServiceRecord{
		{
			PerformedBy:      "Dale's Diesel",
			Description:      "500h service, \"full\" kit",
			HoursAtService:   500,
			NextServiceHours: 750,
			Parts:            []string{"oil filter", "air filter"},
			CreatedAt:        created,
		},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteServiceRecords(&buf, records))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, []string{
		"date", "performed_by", "description",
		"hours_at_service", "next_service_hours", "parts",
	}, rows[0])
	assert.Equal(t, []string{
		"2026-03-15T09:30:00Z",
		"Dale's Diesel",
		`500h service, "full" kit`,
		"500", "750",
		"oil filter; air filter",
	}, rows[1])
}

func TestWriteServiceRecords_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteServiceRecords(&buf, nil))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	assert.Len(t, rows, 1, "empty history still gets a header row")
}

func TestWriteFuelEntries(t *testing.T) {
	machineID := primitive.NewObjectID()
	created := time.Date(2026, 3, 16, 7, 0, 0, 0, time.UTC)
	entries := []models.FuelEntry{
		{
			Kind:         models.FuelDispense,
			Amount:       42.5,
			OperatorName: "Pat Example",
			MachineID:    &machineID,
			Note:         "morning fill",
			CreatedAt:    created,
		},
		{
			Kind:         models.FuelDelivery,
			Amount:       2000,
			OperatorName: "Depot",
			CreatedAt:    created,
		},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteFuelEntries(&buf, entries))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, []string{
		"2026-03-16T07:00:00Z", "dispense", "42.5",
		"Pat Example", machineID.Hex(), "morning fill",
	}, rows[1])
	// Deliveries carry no machine.
	assert.Equal(t, "", rows[2][4])
	assert.Equal(t, "2000", rows[2][2])
}
