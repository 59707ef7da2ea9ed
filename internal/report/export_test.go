package report

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/peterfiasco/easylawBe-sub000/internal/domain"
)

func TestRequestsWorkbookRows(t *testing.T) {
	created := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	data, err := RequestsWorkbook([]domain.ServiceRequest{{
		ReferenceNumber:     "DD1772445600000ABC123",
		ServiceType:         domain.ServiceTypeDueDiligence,
		ServiceSubtype:      "individual",
		Priority:            domain.PriorityStandard,
		Status:              domain.StatusSubmitted,
		TotalAmount:         domain.NGN(20000),
		PaymentStatus:       domain.PaymentUnpaid,
		EstimatedCompletion: created.AddDate(0, 0, 3),
		CreatedAt:           created,
	}})
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(requestsSheet)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, requestHeaders, rows[0])
	assert.Equal(t, "DD1772445600000ABC123", rows[1][0])
	assert.Equal(t, "20000", rows[1][5])
	assert.Equal(t, "2026-03-05T10:00:00Z", rows[1][8])
	assert.Equal(t, "", rows[1][9])
}

func TestRequestsWorkbookEmpty(t *testing.T) {
	data, err := RequestsWorkbook(nil)
	require.NoError(t, err)
	assert.NotEmpty(t, data)
}
