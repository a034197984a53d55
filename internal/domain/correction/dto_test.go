package correction

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestSubmitRequest_Validate(t *testing.T) {
	tests := []struct {
		name    string
		req     SubmitRequest
		wantErr string
	}{
		{"missed punch in ok", SubmitRequest{Type: TypeMissedPunchIn, Date: "2025-01-06", RequestedTime: strPtr("09:10"), Reason: "forgot"}, ""},
		{"missing time", SubmitRequest{Type: TypeMissedPunchOut, Date: "2025-01-06", Reason: "forgot"}, "requested_time"},
		{"bad type", SubmitRequest{Type: "OTHER", Date: "2025-01-06", Reason: "x"}, "type"},
		{"bad date", SubmitRequest{Type: TypeAttendanceMiss, Date: "06/01/2025", Reason: "x"}, "date"},
		{"end date on non leave", SubmitRequest{Type: TypeAttendanceMiss, Date: "2025-01-06", EndDate: strPtr("2025-01-07"), Reason: "x"}, "end_date"},
		{"leave ok", SubmitRequest{Type: TypeLeaveRequest, Date: "2025-01-06", EndDate: strPtr("2025-01-08"), Reason: "trip"}, ""},
		{"no reason", SubmitRequest{Type: TypeAttendanceMiss, Date: "2025-01-06"}, "reason"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestSubmitRequest_ParsedDates(t *testing.T) {
	req := SubmitRequest{Type: TypeLeaveRequest, Date: "2025-01-06", EndDate: strPtr("2025-01-08"), Reason: "trip"}
	require.NoError(t, req.Validate())
	assert.Equal(t, 6, req.ParsedDate().Day())
	require.NotNil(t, req.ParsedEndDate())
	assert.Equal(t, 8, req.ParsedEndDate().Day())
}

func TestReviewRequest_Validate(t *testing.T) {
	ok := ReviewRequest{ID: "c1", Decision: DecisionApprove}
	require.NoError(t, ok.Validate())

	reject := ReviewRequest{ID: "c1", Decision: DecisionReject}
	assert.ErrorContains(t, reject.Validate(), "review_reason")

	bad := ReviewRequest{ID: "c1", Decision: "MAYBE", ApprovedTime: strPtr("9")}
	err := bad.Validate()
	assert.ErrorContains(t, err, "decision")
	assert.ErrorContains(t, err, "approved_time")
}
