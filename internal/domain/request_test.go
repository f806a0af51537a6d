package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validRequest() EvaluateCallRequest {
	return EvaluateCallRequest{
		CallID:      "call-123",
		AgentID:     "agent-7",
		CallContext: CallContextFirst,
		Transcript: TranscriptData{
			Transcript: "Agent: Hello, this is Sam from Pennie...",
			Metadata: TranscriptMetadata{
				Duration:    540,
				Timestamp:   time.Date(2025, 3, 14, 15, 9, 0, 0, time.UTC),
				TalkTime:    480,
				Disposition: "completed",
			},
		},
		IdealScript: "Section 1: Introduction...",
		ClientData: ClientData{
			LeadID:     "lead-42",
			CampaignID: 9,
			ScriptProgress: ScriptProgress{
				SectionsAttempted:    []int{1, 2, 3},
				LastCompletedSection: 3,
				TerminationReason:    "completed",
			},
		},
	}
}

func TestEvaluateCallRequest_Validate(t *testing.T) {
	t.Run("valid request passes", func(t *testing.T) {
		req := validRequest()
		require.NoError(t, req.Validate())
	})

	t.Run("missing call id fails", func(t *testing.T) {
		req := validRequest()
		req.CallID = ""
		err := req.Validate()
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrInvalidRequest)
	})

	t.Run("unknown call context fails", func(t *testing.T) {
		req := validRequest()
		req.CallContext = "Third Call"
		assert.Error(t, req.Validate())
	})

	t.Run("empty transcript fails", func(t *testing.T) {
		req := validRequest()
		req.Transcript.Transcript = ""
		assert.Error(t, req.Validate())
	})

	t.Run("no attempted sections fails", func(t *testing.T) {
		req := validRequest()
		req.ClientData.ScriptProgress.SectionsAttempted = nil
		assert.Error(t, req.Validate())
	})

	t.Run("financial profile is optional", func(t *testing.T) {
		req := validRequest()
		req.ClientData.FinancialProfile = nil
		require.NoError(t, req.Validate())

		income := 85000.0
		dti := 0.38
		req.ClientData.FinancialProfile = &FinancialProfile{
			AnnualIncome:       &income,
			DTIRatio:           &dti,
			LoanApprovalStatus: "pending",
		}
		require.NoError(t, req.Validate())
	})
}

func TestBelowTalkTimeThreshold(t *testing.T) {
	tests := []struct {
		name     string
		talkTime int64
		want     bool
	}{
		{"unreported talk time never skips", 0, false},
		{"one second short skips", 59, true},
		{"exactly at threshold does not skip", 60, false},
		{"well above threshold does not skip", 480, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validRequest()
			req.Transcript.Metadata.TalkTime = tt.talkTime
			assert.Equal(t, tt.want, req.BelowTalkTimeThreshold())
		})
	}
}

func TestSectionsToEvaluate(t *testing.T) {
	progress := ScriptProgress{SectionsAttempted: []int{1, 2, 5}}

	sections := progress.SectionsToEvaluate()
	assert.Equal(t, []int{1, 2, 5}, sections)

	// Mutating the returned slice must not touch the source.
	sections[0] = 99
	assert.Equal(t, []int{1, 2, 5}, progress.SectionsAttempted)
}

func TestEvaluateBatchRequest_Validate(t *testing.T) {
	t.Run("empty batch rejected", func(t *testing.T) {
		req := EvaluateBatchRequest{}
		assert.ErrorIs(t, req.Validate(), ErrEmptyBatch)
	})

	t.Run("valid batch passes", func(t *testing.T) {
		req := EvaluateBatchRequest{Calls: []EvaluateCallRequest{validRequest()}}
		require.NoError(t, req.Validate())
	})
}
