package config

import (
	"testing"
	"time"

	"scheddemo/constants"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ============================================================================
// POLICY PARSING
// ============================================================================

func TestParsePolicy(t *testing.T) {
	tests := []struct {
		in      string
		want    Policy
		wantErr bool
	}{
		{"FIFO", PolicyFIFO, false},
		{"fifo", PolicyFIFO, false},
		{" OTHER ", PolicyOther, false},
		{"other", PolicyOther, false},
		{"RR", 0, true},
		{"", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParsePolicy(tt.in)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrConfig)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParsePolicies_ReportsIndex(t *testing.T) {
	_, err := ParsePolicies([]string{"FIFO", "OTHER", "BATCH"})
	require.ErrorIs(t, err, ErrConfig)
	assert.Contains(t, err.Error(), "policy #2")

	got, err := ParsePolicies([]string{"FIFO", "OTHER"})
	require.NoError(t, err)
	assert.Equal(t, []Policy{PolicyFIFO, PolicyOther}, got)
}

func TestPolicy_TextRoundTrip(t *testing.T) {
	for _, p := range []Policy{PolicyFIFO, PolicyOther} {
		b, err := p.MarshalText()
		require.NoError(t, err)

		var back Policy
		require.NoError(t, back.UnmarshalText(b))
		assert.Equal(t, p, back)
	}

	_, err := Policy(7).MarshalText()
	assert.ErrorIs(t, err, ErrConfig)
}

// ============================================================================
// DESCRIPTOR NORMALIZATION
// ============================================================================

func TestNewDescriptor_OtherIgnoresPriority(t *testing.T) {
	d := NewDescriptor(0, PolicyOther, 99)
	assert.Equal(t, constants.PriorityNotApplicable, d.Priority)

	d = NewDescriptor(1, PolicyFIFO, 42)
	assert.Equal(t, 42, d.Priority)
	assert.Equal(t, 1, d.ID)
}

// ============================================================================
// RUN CONFIGURATION INVARIANTS
// ============================================================================

func TestNew_Valid(t *testing.T) {
	c, err := New(2, 500*time.Millisecond,
		[]Policy{PolicyFIFO, PolicyOther}, []int{10, 99},
		WithCore(3), WithRoundSync(true))
	require.NoError(t, err)

	assert.Equal(t, 2, c.Threads())
	assert.Equal(t, 500*time.Millisecond, c.WorkDuration())
	assert.Equal(t, 3, c.Core())
	assert.True(t, c.RoundSync())

	ds := c.Descriptors()
	require.Len(t, ds, 2)
	assert.Equal(t, Descriptor{ID: 0, Policy: PolicyFIFO, Priority: 10}, ds[0])
	assert.Equal(t, Descriptor{ID: 1, Policy: PolicyOther, Priority: constants.PriorityNotApplicable}, ds[1])
}

func TestNew_MismatchedLengths(t *testing.T) {
	_, err := New(3, time.Second, []Policy{PolicyFIFO, PolicyOther}, []int{1, 2, 3})
	require.ErrorIs(t, err, ErrConfig)

	_, err = New(2, time.Second, []Policy{PolicyFIFO, PolicyOther}, []int{1})
	require.ErrorIs(t, err, ErrConfig)
}

func TestNew_RejectsBadScalars(t *testing.T) {
	ok := []Policy{PolicyOther}
	pr := []int{0}

	_, err := New(0, time.Second, nil, nil)
	assert.ErrorIs(t, err, ErrConfig)

	_, err = New(1, -time.Second, ok, pr)
	assert.ErrorIs(t, err, ErrConfig)

	_, err = New(1, time.Second, ok, pr, WithCore(-1))
	assert.ErrorIs(t, err, ErrConfig)

	_, err = New(1, time.Second, []Policy{Policy(9)}, pr)
	assert.ErrorIs(t, err, ErrConfig)

	_, err = New(constants.MaxThreads+1, time.Second, nil, nil)
	assert.ErrorIs(t, err, ErrConfig)
}

func TestNew_CopiesInputs(t *testing.T) {
	policies := []Policy{PolicyFIFO}
	priorities := []int{10}
	c, err := New(1, time.Second, policies, priorities)
	require.NoError(t, err)

	policies[0] = PolicyOther
	priorities[0] = 50
	assert.Equal(t, []Policy{PolicyFIFO}, c.Policies())
	assert.Equal(t, []int{10}, c.Priorities())

	// Accessor results are copies too
	c.Priorities()[0] = 77
	assert.Equal(t, 10, c.Descriptors()[0].Priority)
}

// ============================================================================
// FINGERPRINT
// ============================================================================

func TestFingerprint_StableAndSensitive(t *testing.T) {
	a, err := New(2, time.Second, []Policy{PolicyFIFO, PolicyFIFO}, []int{10, 50})
	require.NoError(t, err)
	b, err := New(2, time.Second, []Policy{PolicyFIFO, PolicyFIFO}, []int{10, 50})
	require.NoError(t, err)
	c, err := New(2, time.Second, []Policy{PolicyFIFO, PolicyFIFO}, []int{50, 10})
	require.NoError(t, err)

	fa, err := a.Fingerprint()
	require.NoError(t, err)
	fb, err := b.Fingerprint()
	require.NoError(t, err)
	fc, err := c.Fingerprint()
	require.NoError(t, err)

	assert.Len(t, fa, 64)
	assert.Equal(t, fa, fb)
	assert.NotEqual(t, fa, fc)
}

func TestFingerprint_IgnoresOtherPriorities(t *testing.T) {
	a, err := New(1, time.Second, []Policy{PolicyOther}, []int{99})
	require.NoError(t, err)
	b, err := New(1, time.Second, []Policy{PolicyOther}, []int{1})
	require.NoError(t, err)

	fa, err := a.Fingerprint()
	require.NoError(t, err)
	fb, err := b.Fingerprint()
	require.NoError(t, err)
	assert.Equal(t, fa, fb, "time-sharing priority carries no meaning and must not change the fingerprint")
}
