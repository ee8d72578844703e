package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWalletPolicy_Classify(t *testing.T) {
	p := DefaultWalletPolicy()

	tests := []struct {
		balance int64
		want    WalletStatus
	}{
		{30_000, WalletStatusNormal},
		{0, WalletStatusNormal},
		{-10_000, WalletStatusNormal},
		{-50_000, WalletStatusNormal},
		{-50_001, WalletStatusWarning},
		{-55_000, WalletStatusWarning},
		{-100_000, WalletStatusWarning},
		{-100_001, WalletStatusLocked},
		{-120_000, WalletStatusLocked},
	}

	for _, tt := range tests {
		t.Run(FormatAmount(tt.balance), func(t *testing.T) {
			assert.Equal(t, tt.want, p.Classify(tt.balance))
			// deterministic for the same input
			assert.Equal(t, p.Classify(tt.balance), p.Classify(tt.balance))
		})
	}
}

func TestWalletPolicy_Evaluate_Normal(t *testing.T) {
	d := DefaultWalletPolicy().Evaluate(-10_000)

	assert.Equal(t, WalletStatusNormal, d.Status)
	assert.False(t, d.Locked)
	assert.Nil(t, d.LockReason)
	assert.Nil(t, d.Notice)
}

func TestWalletPolicy_Evaluate_Warning(t *testing.T) {
	d := DefaultWalletPolicy().Evaluate(-55_000)

	assert.Equal(t, WalletStatusWarning, d.Status)
	assert.False(t, d.Locked)
	assert.Nil(t, d.LockReason)
	require.NotNil(t, d.Notice)
	assert.Equal(t, NotificationWalletWarning, d.Notice.Category)
	assert.Equal(t, int64(55_000), d.Notice.Amount)
	assert.Contains(t, d.Notice.Body, "55,000")
}

func TestWalletPolicy_Evaluate_Locked(t *testing.T) {
	d := DefaultWalletPolicy().Evaluate(-105_000)

	assert.Equal(t, WalletStatusLocked, d.Status)
	assert.True(t, d.Locked)
	require.NotNil(t, d.LockReason)
	assert.Contains(t, *d.LockReason, "105,000")
	require.NotNil(t, d.Notice)
	assert.Equal(t, NotificationWalletLocked, d.Notice.Category)
	assert.Equal(t, int64(105_000), d.Notice.Amount)

	state := d.State()
	assert.Equal(t, int64(-105_000), state.Balance)
	assert.True(t, state.Locked)
	assert.Equal(t, d.LockReason, state.LockReason)
}

func TestWalletPolicy_CustomThresholds(t *testing.T) {
	p := WalletPolicy{SoftThreshold: -1_000, HardThreshold: -2_000}
	require.NoError(t, p.Validate())

	assert.Equal(t, WalletStatusWarning, p.Classify(-1_500))
	assert.Equal(t, WalletStatusLocked, p.Classify(-2_001))
}

func TestWalletPolicy_Validate(t *testing.T) {
	err := WalletPolicy{SoftThreshold: -100, HardThreshold: -50}.Validate()
	assert.ErrorIs(t, err, ErrInvalidThresholds)
}

func TestTransition(t *testing.T) {
	p := DefaultWalletPolicy()
	reason := "locked"

	tests := []struct {
		name         string
		prev         WalletState
		balance      int64
		wantLocked   bool
		wantUnlocked bool
	}{
		{"normal to normal", WalletState{Balance: 0}, -10_000, false, false},
		{"warning to locked", WalletState{Balance: -95_000}, -105_000, true, false},
		{"locked stays locked", WalletState{Balance: -110_000, Locked: true, LockReason: &reason}, -120_000, false, false},
		{"locked to normal", WalletState{Balance: -120_000, Locked: true, LockReason: &reason}, 30_000, false, true},
		{"locked to warning unlocks", WalletState{Balance: -120_000, Locked: true, LockReason: &reason}, -90_000, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := Transition(tt.prev, p.Evaluate(tt.balance))
			assert.Equal(t, tt.wantLocked, tr.Locked)
			assert.Equal(t, tt.wantUnlocked, tr.Unlocked)
		})
	}
}
