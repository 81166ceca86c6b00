package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStageName(t *testing.T) {
	assert.Equal(t, "Initial Contact", StageName(FirstStage))
	assert.Equal(t, "Closing", StageName(FinalStage))
	assert.Equal(t, "", StageName(-1))
	assert.Equal(t, "", StageName(FinalStage+1))
	assert.Equal(t, 7, len(StageNames))
}

func TestValidStatus(t *testing.T) {
	for _, s := range []string{StatusActive, StatusPaused, StatusClosed} {
		assert.True(t, ValidStatus(s), s)
	}
	assert.False(t, ValidStatus(""))
	assert.False(t, ValidStatus("archived"))
}

func TestValidImportance(t *testing.T) {
	for _, s := range []string{ImportanceLow, ImportanceMedium, ImportanceHigh} {
		assert.True(t, ValidImportance(s), s)
	}
	assert.False(t, ValidImportance("critical"))
}

func TestCommentListRoundTrip(t *testing.T) {
	list := CommentList{
		{ID: 1700000000000, Text: "intro call went well", CreatedAt: time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)},
		{ID: 1700000000001, Text: "sent deck", CreatedAt: time.Date(2025, 6, 2, 9, 30, 0, 0, time.UTC)},
	}

	v, err := list.Value()
	require.NoError(t, err)

	var out CommentList
	require.NoError(t, out.Scan(v))
	require.Len(t, out, 2)
	assert.Equal(t, list[0].ID, out[0].ID)
	assert.Equal(t, "sent deck", out[1].Text)
	assert.True(t, list[1].CreatedAt.Equal(out[1].CreatedAt))
}

func TestCommentListScan(t *testing.T) {
	t.Run("nil column", func(t *testing.T) {
		var out CommentList
		require.NoError(t, out.Scan(nil))
		assert.NotNil(t, out)
		assert.Len(t, out, 0)
	})

	t.Run("byte slice", func(t *testing.T) {
		var out CommentList
		require.NoError(t, out.Scan([]byte(`[{"id":7,"text":"hi"}]`)))
		require.Len(t, out, 1)
		assert.Equal(t, int64(7), out[0].ID)
	})

	t.Run("unsupported type", func(t *testing.T) {
		var out CommentList
		assert.Error(t, out.Scan(42))
	})
}

func TestCommentListNextID(t *testing.T) {
	t.Run("empty list uses the clock", func(t *testing.T) {
		var list CommentList
		assert.Equal(t, int64(1000), list.NextID(1000))
	})

	t.Run("collision bumps past the max", func(t *testing.T) {
		list := CommentList{{ID: 1000}, {ID: 1001}}
		assert.Equal(t, int64(1002), list.NextID(1000))
	})

	t.Run("clock ahead of existing ids wins", func(t *testing.T) {
		list := CommentList{{ID: 10}}
		assert.Equal(t, int64(5000), list.NextID(5000))
	})
}

func TestStringListRoundTrip(t *testing.T) {
	list := StringList{"fintech", "b2b saas"}

	v, err := list.Value()
	require.NoError(t, err)

	var out StringList
	require.NoError(t, out.Scan(v))
	assert.Equal(t, list, out)

	var empty StringList
	v, err = empty.Value()
	require.NoError(t, err)
	assert.Equal(t, "[]", v)
}

func TestInvestorAmountOrZero(t *testing.T) {
	inv := Investor{}
	assert.True(t, inv.AmountOrZero().IsZero())

	amt := decimal.NewFromInt(250000)
	inv.InvestmentAmount = &amt
	assert.True(t, inv.AmountOrZero().Equal(amt))
}

func TestInvestorAtFinalStage(t *testing.T) {
	inv := Investor{CurrentStep: FinalStage}
	assert.True(t, inv.AtFinalStage())
	inv.CurrentStep = FinalStage - 1
	assert.False(t, inv.AtFinalStage())
}
