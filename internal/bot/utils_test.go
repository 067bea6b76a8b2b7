package bot

import (
	"testing"
	"time"

	"github.com/2024luvyavarliani-boop/Upcyclee/internal/listing"
	"github.com/2024luvyavarliani-boop/Upcyclee/internal/llm"
	"github.com/2024luvyavarliani-boop/Upcyclee/internal/marketplace"
	"github.com/2024luvyavarliani-boop/Upcyclee/internal/material"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseWeight(t *testing.T) {
	tests := []struct {
		input   string
		want    float64
		wantErr bool
	}{
		{"12", 12, false},
		{"12.5", 12.5, false},
		{"12,5", 12.5, false},
		{"12kg", 12, false},
		{" 3 KG ", 3, false},
		{"40 kilos", 40, false},
		{"0.25 kgs", 0.25, false},
		{"", 0, true},
		{"heavy", 0, true},
		{"12 lbs", 0, true},
		{"-4", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := parseWeight(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFormatKg(t *testing.T) {
	assert.Equal(t, "1,284", formatKg(1284))
	assert.Equal(t, "37.5", formatKg(37.5))
	assert.Equal(t, "3,277.5", formatKg(3277.5))
	assert.Equal(t, "0", formatKg(0))
}

func TestParseCommand(t *testing.T) {
	cmd, args := parseCommand("/browse copper wire")
	assert.Equal(t, "/browse", cmd)
	assert.Equal(t, []string{"copper", "wire"}, args)

	cmd, args = parseCommand("/stats@upcycle_bot")
	assert.Equal(t, "/stats", cmd)
	assert.Empty(t, args)

	cmd, args = parseCommand("   ")
	assert.Equal(t, "", cmd)
	assert.Nil(t, args)
}

func TestCategoryFromCallback(t *testing.T) {
	assert.Equal(t, material.CategoryMetal, categoryFromCallback("0"))
	assert.Equal(t, material.CategoryPlastic, categoryFromCallback("5"))
	assert.Equal(t, material.Category(""), categoryFromCallback("all"))
	assert.Equal(t, material.Category(""), categoryFromCallback("99"))
}

func TestDescribeFilter(t *testing.T) {
	assert.Equal(t, "", describeFilter(marketplace.Filter{}))
	assert.Equal(t, "", describeFilter(marketplace.Filter{Category: material.CategoryAll}))
	assert.Equal(t, ` matching "wire\_spool" in Metal Scraps`, describeFilter(marketplace.Filter{
		Query:    "wire_spool",
		Category: material.CategoryMetal,
	}))
}

func TestFormatDraftSummary(t *testing.T) {
	d := listing.Draft{
		Name:        "Acrylic sheets",
		Quantity:    "5 sheets",
		WeightKg:    3,
		Description: "Offcuts from laser cutting",
	}

	assert.Equal(t,
		"*Acrylic sheets*\n📦 5 sheets\n⚖️ 3 kg\n📍 Campus Central\n\nOffcuts from laser cutting\n",
		formatDraftSummary(d))

	d.Category = string(material.CategoryPlastic)
	d.Reason = "Cast acrylic"
	d.Impact = &llm.ImpactEstimate{CO2Saved: 4.5, ImpactStatement: "Keeps 3kg out of landfill."}
	assert.Equal(t,
		"*Acrylic sheets*\n📦 5 sheets\n⚖️ 3 kg\n📍 Campus Central\n\nOffcuts from laser cutting\n"+
			"\n*Category:* Plastic Scrap\n_Cast acrylic_\n🌱 *CO₂ saved:* 4.5 kg\nKeeps 3kg out of landfill.\n",
		formatDraftSummary(d))
}

func TestMakeDraftKeyboard(t *testing.T) {
	callbacks := func(d listing.Draft) []string {
		var out []string
		for _, row := range makeDraftKeyboard(d).InlineKeyboard {
			for _, btn := range row {
				out = append(out, *btn.CallbackData)
			}
		}
		return out
	}

	assert.Equal(t, []string{"draft:publish", "draft:cancel"}, callbacks(listing.Draft{}))
	assert.Equal(t, []string{"draft:analyze", "draft:publish", "draft:cancel"}, callbacks(listing.Draft{Description: "x"}))

	analyzed := listing.Draft{Description: "x", Impact: &llm.ImpactEstimate{}}
	assert.Equal(t, BtnReanalyze, makeDraftKeyboard(analyzed).InlineKeyboard[0][0].Text)
}

func TestAuthFlow_UserName(t *testing.T) {
	f := NewAuthFlow()
	assert.Equal(t, "jane.doe", f.userName("jane.doe@uni.edu"))

	f.Signup = true
	f.Name = "Jane Doe"
	assert.Equal(t, "Jane Doe", f.userName("jane.doe@uni.edu"))
}

func TestAuthFlow_Lifecycle(t *testing.T) {
	f := NewAuthFlow()
	assert.False(t, f.IsActive())

	f.Name = "leftover"
	f.begin(true)
	assert.Equal(t, AuthStateAwaitingRole, f.State)
	assert.True(t, f.Signup)
	assert.Empty(t, f.Name)
	assert.False(t, f.IsTimedOut())

	f.LastInteraction = time.Now().Add(-AuthFlowTimeout - time.Second)
	assert.True(t, f.IsTimedOut())

	f.Reset()
	assert.False(t, f.IsActive())
	assert.False(t, f.IsTimedOut())
	assert.Equal(t, "None", f.State.String())
	assert.Equal(t, "Unknown", AuthState(9).String())
}
