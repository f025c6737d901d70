package themes

import (
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"

	"github.com/Veraticus/loanbot/internal/model"
)

func TestGetTheme(t *testing.T) {
	assert.Equal(t, CatppuccinMocha.Primary, GetTheme("catppuccin-mocha").Primary)
	assert.Equal(t, HighContrast.Primary, GetTheme("high-contrast").Primary)
	assert.Equal(t, Default.Primary, GetTheme("unknown").Primary)
	assert.Equal(t, []string{"catppuccin-mocha", "default", "high-contrast"}, Names())
}

func TestNew_DerivesStylesFromPalette(t *testing.T) {
	p := Palette{Primary: "1", Text: "2", Muted: "3", Border: "4", Success: "5", Warning: "6", Error: "7"}
	th := New(p)

	assert.Equal(t, lipgloss.Color("1"), th.ProgressFull.GetForeground())
	assert.Equal(t, lipgloss.Color("4"), th.ProgressEmpty.GetForeground())
	assert.Equal(t, lipgloss.Color("2"), th.Bold.GetForeground())
	assert.True(t, th.StatusPending.GetItalic())
}

func TestDecisionStyle(t *testing.T) {
	tests := []struct {
		status model.DecisionStatus
		want   lipgloss.Color
	}{
		{model.StatusApproved, Default.Success},
		{model.StatusConditional, Default.Warning},
		{model.StatusRejected, Default.Error},
		{model.StatusInsufficientData, Default.Muted},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			assert.Equal(t, tt.want, Default.DecisionStyle(tt.status).GetForeground())
		})
	}
}
