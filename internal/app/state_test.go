package app_test

import (
	"bytes"
	"testing"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/redirector/internal/app"
	"go.trai.ch/redirector/internal/core/domain"
)

var renderNow = time.Unix(1_700_000_000, 0)

func asciiRenderer() *lipgloss.Renderer {
	r := lipgloss.NewRenderer(&bytes.Buffer{})
	r.SetColorProfile(termenv.Ascii)
	return r
}

func TestRenderState(t *testing.T) {
	st := domain.NewState()
	st.History = []domain.HistoryEntry{{
		TargetURL:   "https://video.example/x",
		ResolvedURL: "https://cdn.example/a.mp4",
		Tier:        domain.TierProxy,
		Timestamp:   domain.EpochOf(renderNow.Add(-90 * time.Second)),
	}}
	st.DomainBlacklist["video.example"] = domain.DomainCircuit{
		FailedTiers: []domain.Tier{domain.TierModern},
		Expiry:      domain.EpochOf(renderNow.Add(10 * time.Minute)),
	}
	st.FailedURLs["https://video.example/x"] = domain.URLFailure{
		Tier:            domain.TierProxy,
		LastRequestTime: domain.EpochOf(renderNow.Add(-90 * time.Second)),
		Expiry:          domain.EpochOf(renderNow.Add(-75 * time.Second)),
	}
	st.ForceFallback = true
	st.FallbackUntil = domain.EpochOf(renderNow.Add(5 * time.Minute))
	st.ConsecutiveErrors = 3
	st.ActivePlayer = domain.PlayerAVPro

	g := goldie.New(t)
	g.Assert(t, "state_show", []byte(app.RenderState(asciiRenderer(), st, renderNow)))
}

func TestRenderState_Empty(t *testing.T) {
	g := goldie.New(t)
	g.Assert(t, "state_show_empty", []byte(app.RenderState(asciiRenderer(), domain.NewState(), renderNow)))
}

func TestApp_StateShow(t *testing.T) {
	st := domain.NewState()
	st.SetActivePlayer(domain.PlayerUnity)
	m := newAppTestMocks(t, st)

	var out bytes.Buffer
	require.NoError(t, m.app(&bytes.Buffer{}).WithClock(func() time.Time { return renderNow }).StateShow(&out))
	assert.Contains(t, out.String(), "unity")
	assert.Contains(t, out.String(), "Domain circuits")
}
