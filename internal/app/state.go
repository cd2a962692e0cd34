package app

import (
	"fmt"
	"io"
	"maps"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"go.trai.ch/redirector/internal/core/domain"
	"go.trai.ch/redirector/internal/ui/output"
	"go.trai.ch/redirector/internal/ui/style"
	"go.trai.ch/zerr"
)

// StateShow renders the state document to w.
func (a *App) StateShow(w io.Writer) error {
	st := a.store.Load()
	_, err := io.WriteString(w, RenderState(output.NewRenderer(w), st, a.now()))
	return err
}

// StateClear resets the state document. The session player hint survives.
func (a *App) StateClear() error {
	player := a.store.Load().ActivePlayer
	st := domain.NewState()
	st.SetActivePlayer(player)
	if err := a.store.Save(st); err != nil {
		return zerr.Wrap(err, "failed to clear state")
	}
	a.logger.Info("state cleared")
	return nil
}

// StatePlayer records the player hint of the current session.
func (a *App) StatePlayer(raw string) error {
	hint, err := domain.ParsePlayerHint(raw)
	if err != nil {
		return err
	}
	st := a.store.Load()
	st.SetActivePlayer(hint)
	if err := a.store.Save(st); err != nil {
		return zerr.Wrap(err, "failed to save player hint")
	}
	a.logger.Info("active player set to " + string(hint))
	return nil
}

// RenderState formats st for a terminal. Expired entries are shown as such
// rather than dropped so the document can be inspected as stored.
func RenderState(r *lipgloss.Renderer, st *domain.State, now time.Time) string {
	s := style.New(r)
	var b strings.Builder

	row := func(label, value string) {
		b.WriteString("  " + s.Label.Render(label) + value + "\n")
	}

	b.WriteString(s.Heading.Render("Resolution state") + "\n")
	fallback := s.Good.Render("off")
	if st.ForceFallback {
		fallback = s.Bad.Render("on") + " " + s.Muted.Render(relative(st.FallbackUntil, now))
	}
	row("fallback", fallback)
	row("consecutive errors", strconv.Itoa(st.ConsecutiveErrors))
	player := st.ActivePlayer
	if player == "" {
		player = domain.PlayerUnknown
	}
	row("active player", string(player))

	b.WriteString("\n" + s.Heading.Render("History") + "\n")
	if len(st.History) == 0 {
		b.WriteString("  " + s.Muted.Render("empty") + "\n")
	}
	for _, h := range st.History {
		b.WriteString(fmt.Sprintf("  %s %s %s\n",
			s.Good.Render(style.Dot+" "+h.Tier.String()),
			h.TargetURL,
			s.Muted.Render(ago(h.Timestamp, now)),
		))
		b.WriteString("    " + s.Muted.Render(h.ResolvedURL) + "\n")
	}

	b.WriteString("\n" + s.Heading.Render("Domain circuits") + "\n")
	if len(st.DomainBlacklist) == 0 {
		b.WriteString("  " + s.Muted.Render("none") + "\n")
	}
	for _, host := range slices.Sorted(maps.Keys(st.DomainBlacklist)) {
		c := st.DomainBlacklist[host]
		names := make([]string, 0, len(c.FailedTiers))
		for _, t := range c.FailedTiers {
			names = append(names, t.String())
		}
		b.WriteString(fmt.Sprintf("  %s %s %s\n",
			s.Bad.Render(style.Cross+" "+host),
			strings.Join(names, ","),
			s.Muted.Render(relative(c.Expiry, now)),
		))
	}

	b.WriteString("\n" + s.Heading.Render("Escalations") + "\n")
	if len(st.FailedURLs) == 0 {
		b.WriteString("  " + s.Muted.Render("none") + "\n")
	}
	for _, target := range slices.Sorted(maps.Keys(st.FailedURLs)) {
		f := st.FailedURLs[target]
		b.WriteString(fmt.Sprintf("  %s %s %s\n",
			style.Circle+" "+f.Tier.String(),
			target,
			s.Muted.Render(relative(f.Expiry, now)),
		))
	}

	return b.String()
}

func relative(e domain.Epoch, now time.Time) string {
	d := e.Time().Sub(now).Round(time.Second)
	if d <= 0 {
		return "expired"
	}
	return "expires in " + d.String()
}

func ago(e domain.Epoch, now time.Time) string {
	return now.Sub(e.Time()).Round(time.Second).String() + " ago"
}
