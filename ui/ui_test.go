package ui

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fanpei91/hostsed/editor"
	"github.com/fanpei91/hostsed/hosts"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

const sample = "127.0.0.1 localhost\n# comment\n10.0.0.5 foo.example bar.example\n"

type failingResolver struct{}

func (failingResolver) Lookup(context.Context, string) (string, error) {
	return "", errors.New("offline")
}

func (failingResolver) String() string {
	return "FAILING"
}

type nopWriter struct{}

func (nopWriter) Write(string) error {
	return nil
}

func newModel(t *testing.T) (Model, editor.ChanNotifier) {
	t.Helper()
	s := hosts.NewStore()
	require.NoError(t, hosts.ReadFrom(context.Background(), strings.NewReader(sample), s))
	alerts := editor.NewChanNotifier(8)
	e := editor.New(s, failingResolver{}, nopWriter{}, alerts)
	return New(context.Background(), e, alerts, nil, 10*time.Millisecond), alerts
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	return next.(Model), cmd
}

func typeText(t *testing.T, m Model, text string) Model {
	t.Helper()
	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(text)})
	require.NotNil(t, cmd)
	return m
}

func TestSearchIsDebounced(t *testing.T) {
	m, _ := newModel(t)
	require.Len(t, m.entries, 2)
	require.Equal(t, "127.0.0.1", m.entries[0].IP)

	m = typeText(t, m, "fo")
	stale := m.seq
	m = typeText(t, m, "o")

	m, _ = update(t, m, searchMsg{seq: stale})
	require.Equal(t, "", m.query)

	m, _ = update(t, m, searchMsg{seq: m.seq})
	require.Equal(t, "foo", m.query)
	require.Equal(t, "10.0.0.5", m.entries[0].IP)
}

func TestToggleDeleteKeepsRow(t *testing.T) {
	m, _ := newModel(t)
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyDown})
	require.Equal(t, 1, m.cursor)

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlD})
	require.Len(t, m.entries, 2)
	require.True(t, m.entries[1].IsDeleted())
	require.Contains(t, m.View(), "deleted")

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlD})
	require.False(t, m.entries[1].IsDeleted())
}

func TestRenewFailureShowsAlert(t *testing.T) {
	m, alerts := newModel(t)

	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyCtrlR})
	require.NotNil(t, cmd)
	require.True(t, m.busy[m.entries[0].ID])

	msg := cmd()
	renewed, ok := msg.(renewedMsg)
	require.True(t, ok)
	require.Error(t, renewed.err)

	m, _ = update(t, m, renewed)
	require.Empty(t, m.busy)
	require.Equal(t, "127.0.0.1", m.entries[0].IP)

	alert := <-alerts
	require.Equal(t, logrus.ErrorLevel, alert.Level)
	m, _ = update(t, m, alertMsg(alert))
	require.Contains(t, m.View(), "offline")
}

func TestPreviewToggle(t *testing.T) {
	m, _ := newModel(t)
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlP})
	require.True(t, m.preview)
	require.Contains(t, m.View(), "# comment")
}

func TestLoadingFillsList(t *testing.T) {
	s := hosts.NewStore()
	e := editor.New(s, failingResolver{}, nopWriter{}, nil)
	loader := func(ctx context.Context) error {
		return hosts.ReadFrom(ctx, strings.NewReader(sample), s)
	}

	m := New(context.Background(), e, nil, loader, time.Millisecond)
	require.True(t, m.loading)
	require.Empty(t, m.entries)

	m, _ = update(t, m, m.load()())
	require.False(t, m.loading)
	require.Len(t, m.entries, 2)
}
