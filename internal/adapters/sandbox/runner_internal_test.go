package sandbox

import (
	"context"
	"errors"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.trai.ch/redirector/internal/core/domain"
)

func TestResolveEnvironment(t *testing.T) {
	tests := []struct {
		name      string
		sysEnv    []string
		scratch   []string
		overrides map[string]string
		expected  []string
	}{
		{
			name:     "System Only",
			sysEnv:   []string{"USER=test", "PATH=/bin", "HTTPS_PROXY=http://proxy:8080"},
			expected: []string{"USER=test", "PATH=/bin", "HTTPS_PROXY=http://proxy:8080"},
		},
		{
			name:     "Scratch Overrides System Temp",
			sysEnv:   []string{"PATH=/bin", "TMPDIR=/tmp"},
			scratch:  []string{"TMP=/s", "TEMP=/s", "TMPDIR=/s"},
			expected: []string{"PATH=/bin", "TMPDIR=/s", "TMP=/s", "TEMP=/s"},
		},
		{
			name:      "Request Overrides Win",
			sysEnv:    []string{"PATH=/bin", "LANG=C"},
			scratch:   []string{"TMPDIR=/s"},
			overrides: map[string]string{"LANG": "en_US.UTF-8", "TMPDIR": "/custom"},
			expected:  []string{"PATH=/bin", "LANG=en_US.UTF-8", "TMPDIR=/custom"},
		},
		{
			name:     "Malformed Entries Dropped",
			sysEnv:   []string{"NOEQUALS", "=value", "OK=1"},
			expected: []string{"OK=1"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := resolveEnvironment(tt.sysEnv, tt.scratch, tt.overrides)
			sort.Strings(got)
			sort.Strings(tt.expected)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestLastLine(t *testing.T) {
	tests := []struct {
		name string
		out  string
		want string
	}{
		{name: "single", out: "https://cdn.test/a.m3u8\n", want: "https://cdn.test/a.m3u8"},
		{name: "trailing blank lines", out: "first\nhttps://cdn.test/b\n\n  \n", want: "https://cdn.test/b"},
		{name: "carriage returns", out: "one\r\ntwo\r\n", want: "two"},
		{name: "no newline", out: "warning\nhttps://x", want: "https://x"},
		{name: "empty", out: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, lastLine([]byte(tt.out)))
		})
	}
}

func TestMakeScratch_NameIncludesProcessName(t *testing.T) {
	root := t.TempDir()
	dir, err := makeScratch(domain.ProcessRequest{Name: "tier/modern", Args: []string{"-g", "u"}, ScratchRoot: root})
	assert.NoError(t, err)
	assert.DirExists(t, dir)
	assert.Contains(t, dir, "tier_modern-")
}

func TestResolveEnvironment_DropsPWD(t *testing.T) {
	got := resolveEnvironment([]string{"PWD=/somewhere", "PATH=/bin"}, nil, nil)
	assert.Equal(t, []string{"PATH=/bin"}, got)
}

func TestTimedOut(t *testing.T) {
	killed := errors.New("signal: killed")

	tests := []struct {
		name    string
		waitErr error
		ctxErr  error
		want    bool
	}{
		{name: "clean exit before deadline", want: false},
		{name: "clean exit racing the deadline", ctxErr: context.DeadlineExceeded, want: false},
		{name: "killed at deadline", waitErr: killed, ctxErr: context.DeadlineExceeded, want: true},
		{name: "killed on cancel", waitErr: killed, ctxErr: context.Canceled, want: true},
		{name: "failed on its own", waitErr: killed, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, timedOut(tt.waitErr, tt.ctxErr))
		})
	}
}
