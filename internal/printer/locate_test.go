package printer

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocateWellKnownCommand(t *testing.T) {
	loc := NewLocator(time.Second)
	// /bin/sh exists on every supported platform
	path, ok := loc.Locate(context.Background(), "sh")
	require.True(t, ok)
	assert.True(t, isExecutable(path))
}

func TestLocateMissingCommand(t *testing.T) {
	loc := NewLocator(time.Second)
	_, ok := loc.Locate(context.Background(), "definitely-not-a-real-tool-xyz")
	assert.False(t, ok)
}

func TestSystemEnvContainsSystemDirs(t *testing.T) {
	env := systemEnv()
	var path string
	for _, kv := range env {
		if len(kv) > 5 && kv[:5] == "PATH=" {
			path = kv[5:]
		}
	}
	require.NotEmpty(t, path)
	assert.Contains(t, path, "/usr/bin")
}

func TestParseAcceptingList(t *testing.T) {
	out := "Brother_DCP_T425W accepting requests since Tue 12 Mar 2024\n" +
		"HP_LaserJet accepting requests since Mon 11 Mar 2024\n" +
		"Brother_DCP_T425W accepting requests since Tue 12 Mar 2024\n"
	got := parseAcceptingList(out)
	assert.Equal(t, []string{"Brother_DCP_T425W", "HP_LaserJet"}, got)
}

func TestParseAcceptingListChinese(t *testing.T) {
	out := "Brother_DCP_T425W 正在接受请求\nHP_LaserJet 自从 2024年3月12日 开始接受请求\n"
	got := parseAcceptingList(out)
	assert.Equal(t, []string{"Brother_DCP_T425W", "HP_LaserJet"}, got)
}

func TestParsePrinterList(t *testing.T) {
	out := "printer Brother_DCP_T425W is idle.\nprinter HP_LaserJet now printing HP_LaserJet-3.\nsome other line\n"
	got := parsePrinterList(out)
	assert.Equal(t, []string{"Brother_DCP_T425W", "HP_LaserJet"}, got)
}
